// Package directory resolves the internal file directory of a help file:
// the B+tree mapping names such as "|TOPIC" to the offset of each internal
// file's FILEHEADER.
package directory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshuapare/hlpkit/internal/btree"
	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
)

// Entry locates one internal file.
type Entry struct {
	Name string
	// Offset is the offset of the FILEHEADER; the payload starts
	// format.FileHeaderSize bytes later.
	Offset   uint32
	Size     uint32
	Reserved uint32
	Flags    uint8
}

// DataOffset is the offset of the first payload byte.
func (e Entry) DataOffset() int { return int(e.Offset) + format.FileHeaderSize }

// Kind classifies the entry by name.
func (e Entry) Kind() Kind { return KindOf(e.Name) }

// Directory is the resolved, immutable directory.
type Directory struct {
	entries []Entry
	byName  map[string]int
	folded  map[string]int
}

// InvalidFunc receives entries that could not be resolved. They are left
// out of the directory.
type InvalidFunc func(name string, offset uint32, err error)

// Resolve reads the directory whose FILEHEADER starts at dirOffset.
func Resolve(image []byte, dirOffset int, onInvalid InvalidFunc) (*Directory, error) {
	_, data, err := format.FilePayload(image, dirOffset)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	tree, err := btree.Open(data, btree.StringKeys(btree.FixedValue(4)))
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	all, err := tree.All()
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	d := &Directory{
		entries: make([]Entry, 0, len(all)),
		byName:  make(map[string]int, len(all)),
		folded:  make(map[string]int, len(all)),
	}
	for _, e := range all {
		off := buf.U32LE(e.Value)
		fh, err := format.ParseFileHeader(image, int(off))
		if err == nil && !buf.Has(image, int(off)+format.FileHeaderSize, int(fh.UsedSpace)) {
			err = fmt.Errorf("%d used bytes at 0x%X exceed image: %w", fh.UsedSpace, off, format.ErrTruncated)
		}
		if err != nil {
			if onInvalid != nil {
				onInvalid(e.Key, off, err)
			}
			continue
		}
		d.byName[e.Key] = len(d.entries)
		if _, dup := d.folded[strings.ToLower(e.Key)]; !dup {
			d.folded[strings.ToLower(e.Key)] = len(d.entries)
		}
		d.entries = append(d.entries, Entry{
			Name:     e.Key,
			Offset:   off,
			Size:     fh.UsedSpace,
			Reserved: fh.ReservedSpace,
			Flags:    fh.Flags,
		})
	}
	return d, nil
}

// Lookup finds an entry by exact name.
func (d *Directory) Lookup(name string) (Entry, error) {
	if i, ok := d.byName[name]; ok {
		return d.entries[i], nil
	}
	return Entry{}, fmt.Errorf("internal file %q: %w", name, format.ErrNotFound)
}

// LookupFold finds an entry ignoring ASCII case. External jump targets name
// files the way the author typed them.
func (d *Directory) LookupFold(name string) (Entry, bool) {
	i, ok := d.folded[strings.ToLower(name)]
	if !ok {
		return Entry{}, false
	}
	return d.entries[i], true
}

// Has reports whether name exists.
func (d *Directory) Has(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// Entries returns all entries in directory order.
func (d *Directory) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Len is the number of resolved entries.
func (d *Directory) Len() int { return len(d.entries) }

// Data returns the payload of e. No decompression is applied.
func Data(image []byte, e Entry) ([]byte, error) {
	b, ok := buf.Slice(image, e.DataOffset(), int(e.Size))
	if !ok {
		return nil, fmt.Errorf("internal file %q: %w", e.Name, format.ErrTruncated)
	}
	return b, nil
}

// Names returns the entry names sorted the way the directory tree orders
// them.
func (d *Directory) Names() []string {
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names
}
