package hlpbuild

import (
	"encoding/binary"
	"sort"
)

// Image assembles a complete help file from named internal files.
type Image struct {
	// DirectoryPageSize is the page size of the directory B+tree; real files
	// use 1024. Small values force multi-level trees.
	DirectoryPageSize int
	// DirectoryFlags is stored in the directory B+tree header.
	DirectoryFlags uint16

	names []string
	files map[string][]byte
}

// NewImage returns an empty image with a 1 KiB directory page size.
func NewImage() *Image {
	return &Image{DirectoryPageSize: 1024, DirectoryFlags: 0x0402, files: map[string][]byte{}}
}

// Add stores an internal file. Adding a name twice replaces its contents.
func (im *Image) Add(name string, data []byte) *Image {
	if _, ok := im.files[name]; !ok {
		im.names = append(im.names, name)
	}
	im.files[name] = data
	return im
}

// Layout describes where Build placed each structure.
type Layout struct {
	DirectoryStart int
	// FileOffsets maps each internal file to the offset of its FILEHEADER.
	FileOffsets map[string]int
}

// Build returns the image bytes and their layout. Files are written in the
// order they were added, the directory last.
func (im *Image) Build() ([]byte, Layout) {
	out := make([]byte, 16)
	lay := Layout{FileOffsets: map[string]int{}}
	for _, name := range im.names {
		lay.FileOffsets[name] = len(out)
		out = appendFile(out, im.files[name])
	}

	names := append([]string(nil), im.names...)
	sort.Strings(names)
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Key: StringKey(n), Value: U32(uint32(lay.FileOffsets[n]))}
	}
	lay.DirectoryStart = len(out)
	out = appendFile(out, BTree(im.DirectoryPageSize, im.DirectoryFlags, "z4", entries))

	binary.LittleEndian.PutUint32(out[0:], 0x00035F3F)
	binary.LittleEndian.PutUint32(out[4:], uint32(lay.DirectoryStart))
	binary.LittleEndian.PutUint32(out[8:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(out[12:], uint32(len(out)))
	return out, lay
}

// Bytes is Build without the layout.
func (im *Image) Bytes() []byte {
	b, _ := im.Build()
	return b
}

func appendFile(out, data []byte) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)+9))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	out = append(out, 4)
	return append(out, data...)
}

// System builds a |SYSTEM file. Minor versions up to 16 produce the 3.0
// layout with the title stored directly after the header; later versions
// store the title and the extra records as typed records.
func System(minor uint16, flags uint16, title string, records ...SystemRecord) []byte {
	out := binary.LittleEndian.AppendUint16(nil, 0x036C)
	out = binary.LittleEndian.AppendUint16(out, minor)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint32(out, 0x30000000)
	out = binary.LittleEndian.AppendUint16(out, flags)
	if minor <= 16 {
		return append(append(out, title...), 0)
	}
	all := append([]SystemRecord{{Type: 1, Data: append([]byte(title), 0)}}, records...)
	for _, r := range all {
		out = binary.LittleEndian.AppendUint16(out, r.Type)
		out = binary.LittleEndian.AppendUint16(out, uint16(len(r.Data)))
		out = append(out, r.Data...)
	}
	return out
}

// SystemRecord is one typed record of a 3.1 |SYSTEM file.
type SystemRecord struct {
	Type uint16
	Data []byte
}

// Context builds a |CONTEXT B+tree from hash/offset pairs. Pairs are sorted
// by signed hash.
func Context(pageSize int, pairs map[uint32]uint32) []byte {
	hashes := make([]uint32, 0, len(pairs))
	for h := range pairs {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return int32(hashes[i]) < int32(hashes[j]) })
	entries := make([]Entry, len(hashes))
	for i, h := range hashes {
		entries[i] = Entry{Key: Int32Key(int32(h)), Value: U32(pairs[h])}
	}
	return BTree(pageSize, 0x0002, "L4", entries)
}

// Titles builds a |TTLBTREE from topic offset/title pairs.
func Titles(pageSize int, titles map[uint32]string) []byte {
	offs := make([]uint32, 0, len(titles))
	for o := range titles {
		offs = append(offs, o)
	}
	sort.Slice(offs, func(i, j int) bool { return int32(offs[i]) < int32(offs[j]) })
	entries := make([]Entry, len(offs))
	for i, o := range offs {
		entries[i] = Entry{Key: Int32Key(int32(o)), Value: StringKey(titles[o])}
	}
	return BTree(pageSize, 0x0002, "Lz", entries)
}

// CtxoMap builds a 3.0 |CTXOMAP file.
func CtxoMap(pairs ...[2]uint32) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(len(pairs)))
	for _, p := range pairs {
		out = binary.LittleEndian.AppendUint32(out, p[0])
		out = binary.LittleEndian.AppendUint32(out, p[1])
	}
	return out
}
