package hlpbuild

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Entry is one leaf record: an encoded key and its value bytes.
type Entry struct {
	Key   []byte
	Value []byte
}

// StringKey encodes a STRINGZ key.
func StringKey(s string) []byte { return append([]byte(s), 0) }

// Int32Key encodes a signed long key.
func Int32Key(v int32) []byte { return binary.LittleEndian.AppendUint32(nil, uint32(v)) }

// U32 encodes a little-endian dword value.
func U32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

// BTree lays out entries, which must already be in key order, as a B+tree
// with pages of pageSize bytes. Leaves are filled greedily; index levels are
// added until a single root page remains.
func BTree(pageSize int, flags uint16, structure string, entries []Entry) []byte {
	type page struct {
		first []byte
		body  []byte
		n     int
	}
	var leaves []page
	cur := page{}
	for _, e := range entries {
		rec := append(append([]byte{}, e.Key...), e.Value...)
		if cur.n > 0 && 8+len(cur.body)+len(rec) > pageSize {
			leaves = append(leaves, cur)
			cur = page{}
		}
		if cur.n == 0 {
			cur.first = e.Key
		}
		cur.body = append(cur.body, rec...)
		cur.n++
	}
	leaves = append(leaves, cur)

	var pages [][]byte
	for i, l := range leaves {
		prev, next := i-1, i+1
		if next == len(leaves) {
			next = -1
		}
		p := make([]byte, pageSize)
		binary.LittleEndian.PutUint16(p[0:], uint16(pageSize-8-len(l.body)))
		binary.LittleEndian.PutUint16(p[2:], uint16(l.n))
		binary.LittleEndian.PutUint16(p[4:], uint16(int16(prev)))
		binary.LittleEndian.PutUint16(p[6:], uint16(int16(next)))
		copy(p[8:], l.body)
		pages = append(pages, p)
	}

	// level holds (first key, page number) of the pages one level down.
	type ref struct {
		key  []byte
		page int
	}
	level := make([]ref, len(leaves))
	for i, l := range leaves {
		level[i] = ref{key: l.first, page: i}
	}
	levels := 1
	for len(level) > 1 {
		var up []ref
		for i := 0; i < len(level); {
			first := level[i]
			var body []byte
			n := 0
			i++
			for i < len(level) {
				rec := binary.LittleEndian.AppendUint16(append([]byte{}, level[i].key...), uint16(level[i].page))
				if 6+len(body)+len(rec) > pageSize {
					break
				}
				body = append(body, rec...)
				n++
				i++
			}
			p := make([]byte, pageSize)
			binary.LittleEndian.PutUint16(p[0:], uint16(pageSize-6-len(body)))
			binary.LittleEndian.PutUint16(p[2:], uint16(n))
			binary.LittleEndian.PutUint16(p[4:], uint16(first.page))
			copy(p[6:], body)
			up = append(up, ref{key: first.key, page: len(pages)})
			pages = append(pages, p)
		}
		level = up
		levels++
	}

	hdr := make([]byte, 38)
	binary.LittleEndian.PutUint16(hdr[0x00:], 0x293B)
	binary.LittleEndian.PutUint16(hdr[0x02:], flags)
	binary.LittleEndian.PutUint16(hdr[0x04:], uint16(pageSize))
	copy(hdr[0x06:0x16], structure)
	binary.LittleEndian.PutUint16(hdr[0x1A:], uint16(level[0].page))
	binary.LittleEndian.PutUint16(hdr[0x1C:], 0xFFFF)
	binary.LittleEndian.PutUint16(hdr[0x1E:], uint16(len(pages)))
	binary.LittleEndian.PutUint16(hdr[0x20:], uint16(levels))
	binary.LittleEndian.PutUint32(hdr[0x22:], uint32(len(entries)))

	var out bytes.Buffer
	out.Write(hdr)
	for _, p := range pages {
		out.Write(p)
	}
	return out.Bytes()
}

// LeafPageOffset returns the offset of page n within a tree built by BTree.
func LeafPageOffset(pageSize, n int) int { return 38 + n*pageSize }

// MustSorted panics when entries are not in strictly increasing byte order.
// Only meaningful for string keys.
func MustSorted(entries []Entry) {
	for i := 1; i < len(entries); i++ {
		if bytes.Compare(entries[i-1].Key, entries[i].Key) >= 0 {
			panic(fmt.Sprintf("hlpbuild: key %q not after %q", entries[i].Key, entries[i-1].Key))
		}
	}
}
