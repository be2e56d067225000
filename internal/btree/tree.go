// Package btree reads the B+trees WinHelp uses for its directory and for
// keyed internal files. The engine is generic over the key type; a Codec
// supplies the key decoder, the ordering and the leaf value size.
//
// Pages are decoded on demand from the tree's byte slice and never copied.
// A tree is immutable and safe for concurrent use.
package btree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
)

// PageKind tells index pages from leaf pages. WinHelp does not tag pages;
// the kind follows from the page's depth below the root.
type PageKind uint8

const (
	IndexPage PageKind = iota + 1
	LeafPage
)

// Entry is one leaf record. Value aliases the tree's buffer.
type Entry[K any] struct {
	Key   K
	Value []byte
}

// Tree is an opened B+tree.
type Tree[K any] struct {
	hdr   format.BTreeHeader
	pages []byte
	codec Codec[K]
}

// Open reads the tree header at the start of b. b is the payload of the
// internal file holding the tree.
func Open[K any](b []byte, codec Codec[K]) (*Tree[K], error) {
	hdr, err := format.ParseBTreeHeader(b)
	if err != nil {
		return nil, err
	}
	size := int(hdr.TotalPages) * int(hdr.PageSize)
	pages, ok := buf.Slice(b, format.BTreeHeaderSize, size)
	if !ok {
		return nil, fmt.Errorf("btree: %d pages of %d bytes exceed %d byte file: %w",
			hdr.TotalPages, hdr.PageSize, len(b), format.ErrCorruptPage)
	}
	return &Tree[K]{hdr: hdr, pages: pages, codec: codec}, nil
}

// Header returns the tree header.
func (t *Tree[K]) Header() format.BTreeHeader { return t.hdr }

// Len is the entry count declared in the header.
func (t *Tree[K]) Len() int { return int(t.hdr.TotalEntries) }

func (t *Tree[K]) empty() bool { return t.hdr.TotalPages == 0 || t.hdr.NLevels == 0 }

func (t *Tree[K]) page(n int16) ([]byte, error) {
	if n < 0 || n >= t.hdr.TotalPages {
		return nil, fmt.Errorf("btree: page %d of %d: %w", n, t.hdr.TotalPages, format.ErrCorruptPage)
	}
	ps := int(t.hdr.PageSize)
	return t.pages[int(n)*ps : (int(n)+1)*ps], nil
}

// indexView is a decoded index page.
type indexView[K any] struct {
	first    int16
	keys     []K
	children []int16
}

func (t *Tree[K]) readIndex(n int16) (indexView[K], error) {
	p, err := t.page(n)
	if err != nil {
		return indexView[K]{}, err
	}
	h, err := format.ParseIndexHeader(p)
	if err != nil {
		return indexView[K]{}, fmt.Errorf("btree: index page %d: %w", n, format.ErrCorruptPage)
	}
	if h.NEntries < 0 {
		return indexView[K]{}, fmt.Errorf("btree: index page %d: %d entries: %w", n, h.NEntries, format.ErrCorruptPage)
	}
	if h.FirstChild < 0 || h.FirstChild >= t.hdr.TotalPages {
		return indexView[K]{}, fmt.Errorf("btree: index page %d: child %d of %d: %w",
			n, h.FirstChild, t.hdr.TotalPages, format.ErrCorruptPage)
	}
	v := indexView[K]{
		first:    h.FirstChild,
		keys:     make([]K, 0, h.NEntries),
		children: make([]int16, 0, h.NEntries),
	}
	off := format.BTreeIndexHeaderSize
	prev := h.FirstChild
	for i := range int(h.NEntries) {
		k, kn, err := t.codec.DecodeKey(p[off:])
		if err != nil {
			return indexView[K]{}, fmt.Errorf("btree: index page %d entry %d: %w", n, i, asCorrupt(err))
		}
		off += kn
		if off+2 > len(p) {
			return indexView[K]{}, fmt.Errorf("btree: index page %d entry %d overruns page: %w", n, i, format.ErrCorruptPage)
		}
		child := buf.I16LE(p[off:])
		off += 2
		if child < 0 || child >= t.hdr.TotalPages {
			return indexView[K]{}, fmt.Errorf("btree: index page %d: child %d of %d: %w",
				n, child, t.hdr.TotalPages, format.ErrCorruptPage)
		}
		if child <= prev {
			return indexView[K]{}, fmt.Errorf("btree: index page %d: child %d after %d: %w", n, child, prev, format.ErrCorruptPage)
		}
		prev = child
		if i > 0 && t.codec.Compare(v.keys[i-1], k) >= 0 {
			return indexView[K]{}, fmt.Errorf("btree: index page %d: separator %d out of order: %w", n, i, format.ErrCorruptPage)
		}
		v.keys = append(v.keys, k)
		v.children = append(v.children, child)
	}
	return v, nil
}

// child picks the subtree that holds key: the rightmost separator not
// greater than key, or the leftmost child. It also returns the index of the
// separator after the subtree, len(keys) when there is none.
func (v indexView[K]) child(key K, compare func(a, b K) int) (int16, int) {
	i := sort.Search(len(v.keys), func(i int) bool { return compare(v.keys[i], key) > 0 })
	if i == 0 {
		return v.first, 0
	}
	return v.children[i-1], i
}

// leafView is a decoded leaf page.
type leafView[K any] struct {
	entries []Entry[K]
	prev    int16
	next    int16
}

func (t *Tree[K]) readLeaf(n int16) (leafView[K], error) {
	p, err := t.page(n)
	if err != nil {
		return leafView[K]{}, err
	}
	h, err := format.ParseLeafHeader(p)
	if err != nil {
		return leafView[K]{}, fmt.Errorf("btree: leaf page %d: %w", n, format.ErrCorruptPage)
	}
	if h.NEntries < 0 {
		return leafView[K]{}, fmt.Errorf("btree: leaf page %d: %d entries: %w", n, h.NEntries, format.ErrCorruptPage)
	}
	v := leafView[K]{entries: make([]Entry[K], 0, h.NEntries), prev: h.PreviousPage, next: h.NextPage}
	off := format.BTreeLeafHeaderSize
	for i := range int(h.NEntries) {
		k, kn, err := t.codec.DecodeKey(p[off:])
		if err != nil {
			return leafView[K]{}, fmt.Errorf("btree: leaf page %d entry %d: %w", n, i, asCorrupt(err))
		}
		off += kn
		vn, err := t.codec.ValueSize(p[off:])
		if err != nil {
			return leafView[K]{}, fmt.Errorf("btree: leaf page %d entry %d: %w", n, i, asCorrupt(err))
		}
		if i > 0 && t.codec.Compare(v.entries[i-1].Key, k) >= 0 {
			return leafView[K]{}, fmt.Errorf("btree: leaf page %d: key %d out of order: %w", n, i, format.ErrCorruptPage)
		}
		v.entries = append(v.entries, Entry[K]{Key: k, Value: p[off : off+vn : off+vn]})
		off += vn
	}
	return v, nil
}

// descend walks index levels from the root towards key and returns the leaf
// that may hold it. The leaf's keys must lie within the separators passed on
// the way down.
func (t *Tree[K]) descend(key K) (leafView[K], error) {
	n := t.hdr.RootPage
	var lo, hi *K // nil is unbounded
	for level := t.hdr.NLevels; level > 1; level-- {
		idx, err := t.readIndex(n)
		if err != nil {
			return leafView[K]{}, err
		}
		var i int
		n, i = idx.child(key, t.codec.Compare)
		if i > 0 {
			lo = &idx.keys[i-1]
		}
		if i < len(idx.keys) {
			hi = &idx.keys[i]
		}
	}
	leaf, err := t.readLeaf(n)
	if err != nil {
		return leafView[K]{}, err
	}
	if len(leaf.entries) > 0 {
		first, last := leaf.entries[0].Key, leaf.entries[len(leaf.entries)-1].Key
		if (lo != nil && t.codec.Compare(first, *lo) < 0) || (hi != nil && t.codec.Compare(last, *hi) >= 0) {
			return leafView[K]{}, fmt.Errorf("btree: leaf page %d: keys outside parent separators: %w", n, format.ErrCorruptPage)
		}
	}
	return leaf, nil
}

// Lookup returns the value stored under key, or format.ErrNotFound.
func (t *Tree[K]) Lookup(key K) ([]byte, error) {
	if t.empty() {
		return nil, format.ErrNotFound
	}
	leaf, err := t.descend(key)
	if err != nil {
		return nil, err
	}
	i := sort.Search(len(leaf.entries), func(i int) bool { return t.codec.Compare(leaf.entries[i].Key, key) >= 0 })
	if i < len(leaf.entries) && t.codec.Compare(leaf.entries[i].Key, key) == 0 {
		return leaf.entries[i].Value, nil
	}
	return nil, format.ErrNotFound
}

// Floor returns the entry with the greatest key not above key, or
// format.ErrNotFound when every key is greater.
func (t *Tree[K]) Floor(key K) (Entry[K], error) {
	if t.empty() {
		return Entry[K]{}, format.ErrNotFound
	}
	leaf, err := t.descend(key)
	if err != nil {
		return Entry[K]{}, err
	}
	i := sort.Search(len(leaf.entries), func(i int) bool { return t.codec.Compare(leaf.entries[i].Key, key) > 0 })
	if i > 0 {
		return leaf.entries[i-1], nil
	}
	// Every key on this leaf is greater; the floor, if any, ends the
	// previous leaf.
	if leaf.prev == format.BTreeNoPage {
		return Entry[K]{}, format.ErrNotFound
	}
	prev, err := t.readLeaf(leaf.prev)
	if err != nil {
		return Entry[K]{}, err
	}
	if len(prev.entries) == 0 {
		return Entry[K]{}, format.ErrNotFound
	}
	return prev.entries[len(prev.entries)-1], nil
}

func asCorrupt(err error) error {
	if errors.Is(err, format.ErrCorruptPage) {
		return err
	}
	return fmt.Errorf("%v: %w", err, format.ErrCorruptPage)
}
