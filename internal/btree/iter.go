package btree

import (
	"fmt"
	"io"

	"github.com/joshuapare/hlpkit/internal/format"
)

// Iterator walks leaf entries in key order by following the leaf chain.
// Each call to Tree.Iter returns an independent iterator starting over.
type Iterator[K any] struct {
	t       *Tree[K]
	next    int16
	leaf    leafView[K]
	pos     int
	visited int
	started bool
	last    *K
	err     error
}

// Iter returns a fresh iterator positioned before the first entry.
func (t *Tree[K]) Iter() *Iterator[K] {
	return &Iterator[K]{t: t}
}

// Next returns the next entry, io.EOF after the last one, or the error that
// stopped the walk. Errors are sticky.
func (it *Iterator[K]) Next() (Entry[K], error) {
	if it.err != nil {
		return Entry[K]{}, it.err
	}
	if !it.started {
		it.started = true
		if it.t.empty() {
			it.err = io.EOF
			return Entry[K]{}, it.err
		}
		first, err := it.firstLeaf()
		if err != nil {
			it.err = err
			return Entry[K]{}, err
		}
		it.next = first
		it.pos = 0
	}
	for it.pos >= len(it.leaf.entries) {
		if it.next == format.BTreeNoPage {
			it.err = io.EOF
			return Entry[K]{}, it.err
		}
		// A chain longer than the page count must loop.
		if it.visited >= int(it.t.hdr.TotalPages) {
			it.err = fmt.Errorf("btree: leaf chain revisits page %d: %w", it.next, format.ErrCorruptPage)
			return Entry[K]{}, it.err
		}
		leaf, err := it.t.readLeaf(it.next)
		if err != nil {
			it.err = err
			return Entry[K]{}, err
		}
		it.visited++
		it.leaf, it.pos, it.next = leaf, 0, leaf.next
	}
	e := it.leaf.entries[it.pos]
	it.pos++
	if it.last != nil && it.t.codec.Compare(*it.last, e.Key) >= 0 {
		it.err = fmt.Errorf("btree: leaf chain keys out of order: %w", format.ErrCorruptPage)
		return Entry[K]{}, it.err
	}
	it.last = &e.Key
	return e, nil
}

func (it *Iterator[K]) firstLeaf() (int16, error) {
	n := it.t.hdr.RootPage
	for level := it.t.hdr.NLevels; level > 1; level-- {
		idx, err := it.t.readIndex(n)
		if err != nil {
			return 0, err
		}
		n = idx.first
	}
	return n, nil
}

// All collects every entry. The header's entry count is not trusted for
// sizing; a leaf entry takes at least two bytes.
func (t *Tree[K]) All() ([]Entry[K], error) {
	out := make([]Entry[K], 0, min(max(t.Len(), 0), len(t.pages)/2))
	it := t.Iter()
	for {
		e, err := it.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}
