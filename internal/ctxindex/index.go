package ctxindex

import (
	"fmt"
	"io"

	"github.com/joshuapare/hlpkit/internal/btree"
	"github.com/joshuapare/hlpkit/internal/buf"
)

// Entry pairs a context hash with the TOPICOFFSET it leads to.
type Entry struct {
	Hash        uint32
	TopicOffset uint32
}

// Index is an opened |CONTEXT tree. Keys are hashes compared as signed
// longs, values TOPICOFFSETs.
type Index struct {
	tree *btree.Tree[int32]
}

// Open parses the payload of |CONTEXT.
func Open(data []byte) (*Index, error) {
	tree, err := btree.Open(data, btree.Int32Keys(btree.FixedValue(4)))
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return &Index{tree: tree}, nil
}

// Resolve hashes name and looks it up.
func (x *Index) Resolve(name string) (uint32, error) {
	return x.ResolveHash(Hash(name))
}

// ResolveHash looks up a precomputed hash.
func (x *Index) ResolveHash(hash uint32) (uint32, error) {
	v, err := x.tree.Lookup(int32(hash))
	if err != nil {
		return 0, fmt.Errorf("context hash 0x%08X: %w", hash, err)
	}
	return buf.U32LE(v), nil
}

// Len is the number of entries declared by the tree.
func (x *Index) Len() int { return x.tree.Len() }

// Iterator walks entries in hash order.
type Iterator struct {
	it *btree.Iterator[int32]
}

// Iter returns a fresh iterator.
func (x *Index) Iter() *Iterator { return &Iterator{it: x.tree.Iter()} }

// Next returns the next entry or io.EOF.
func (i *Iterator) Next() (Entry, error) {
	e, err := i.it.Next()
	if err != nil {
		if err == io.EOF {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("context: %w", err)
	}
	return Entry{Hash: uint32(e.Key), TopicOffset: buf.U32LE(e.Value)}, nil
}
