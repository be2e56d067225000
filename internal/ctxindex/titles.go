package ctxindex

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/btree"
)

// Titles is an opened |TTLBTREE: topic titles keyed by the TOPICOFFSET of
// each topic's first record.
type Titles struct {
	tree *btree.Tree[int32]
}

// OpenTitles parses the payload of |TTLBTREE.
func OpenTitles(data []byte) (*Titles, error) {
	tree, err := btree.Open(data, btree.Int32Keys(btree.CStringValue))
	if err != nil {
		return nil, fmt.Errorf("titles: %w", err)
	}
	return &Titles{tree: tree}, nil
}

// Title returns the raw title of the topic containing offset together with
// the offset at which that topic starts.
func (t *Titles) Title(offset uint32) ([]byte, uint32, error) {
	e, err := t.tree.Floor(int32(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("title for 0x%08X: %w", offset, err)
	}
	return e.Value[:len(e.Value)-1], uint32(e.Key), nil
}
