package ctxindex

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
)

// MapEntry is one 3.0 [MAP] entry: the author's numeric id and its topic.
type MapEntry struct {
	MapID       int32
	TopicOffset uint32
}

// ParseMap parses |CTXOMAP: a u16 count followed by (map id, offset) pairs.
func ParseMap(data []byte) ([]MapEntry, error) {
	c := buf.NewCursor(data)
	n, err := c.U16()
	if err != nil {
		return nil, fmt.Errorf("ctxomap: %w", format.ErrTruncated)
	}
	if _, err := buf.CheckListBounds(len(data), 2, int(n), 8); err != nil {
		return nil, fmt.Errorf("ctxomap: %v: %w", err, format.ErrCorruptData)
	}
	out := make([]MapEntry, n)
	for i := range out {
		id, _ := c.I32()
		off, _ := c.U32()
		out[i] = MapEntry{MapID: id, TopicOffset: off}
	}
	return out, nil
}

// LookupMap finds the topic for a map id.
func LookupMap(entries []MapEntry, id int32) (uint32, error) {
	for _, e := range entries {
		if e.MapID == id {
			return e.TopicOffset, nil
		}
	}
	return 0, fmt.Errorf("map id %d: %w", id, format.ErrNotFound)
}
