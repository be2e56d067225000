package topic

import (
	"io"

	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Iterator walks the record chain in NextBlock order. It is lazy and
// forward only; Decoder.Iter starts a fresh walk.
//
// A record whose header or block cannot be read yields a *types.TopicError
// and the walk resumes at the first record of the next readable block. A
// record whose header is sound but whose data fails to decode yields a
// *types.TopicError and the walk continues with its successor.
type Iterator struct {
	d       *Decoder
	pos     uint32
	started bool
	done    bool

	// TOPICOFFSET bookkeeping: characters of display records since the
	// first record of the current block.
	block int
	chars uint32
}

// Iter returns a fresh iterator positioned before the first record.
func (d *Decoder) Iter() *Iterator {
	return &Iterator{d: d, block: -1}
}

// Next returns the next record, io.EOF after the last one.
func (it *Iterator) Next() (*types.ParsedTopic, error) {
	if it.done {
		return nil, io.EOF
	}
	if !it.started {
		it.started = true
		pos, ok := it.d.start()
		if !ok {
			it.done = true
			return nil, io.EOF
		}
		it.pos = pos
	}

	pos := it.pos
	block, _ := it.d.split(pos)

	rec, err := it.d.ReadRecord(pos)
	if err != nil {
		return nil, it.recover(pos, block, err)
	}
	next, end, err := it.d.next(rec)
	if err != nil {
		return nil, it.recover(pos, block, err)
	}
	if end {
		it.done = true
	} else {
		it.pos = next
	}

	offset := it.offset(block)
	if types.RecordType(rec.Link.RecordType).IsDisplay() {
		it.chars += uint32(rec.Link.DataLen2)
	}
	nextOffset := format.TopicOffset(it.block, it.chars)
	if !end {
		if nb, _ := it.d.split(next); nb != it.block {
			nextOffset = format.TopicOffset(nb, 0)
		}
	}

	pt, err := it.d.Decode(rec)
	if err != nil {
		it.d.log.Warn("topic record skipped", "pos", pos, "block", block, "error", err)
		return nil, &types.TopicError{Pos: pos, Block: block, Err: err}
	}
	pt.Offset, pt.NextOffset = offset, nextOffset
	return pt, nil
}

func (it *Iterator) offset(block int) uint32 {
	if block != it.block {
		it.block, it.chars = block, 0
	}
	return format.TopicOffset(block, it.chars)
}

// recover moves past a record whose header could not be trusted.
func (it *Iterator) recover(pos uint32, block int, err error) error {
	it.d.log.Warn("topic chain broken", "pos", pos, "block", block, "error", err)
	if next, ok := it.d.resync(failedBlock(err, block)); ok {
		it.pos = next
	} else {
		it.done = true
	}
	return &types.TopicError{Pos: pos, Block: block, Err: err}
}
