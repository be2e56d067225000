package format

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
)

// TopicBlockHeader opens every block of the |TOPIC file and is never
// compressed.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    TOPICPOS of the last TOPICLINK starting in this block
//	 0x04    4    TOPICPOS of the first TOPICLINK starting in this block
//	 0x08    4    TOPICPOS of the last topic header record, this block or earlier
//
// A block that no link starts in stores -1 in FirstTopicLink.
type TopicBlockHeader struct {
	LastTopicLink   uint32
	FirstTopicLink  uint32
	LastTopicHeader uint32
}

// ParseTopicBlockHeader decodes the header at the start of b.
func ParseTopicBlockHeader(b []byte) (TopicBlockHeader, error) {
	if len(b) < TopicBlockHeaderSize {
		return TopicBlockHeader{}, fmt.Errorf("topic block header: %w", ErrTruncated)
	}
	return TopicBlockHeader{
		LastTopicLink:   buf.U32LE(b[0:]),
		FirstTopicLink:  buf.U32LE(b[4:]),
		LastTopicHeader: buf.U32LE(b[8:]),
	}, nil
}

// TopicLink is the fixed header of every record in the decompressed topic
// stream.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    BlockSize: size of the whole record as stored
//	 0x04    4    DataLen2: size of LinkData2 after phrase expansion
//	 0x08    4    PrevBlock: previous record (TOPICPOS, relative in 3.0)
//	 0x0C    4    NextBlock: next record (TOPICPOS, relative in 3.0)
//	 0x10    4    DataLen1: size of this header plus LinkData1
//	 0x14    1    RecordType
//
// LinkData1 follows immediately, then BlockSize-DataLen1 bytes of stored
// LinkData2.
type TopicLink struct {
	BlockSize  int32
	DataLen2   int32
	PrevBlock  int32
	NextBlock  int32
	DataLen1   int32
	RecordType uint8
}

// ParseTopicLink decodes a TOPICLINK and checks its length fields against
// each other.
func ParseTopicLink(b []byte) (TopicLink, error) {
	if len(b) < TopicLinkSize {
		return TopicLink{}, fmt.Errorf("topic link: %w", ErrTruncated)
	}
	l := TopicLink{
		BlockSize:  buf.I32LE(b[0x00:]),
		DataLen2:   buf.I32LE(b[0x04:]),
		PrevBlock:  buf.I32LE(b[0x08:]),
		NextBlock:  buf.I32LE(b[0x0C:]),
		DataLen1:   buf.I32LE(b[0x10:]),
		RecordType: b[0x14],
	}
	switch {
	case l.DataLen1 < TopicLinkSize:
		return l, fmt.Errorf("topic link: DataLen1 %d below header size: %w", l.DataLen1, ErrCorruptHeader)
	case l.BlockSize < l.DataLen1:
		return l, fmt.Errorf("topic link: BlockSize %d below DataLen1 %d: %w", l.BlockSize, l.DataLen1, ErrCorruptHeader)
	case l.DataLen2 < 0:
		return l, fmt.Errorf("topic link: DataLen2 %d: %w", l.DataLen2, ErrCorruptHeader)
	}
	return l, nil
}

// LinkData1Len is the size of LinkData1.
func (l TopicLink) LinkData1Len() int { return int(l.DataLen1) - TopicLinkSize }

// StoredLinkData2Len is the size of LinkData2 as stored, before any phrase
// expansion.
func (l TopicLink) StoredLinkData2Len() int { return int(l.BlockSize - l.DataLen1) }

// PhraseCompressed reports whether LinkData2 must be phrase expanded.
func (l TopicLink) PhraseCompressed() bool { return int(l.DataLen2) > l.StoredLinkData2Len() }

// TopicHeader is LinkData1 of a topic header record (RecordTopicHeader).
//
// 3.1 and later (28 bytes):
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    BlockSize: size of the topic including all its records
//	 0x04    4    BrowseBck: TOPICOFFSET of the previous topic in browse sequence
//	 0x08    4    BrowseFor: TOPICOFFSET of the next topic in browse sequence
//	 0x0C    4    TopicNum
//	 0x10    4    NonScroll: TOPICPOS of the non-scrolling region, or -1
//	 0x14    4    Scroll: TOPICPOS of the scrolling region
//	 0x18    4    NextTopic: TOPICPOS of the next topic header
//
// 3.0 (12 bytes): BlockSize, then i16 previous and next topic numbers each
// followed by an unused word.
type TopicHeader struct {
	BlockSize uint32
	BrowseBck uint32
	BrowseFor uint32
	TopicNum  uint32
	NonScroll uint32
	Scroll    uint32
	NextTopic uint32
}

// ParseTopicHeader decodes a topic header for either format generation.
// Fields a 3.0 header lacks are set to TopicNone.
func ParseTopicHeader(b []byte, before31 bool) (TopicHeader, error) {
	if before31 {
		if len(b) < TopicHeaderSize30 {
			return TopicHeader{}, fmt.Errorf("topic header: %w", ErrTruncated)
		}
		return TopicHeader{
			BlockSize: buf.U32LE(b[0:]),
			BrowseBck: uint32(int32(buf.I16LE(b[4:]))),
			BrowseFor: uint32(int32(buf.I16LE(b[8:]))),
			TopicNum:  TopicNone,
			NonScroll: TopicNone,
			Scroll:    TopicNone,
			NextTopic: TopicNone,
		}, nil
	}
	if len(b) < TopicHeaderSize31 {
		return TopicHeader{}, fmt.Errorf("topic header: %w", ErrTruncated)
	}
	return TopicHeader{
		BlockSize: buf.U32LE(b[0x00:]),
		BrowseBck: buf.U32LE(b[0x04:]),
		BrowseFor: buf.U32LE(b[0x08:]),
		TopicNum:  buf.U32LE(b[0x0C:]),
		NonScroll: buf.U32LE(b[0x10:]),
		Scroll:    buf.U32LE(b[0x14:]),
		NextTopic: buf.U32LE(b[0x18:]),
	}, nil
}

// TopicOffset packs a block number and character count into a TOPICOFFSET.
func TopicOffset(block int, chars uint32) uint32 {
	return uint32(block)<<TopicOffsetBlockShift + chars
}
