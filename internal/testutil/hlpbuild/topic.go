package hlpbuild

import (
	"encoding/binary"
	"fmt"
)

// TopicRecord is one TOPICLINK record for TopicFile.
type TopicRecord struct {
	Type      byte
	LinkData1 []byte
	// LinkData2 is the text as stored (phrase tokens included).
	LinkData2 []byte
	// DataLen2 overrides the expanded text length; zero means
	// len(LinkData2).
	DataLen2 int
	// NewBlock starts the record at the beginning of a fresh block.
	NewBlock bool
}

func (r TopicRecord) stored() int { return 21 + len(r.LinkData1) + len(r.LinkData2) }

func (r TopicRecord) dataLen2() int {
	if r.DataLen2 != 0 {
		return r.DataLen2
	}
	return len(r.LinkData2)
}

// Placement reports where TopicFile put a record.
type Placement struct {
	Pos   uint32
	Block int
	// Offset and NextOffset are the TOPICOFFSETs a decoder derives.
	Offset     uint32
	NextOffset uint32
}

// TopicFile builds a |TOPIC file.
type TopicFile struct {
	BlockSize int
	LZ77      bool
	// Before31 stores NextBlock and PrevBlock relative to the record.
	Before31 bool

	records []TopicRecord
}

// NewTopicFile returns an empty topic file.
func NewTopicFile(blockSize int, lz77, before31 bool) *TopicFile {
	return &TopicFile{BlockSize: blockSize, LZ77: lz77, Before31: before31}
}

// Add appends a record.
func (t *TopicFile) Add(r TopicRecord) *TopicFile {
	t.records = append(t.records, r)
	return t
}

// lzWorstCase is the size of n bytes encoded as literals only. Compressed
// blocks are filled against it so any encoder output fits.
func lzWorstCase(n int) int { return n + (n+7)/8 }

// Build lays the records out and returns the file and each placement.
// Uncompressed records may span blocks; compressed ones never do.
func (t *TopicFile) Build() ([]byte, []Placement) {
	step := t.BlockSize - 12
	stride := t.BlockSize
	if t.LZ77 {
		stride = 0x4000
	}

	// Stored position of every record: block number and payload offset.
	type loc struct{ block, off int }
	locs := make([]loc, len(t.records))
	var payloads [][]byte

	if t.LZ77 {
		var cur []byte
		for i, r := range t.records {
			n := r.stored()
			if len(cur) > 0 && (r.NewBlock || lzWorstCase(len(cur)+n) > step) {
				payloads = append(payloads, cur)
				cur = nil
			}
			if lzWorstCase(n) > step {
				panic(fmt.Sprintf("hlpbuild: record %d of %d bytes does not fit a block", i, n))
			}
			locs[i] = loc{len(payloads), len(cur)}
			cur = append(cur, make([]byte, n)...)
		}
		payloads = append(payloads, cur)
	} else {
		s := 0
		for i, r := range t.records {
			if r.NewBlock && s%step != 0 {
				s += step - s%step
			}
			locs[i] = loc{s / step, s % step}
			s += r.stored()
		}
	}

	pos := func(i int) uint32 { return uint32(locs[i].block*stride + 12 + locs[i].off) }
	streamOff := func(i int) int { return locs[i].block*step + locs[i].off }

	// Encode every record.
	enc := make([][]byte, len(t.records))
	for i, r := range t.records {
		next, prev := int32(-1), int32(-1)
		if i+1 < len(t.records) {
			if t.Before31 {
				next = int32(streamOff(i+1) - streamOff(i))
			} else {
				next = int32(pos(i + 1))
			}
		}
		if i > 0 {
			if t.Before31 {
				prev = int32(streamOff(i) - streamOff(i-1))
			} else {
				prev = int32(pos(i - 1))
			}
		}
		b := binary.LittleEndian.AppendUint32(nil, uint32(r.stored()))
		b = binary.LittleEndian.AppendUint32(b, uint32(r.dataLen2()))
		b = binary.LittleEndian.AppendUint32(b, uint32(prev))
		b = binary.LittleEndian.AppendUint32(b, uint32(next))
		b = binary.LittleEndian.AppendUint32(b, uint32(21+len(r.LinkData1)))
		b = append(b, r.Type)
		b = append(b, r.LinkData1...)
		enc[i] = append(b, r.LinkData2...)
	}

	// Fill block payloads.
	if t.LZ77 {
		for i := range payloads {
			payloads[i] = payloads[i][:0]
		}
		for i, e := range enc {
			payloads[locs[i].block] = append(payloads[locs[i].block], e...)
		}
	} else {
		var stream []byte
		for i, e := range enc {
			if gap := streamOff(i) - len(stream); gap > 0 {
				stream = append(stream, make([]byte, gap)...)
			}
			stream = append(stream, e...)
		}
		for off := 0; off < len(stream); off += step {
			payloads = append(payloads, stream[off:min(off+step, len(stream))])
		}
	}

	// Block headers.
	out := make([]byte, 0, len(payloads)*t.BlockSize)
	lastHeader := int32(-1)
	for b, p := range payloads {
		first, last := int32(-1), int32(-1)
		for i := range t.records {
			if locs[i].block != b {
				continue
			}
			if first == -1 {
				first = int32(pos(i))
			}
			last = int32(pos(i))
			if t.records[i].Type == 0x02 {
				lastHeader = int32(pos(i))
			}
		}
		blk := binary.LittleEndian.AppendUint32(nil, uint32(last))
		blk = binary.LittleEndian.AppendUint32(blk, uint32(first))
		blk = binary.LittleEndian.AppendUint32(blk, uint32(lastHeader))
		if t.LZ77 {
			blk = append(blk, LZ77(p)...)
		} else {
			blk = append(blk, p...)
		}
		if b < len(payloads)-1 {
			blk = append(blk, make([]byte, t.BlockSize-len(blk))...)
		}
		out = append(out, blk...)
	}

	// TOPICOFFSETs, counted the way the decoder counts them.
	places := make([]Placement, len(t.records))
	curBlock, chars := -1, uint32(0)
	for i, r := range t.records {
		blk := int(pos(i)) / stride
		if blk != curBlock {
			curBlock, chars = blk, 0
		}
		places[i] = Placement{Pos: pos(i), Block: blk, Offset: uint32(blk)<<15 + chars}
		if r.Type == 0x01 || r.Type == 0x20 || r.Type == 0x23 {
			chars += uint32(r.dataLen2())
		}
		places[i].NextOffset = uint32(curBlock)<<15 + chars
		if i+1 < len(t.records) {
			if nb := int(pos(i+1)) / stride; nb != curBlock {
				places[i].NextOffset = uint32(nb) << 15
			}
		}
	}
	return out, places
}

// TopicHeaderRecord builds a 0x02 record. Before31 selects the 12-byte
// TOPICHEADER.
func TopicHeaderRecord(before31 bool, topicNum uint32, title string, macros ...string) TopicRecord {
	var ld1 []byte
	if before31 {
		ld1 = binary.LittleEndian.AppendUint32(nil, 0)
		ld1 = binary.LittleEndian.AppendUint16(ld1, 0xFFFF)
		ld1 = binary.LittleEndian.AppendUint16(ld1, 0)
		ld1 = binary.LittleEndian.AppendUint16(ld1, 0xFFFF)
		ld1 = binary.LittleEndian.AppendUint16(ld1, 0)
	} else {
		ld1 = binary.LittleEndian.AppendUint32(nil, 0)
		ld1 = binary.LittleEndian.AppendUint32(ld1, 0xFFFFFFFF)
		ld1 = binary.LittleEndian.AppendUint32(ld1, 0xFFFFFFFF)
		ld1 = binary.LittleEndian.AppendUint32(ld1, topicNum)
		ld1 = binary.LittleEndian.AppendUint32(ld1, 0xFFFFFFFF)
		ld1 = binary.LittleEndian.AppendUint32(ld1, 0)
		ld1 = binary.LittleEndian.AppendUint32(ld1, 0xFFFFFFFF)
	}
	text := append([]byte(title), 0)
	for _, m := range macros {
		text = append(append(text, m...), 0)
	}
	return TopicRecord{Type: 0x02, LinkData1: ld1, LinkData2: text}
}
