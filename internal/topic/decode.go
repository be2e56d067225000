package topic

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Record is one TOPICLINK and its data as stored.
type Record struct {
	Pos       uint32
	Link      format.TopicLink
	LinkData1 []byte
	// LinkData2 is the stored text, before phrase expansion.
	LinkData2 []byte
}

// ReadRecord reads the record at pos. Errors are attributed to the block
// they occur in.
func (d *Decoder) ReadRecord(pos uint32) (*Record, error) {
	block, _ := d.split(pos)
	hdr, err := d.readAt(pos, format.TopicLinkSize)
	if err != nil {
		return nil, err
	}
	link, err := format.ParseTopicLink(hdr)
	if err != nil {
		return nil, &blockErr{block, err}
	}
	if int64(link.BlockSize) > int64(d.nblocks)*int64(d.stride) {
		return nil, &blockErr{block, fmt.Errorf("record at 0x%X: BlockSize %d exceeds |TOPIC: %w", pos, link.BlockSize, format.ErrCorruptHeader)}
	}
	raw, err := d.readAt(pos, int(link.BlockSize))
	if err != nil {
		return nil, err
	}
	return &Record{
		Pos:       pos,
		Link:      link,
		LinkData1: raw[format.TopicLinkSize:link.DataLen1:link.DataLen1],
		LinkData2: raw[link.DataLen1:],
	}, nil
}

// next resolves the record's NextBlock. end is set for the last record.
func (d *Decoder) next(r *Record) (next uint32, end bool, err error) {
	nb := r.Link.NextBlock
	if nb == -1 {
		return 0, true, nil
	}
	if d.cfg.Version.Before31() {
		if nb <= 0 {
			return 0, false, fmt.Errorf("record at 0x%X: relative NextBlock %d: %w", r.Pos, nb, format.ErrCorruptHeader)
		}
		next = d.advance(r.Pos, int(nb))
	} else {
		next = uint32(nb)
	}
	if d.atEnd(next) {
		return 0, true, nil
	}
	if next <= r.Pos {
		return 0, false, fmt.Errorf("record at 0x%X: NextBlock 0x%X does not move forward: %w", r.Pos, next, format.ErrCorruptHeader)
	}
	if b, off := d.split(next); b >= d.nblocks || off < 0 {
		return 0, false, fmt.Errorf("record at 0x%X: NextBlock 0x%X outside |TOPIC: %w", r.Pos, next, format.ErrCorruptHeader)
	}
	return next, false, nil
}

func (d *Decoder) prev(r *Record) uint32 {
	pb := r.Link.PrevBlock
	if pb == -1 {
		return types.TopicNone
	}
	if !d.cfg.Version.Before31() {
		return uint32(pb)
	}
	if p, ok := d.retreat(r.Pos, int(pb)); ok && pb > 0 {
		return p
	}
	return types.TopicNone
}

// header builds the public view of a record header.
func (d *Decoder) header(r *Record) types.TopicBlockHeader {
	next, end, err := d.next(r)
	if end || err != nil {
		next = types.TopicNone
	}
	return types.TopicBlockHeader{
		Pos:              r.Pos,
		Prev:             d.prev(r),
		Next:             next,
		RecordType:       types.RecordType(r.Link.RecordType),
		BlockSize:        uint32(r.Link.BlockSize),
		DataLength:       uint32(r.Link.LinkData1Len()) + uint32(r.Link.DataLen2),
		LinkData1Length:  uint32(r.Link.LinkData1Len()),
		PhraseCompressed: r.Link.PhraseCompressed(),
	}
}

// expand returns the text stream: LinkData2 as stored, or phrase expanded
// when DataLen2 exceeds the stored length.
func (d *Decoder) expand(r *Record) ([]byte, error) {
	want := int(r.Link.DataLen2)
	if want <= len(r.LinkData2) {
		return r.LinkData2[:want:want], nil
	}
	if d.phrases == nil || !(d.cfg.Compression.Has(types.CompressPhrase) || d.cfg.Compression.Has(types.CompressHall)) {
		return nil, fmt.Errorf("record at 0x%X: text expands to %d bytes without a phrase table: %w", r.Pos, want, format.ErrDecompression)
	}
	t, err := d.phrases()
	if err != nil {
		return nil, fmt.Errorf("record at 0x%X: phrase table: %w", r.Pos, err)
	}
	out, err := t.Expand(r.LinkData2, want)
	if err != nil {
		return nil, fmt.Errorf("record at 0x%X: %w", r.Pos, err)
	}
	return out, nil
}

// Decode runs the decompression, split and interleave stages over one
// record.
func (d *Decoder) Decode(r *Record) (*types.ParsedTopic, error) {
	h := d.header(r)

	text, err := d.expand(r)
	if err != nil {
		return nil, err
	}
	flat := make([]byte, 0, len(r.LinkData1)+len(text))
	flat = append(append(flat, r.LinkData1...), text...)
	if uint32(len(flat)) != h.DataLength {
		return nil, fmt.Errorf("record at 0x%X: decompressed %d bytes, header declares %d: %w", r.Pos, len(flat), h.DataLength, format.ErrDecompression)
	}

	if int(h.LinkData1Length) > len(flat) {
		return nil, fmt.Errorf("record at 0x%X: LinkData1 length %d exceeds %d bytes: %w", r.Pos, h.LinkData1Length, len(flat), format.ErrCorruptData)
	}
	cmds, text := flat[:h.LinkData1Length:h.LinkData1Length], flat[h.LinkData1Length:]

	switch h.RecordType {
	case types.RecordTopicHeader:
		return d.topicHeader(h, cmds, text)
	case types.RecordDisplay30, types.RecordDisplay, types.RecordTable:
		x := &interleaver{d: d, rt: h.RecordType, text: text}
		links, table, err := x.run(cmds)
		if err != nil {
			return nil, fmt.Errorf("record at 0x%X: %w", r.Pos, err)
		}
		pt, err := types.NewParsedTopic(h, text, links)
		if err != nil {
			return nil, err
		}
		pt.Table = table
		return pt, nil
	default:
		d.log.Debug("topic record of unknown type", "pos", r.Pos, "type", h.RecordType)
		return types.NewParsedTopic(h, text, nil)
	}
}

// topicHeader decodes a 0x02 record: the TOPICHEADER in LinkData1, the
// title and entry macros as NUL separated strings in the text.
func (d *Decoder) topicHeader(h types.TopicBlockHeader, cmds, text []byte) (*types.ParsedTopic, error) {
	th, err := format.ParseTopicHeader(cmds, d.cfg.Version.Before31())
	if err != nil {
		return nil, fmt.Errorf("record at 0x%X: %w", h.Pos, errCorrupt(err))
	}
	pt, err := types.NewParsedTopic(h, text, nil)
	if err != nil {
		return nil, err
	}
	pt.TopicHeader = &types.TopicHeader{
		BlockSize: th.BlockSize,
		BrowseBck: th.BrowseBck,
		BrowseFor: th.BrowseFor,
		TopicNum:  th.TopicNum,
		NonScroll: th.NonScroll,
		Scroll:    th.Scroll,
		NextTopic: th.NextTopic,
	}
	parts := bytes.Split(text, []byte{0})
	pt.Title = parts[0]
	for _, m := range parts[1:] {
		if len(m) > 0 {
			pt.Macros = append(pt.Macros, m)
		}
	}
	return pt, nil
}
