package types

import (
	"fmt"
	"sort"
)

// RecordType is the TOPICLINK record type.
type RecordType uint8

const (
	RecordDisplay30   RecordType = 0x01 // 3.0 paragraph
	RecordTopicHeader RecordType = 0x02 // topic header: title and entry macros
	RecordDisplay     RecordType = 0x20 // 3.1+ paragraph
	RecordTable       RecordType = 0x23 // 3.1+ table
)

func (r RecordType) String() string {
	switch r {
	case RecordDisplay30:
		return "display30"
	case RecordTopicHeader:
		return "topic-header"
	case RecordDisplay:
		return "display"
	case RecordTable:
		return "table"
	default:
		return fmt.Sprintf("record(0x%02X)", uint8(r))
	}
}

// IsDisplay reports whether the record carries paragraph text.
func (r RecordType) IsDisplay() bool {
	return r == RecordDisplay30 || r == RecordDisplay || r == RecordTable
}

// TopicNone marks an absent TOPICPOS or TOPICOFFSET.
const TopicNone = 0xFFFFFFFF

// TopicBlockHeader describes one topic record as stored.
type TopicBlockHeader struct {
	// Pos is the TOPICPOS of the record.
	Pos uint32
	// Prev and Next are absolute TOPICPOS values; Next is TopicNone after the
	// last record.
	Prev uint32
	Next uint32

	RecordType RecordType
	// BlockSize is the stored size of the record, TOPICLINK included.
	BlockSize uint32
	// DataLength is LinkData1Length plus the expanded text length.
	DataLength      uint32
	LinkData1Length uint32
	// PhraseCompressed is set when the text was phrase expanded.
	PhraseCompressed bool
}

// TopicHeader is the 0x02 record payload. Fields a 3.0 file lacks are
// TopicNone.
type TopicHeader struct {
	BlockSize uint32
	BrowseBck uint32
	BrowseFor uint32
	TopicNum  uint32
	NonScroll uint32
	Scroll    uint32
	NextTopic uint32
}

// LinkKind tags a LinkRecord.
type LinkKind uint8

const (
	LinkFont           LinkKind = iota // 0x80
	LinkLineBreak                      // 0x81
	LinkParagraphEnd                   // 0x82
	LinkTab                            // 0x83
	LinkNonBreakSpace                  // 0x8B
	LinkNonBreakHyphen                 // 0x8C
	LinkField                          // 0x20
	LinkDType                          // 0x21
	LinkPicture                        // 0x86, 0x87, 0x88
	LinkHotspotEnd                     // 0x89
	LinkMacro                          // 0xC8, 0xCC
	LinkJump                           // 0xE1, 0xE3, 0xE7, 0xEB, 0xEF
	LinkPopup                          // 0xE0, 0xE2, 0xE6, 0xEA, 0xEE
	LinkEnd                            // 0xFF

	// Structural records: anchored at the current text position without
	// consuming text.
	LinkParagraph
	LinkCell
	LinkTableLayout
)

var linkKindNames = [...]string{
	LinkFont:           "font",
	LinkLineBreak:      "line-break",
	LinkParagraphEnd:   "paragraph-end",
	LinkTab:            "tab",
	LinkNonBreakSpace:  "nbsp",
	LinkNonBreakHyphen: "nb-hyphen",
	LinkField:          "field",
	LinkDType:          "dtype",
	LinkPicture:        "picture",
	LinkHotspotEnd:     "hotspot-end",
	LinkMacro:          "macro",
	LinkJump:           "jump",
	LinkPopup:          "popup",
	LinkEnd:            "end",
	LinkParagraph:      "paragraph",
	LinkCell:           "cell",
	LinkTableLayout:    "table-layout",
}

func (k LinkKind) String() string {
	if int(k) < len(linkKindNames) {
		return linkKindNames[k]
	}
	return fmt.Sprintf("LinkKind(%d)", uint8(k))
}

// Structural reports whether the kind is a layout record rather than a
// command byte.
func (k LinkKind) Structural() bool { return k >= LinkParagraph }

// LinkRecord is one command or layout record anchored in the text stream.
// Only the payload field matching Kind is set.
type LinkRecord struct {
	Kind LinkKind
	// Anchor is the byte offset in the text stream the record applies at.
	Anchor int
	// Code is the command byte; zero for structural records.
	Code byte

	Font  int16 // LinkFont
	Value int32 // LinkField, LinkDType

	Picture   *Picture     // LinkPicture
	Jump      *Jump        // LinkJump, LinkPopup
	Macro     []byte       // LinkMacro
	Paragraph *Paragraph   // LinkParagraph, LinkCell
	Column    int16        // LinkCell
	Table     *TableLayout // LinkTableLayout
}

// PicturePlacement is where an embedded picture sits.
type PicturePlacement uint8

const (
	PictureInline PicturePlacement = iota // bmc
	PictureLeft                           // bml
	PictureRight                          // bmr
)

func (p PicturePlacement) String() string {
	switch p {
	case PictureInline:
		return "bmc"
	case PictureLeft:
		return "bml"
	case PictureRight:
		return "bmr"
	default:
		return "unknown"
	}
}

// Picture is an embedded picture reference. The payload is opaque.
type Picture struct {
	Placement PicturePlacement
	Type      uint8
	// Size is the declared payload length.
	Size     uint32
	Hotspots uint16
	// DataOffset is the offset of the payload within LinkData1.
	DataOffset int
	Data       []byte
	// Bitmap names the |bm<N> internal file for reference types; empty
	// when the picture is embedded.
	Bitmap string
	// Missing is set when Bitmap is not in the directory.
	Missing bool
}

// Jump is a hotspot target.
type Jump struct {
	Popup bool
	// ByOffset is set for 3.0 jumps whose Target is a TOPICOFFSET; Target is
	// otherwise a context hash.
	ByOffset bool
	Target   uint32
	// Type is the 0xEA..0xEF type byte: 0 same file, 1 window number,
	// 4 external file, 6 external file and window name.
	Type       uint8
	Window     int // window number for type 1, -1 otherwise
	WindowName []byte
	File       []byte
	// External is set when File names another help file. Unresolved
	// further says that file is not part of this session's directory.
	External   bool
	Unresolved bool
}

// Alignment of a paragraph.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// Paragraph formatting bits.
const (
	ParaUnknownLong     = 0x0001
	ParaSpacingAbove    = 0x0002
	ParaSpacingBelow    = 0x0004
	ParaSpacingLines    = 0x0008
	ParaLeftIndent      = 0x0010
	ParaRightIndent     = 0x0020
	ParaFirstLineIndent = 0x0040
	ParaBorder          = 0x0100
	ParaTabs            = 0x0200
	ParaRightAlign      = 0x0400
	ParaCenterAlign     = 0x0800
	ParaKeepTogether    = 0x1000
	ParaNoWrap          = 0x2000
)

// Paragraph is the formatting header that opens each paragraph (or table
// cell) of a display record.
type Paragraph struct {
	ID   uint16
	Bits uint16
	// Extra is the undocumented long that ParaUnknownLong announces.
	Extra int32

	SpacingAbove    int16
	SpacingBelow    int16
	SpacingLines    int16
	LeftIndent      int16
	RightIndent     int16
	FirstLineIndent int16
	Alignment       Alignment

	Border *Border
	Tabs   []TabStop
}

// Border describes paragraph borders.
type Border struct {
	Flags uint8 // 0x01 box, 0x02 top, 0x04 left, 0x08 bottom, 0x10 right, 0x20 thick, 0x40 double
	Width int16
}

// TabStop is one tab position. Type is 0 left, 1 right, 2 center.
type TabStop struct {
	Position uint16
	Type     uint16
}

// TableLayout is the column layout of a 0x23 record.
type TableLayout struct {
	Columns  uint8
	Type     uint8
	MinWidth int16 // types 0 and 2 only
	Cells    []ColumnLayout
}

// ColumnLayout is the gap and width of one table column.
type ColumnLayout struct {
	Gap   int16
	Width int16
}

// Span is a slice of the text stream and the records anchored at its start.
type Span struct {
	Start int
	Text  []byte
	Links []LinkRecord
}

// ParsedTopic is one decoded topic record.
type ParsedTopic struct {
	Header TopicBlockHeader

	// Offset is the TOPICOFFSET of the record; NextOffset is the
	// TOPICOFFSET of the following record in chain order.
	Offset     uint32
	NextOffset uint32

	// Text is the whole text stream; Spans partition it.
	Text  []byte
	Spans []Span

	// Topic header records only.
	TopicHeader *TopicHeader
	Title       []byte
	Macros      [][]byte

	// Table records only.
	Table *TableLayout
}

// NewParsedTopic validates anchors and slices text into spans. Anchors must
// be non-decreasing and lie in [0, len(text)]. Text is cut at every distinct
// anchor; records sharing an anchor keep their order.
func NewParsedTopic(h TopicBlockHeader, text []byte, links []LinkRecord) (*ParsedTopic, error) {
	if h.DataLength != h.LinkData1Length+uint32(len(text)) {
		return nil, &Error{Kind: ErrKindCorruptData, Offset: int64(h.Pos),
			Msg: fmt.Sprintf("data length %d != %d + %d", h.DataLength, h.LinkData1Length, len(text))}
	}
	last := 0
	for i, l := range links {
		if l.Anchor < last || l.Anchor > len(text) {
			return nil, &Error{Kind: ErrKindCorruptData, Offset: int64(h.Pos),
				Msg: fmt.Sprintf("link %d (%s) anchored at %d after %d in %d bytes", i, l.Kind, l.Anchor, last, len(text))}
		}
		last = l.Anchor
	}

	spans := make([]Span, 0, 1+len(links))
	spans = append(spans, Span{Start: 0})
	for _, l := range links {
		cur := &spans[len(spans)-1]
		if l.Anchor != cur.Start {
			spans = append(spans, Span{Start: l.Anchor})
			cur = &spans[len(spans)-1]
		}
		cur.Links = append(cur.Links, l)
	}
	for i := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].Start
		}
		spans[i].Text = text[spans[i].Start:end:end]
	}

	return &ParsedTopic{Header: h, Text: text, Spans: spans}, nil
}

// Links returns every record in anchor order.
func (p *ParsedTopic) Links() []LinkRecord {
	var out []LinkRecord
	for _, s := range p.Spans {
		out = append(out, s.Links...)
	}
	return out
}

// FindLink returns the first record of kind k, if any.
func (p *ParsedTopic) FindLink(k LinkKind) (LinkRecord, bool) {
	for _, s := range p.Spans {
		for _, l := range s.Links {
			if l.Kind == k {
				return l, true
			}
		}
	}
	return LinkRecord{}, false
}

// SpanAt returns the span covering text offset off.
func (p *ParsedTopic) SpanAt(off int) (Span, bool) {
	if off < 0 || off > len(p.Text) || len(p.Spans) == 0 {
		return Span{}, false
	}
	i := sort.Search(len(p.Spans), func(i int) bool { return p.Spans[i].Start > off }) - 1
	if i < 0 {
		return Span{}, false
	}
	return p.Spans[i], true
}
