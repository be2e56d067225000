package hlpbuild

import (
	"encoding/binary"

	"github.com/joshuapare/hlpkit/internal/buf"
)

// Para describes a paragraph header. Bits for the optional fields are
// derived from the fields that are set; Bits adds alignment and other flags.
type Para struct {
	ID    uint16
	Bits  uint16
	Extra int32

	SpacingAbove, SpacingBelow, SpacingLines int16
	LeftIndent, RightIndent, FirstLineIndent int16

	Border      bool
	BorderFlags uint8
	BorderWidth int16

	Tabs []Tab
}

// Tab is a tab stop; Type 0 is stored without the type word.
type Tab struct {
	Position uint16
	Type     uint16
}

func (p Para) encode() []byte {
	bits := p.Bits
	fields := []struct {
		bit uint16
		v   int16
	}{
		{0x0002, p.SpacingAbove},
		{0x0004, p.SpacingBelow},
		{0x0008, p.SpacingLines},
		{0x0010, p.LeftIndent},
		{0x0020, p.RightIndent},
		{0x0040, p.FirstLineIndent},
	}
	if p.Extra != 0 {
		bits |= 0x0001
	}
	for _, f := range fields {
		if f.v != 0 {
			bits |= f.bit
		}
	}
	if p.Border {
		bits |= 0x0100
	}
	if len(p.Tabs) > 0 {
		bits |= 0x0200
	}

	out := []byte{0x00, 0x80}
	out = binary.LittleEndian.AppendUint16(out, p.ID)
	out = binary.LittleEndian.AppendUint16(out, bits)
	if bits&0x0001 != 0 {
		out = buf.AppendCompressedI32(out, p.Extra)
	}
	for _, f := range fields {
		if bits&f.bit != 0 {
			out = buf.AppendCompressedI16(out, f.v)
		}
	}
	if p.Border {
		out = append(out, p.BorderFlags)
		out = binary.LittleEndian.AppendUint16(out, uint16(p.BorderWidth))
	}
	if len(p.Tabs) > 0 {
		out = buf.AppendCompressedI16(out, int16(len(p.Tabs)))
		for _, t := range p.Tabs {
			if t.Type != 0 {
				out = buf.AppendCompressedU16(out, t.Position|0x4000)
				out = buf.AppendCompressedU16(out, t.Type)
			} else {
				out = buf.AppendCompressedU16(out, t.Position)
			}
		}
	}
	return out
}

// Display builds the LinkData1 and text of a display or table record.
// Text accumulates into the pending chunk; each Cmd closes the chunk with a
// NUL and appends the command bytes.
type Display struct {
	typ     byte
	layout  []byte
	body    []byte
	text    []byte
	pending []byte
}

// NewDisplay starts a 0x20 record, or a 0x01 record for 3.0 files.
func NewDisplay(before31 bool) *Display {
	if before31 {
		return &Display{typ: 0x01}
	}
	return &Display{typ: 0x20}
}

// Column is a table column layout.
type Column struct{ Gap, Width int16 }

// NewTable starts a 0x23 record.
func NewTable(tableType uint8, minWidth int16, cols ...Column) *Display {
	l := []byte{byte(len(cols)), tableType}
	if tableType == 0 || tableType == 2 {
		l = binary.LittleEndian.AppendUint16(l, uint16(minWidth))
	}
	for _, c := range cols {
		l = binary.LittleEndian.AppendUint16(l, uint16(c.Gap))
		l = binary.LittleEndian.AppendUint16(l, uint16(c.Width))
	}
	return &Display{typ: 0x23, layout: l}
}

// Paragraph writes a paragraph header.
func (d *Display) Paragraph(p Para) *Display {
	d.body = append(d.body, p.encode()...)
	return d
}

// Cell opens a table cell in column col.
func (d *Display) Cell(col int16, p Para) *Display {
	d.body = binary.LittleEndian.AppendUint16(d.body, uint16(col))
	d.body = append(d.body, 0, 0, 0)
	return d.Paragraph(p)
}

// EndTable writes the -1 column that closes a table.
func (d *Display) EndTable() *Display {
	d.body = binary.LittleEndian.AppendUint16(d.body, 0xFFFF)
	return d
}

// Text appends to the pending chunk.
func (d *Display) Text(s string) *Display {
	d.pending = append(d.pending, s...)
	return d
}

// Cmd closes the pending chunk and appends a command.
func (d *Display) Cmd(cmd []byte) *Display {
	d.text = append(append(d.text, d.pending...), 0)
	d.pending = d.pending[:0]
	d.body = append(d.body, cmd...)
	return d
}

// End closes the command list with 0xFF.
func (d *Display) End() *Display { return d.Cmd([]byte{0xFF}) }

// TextLen is the length of the text written so far.
func (d *Display) TextLen() int { return len(d.text) }

// Record returns the finished record.
func (d *Display) Record() TopicRecord {
	ld1 := buf.AppendCompressedU32(nil, uint32(len(d.text)))
	ld1 = buf.AppendCompressedU16(ld1, uint16(len(d.text)))
	ld1 = append(ld1, d.layout...)
	ld1 = append(ld1, d.body...)
	return TopicRecord{Type: d.typ, LinkData1: ld1, LinkData2: append([]byte(nil), d.text...)}
}

// Commands.

func Font(n int16) []byte { return binary.LittleEndian.AppendUint16([]byte{0x80}, uint16(n)) }

func LineBreak() []byte    { return []byte{0x81} }
func ParagraphEnd() []byte { return []byte{0x82} }
func TabCmd() []byte       { return []byte{0x83} }
func HotspotEnd() []byte   { return []byte{0x89} }

// Field is the 0x20 command.
func Field(v int32) []byte { return binary.LittleEndian.AppendUint32([]byte{0x20}, uint32(v)) }

// DType is the 0x21 command.
func DType(v int16) []byte { return binary.LittleEndian.AppendUint16([]byte{0x21}, uint16(v)) }

// JumpHash is a same-file jump or popup (0xE2, 0xE3, 0xE6, 0xE7).
func JumpHash(code byte, hash uint32) []byte {
	return binary.LittleEndian.AppendUint32([]byte{code}, hash)
}

// JumpOffset30 is a 3.0 jump or popup by TOPICOFFSET (0xE0, 0xE1).
func JumpOffset30(code byte, offset uint32) []byte {
	return binary.LittleEndian.AppendUint32([]byte{code}, offset)
}

// JumpExt is a typed jump (0xEA, 0xEB, 0xEE, 0xEF). window is used for type
// 1; file for types 4 and 6; windowName for type 6.
func JumpExt(code, typ byte, hash uint32, window byte, file, windowName string) []byte {
	body := binary.LittleEndian.AppendUint32([]byte{typ}, hash)
	switch typ {
	case 1:
		body = append(body, window)
	case 4:
		body = append(append(body, file...), 0)
	case 6:
		body = append(append(body, file...), 0)
		body = append(append(body, windowName...), 0)
	}
	out := binary.LittleEndian.AppendUint16([]byte{code}, uint16(len(body)))
	return append(out, body...)
}

// Macro is a 0xC8 or 0xCC macro hotspot.
func Macro(code byte, m string) []byte {
	out := binary.LittleEndian.AppendUint16([]byte{code}, uint16(len(m)+1))
	return append(append(out, m...), 0)
}

// Picture is a 0x86..0x88 picture. Types 3 and 0x22 reference |bm<number>.
func Picture(code, typ byte, hotspots uint16, data []byte) []byte {
	out := []byte{code, typ}
	out = buf.AppendCompressedI32(out, int32(len(data)))
	if typ == 0x22 {
		out = buf.AppendCompressedU16(out, hotspots)
	}
	return append(out, data...)
}

// PictureRef returns the payload of a by-reference picture naming bitmap n.
func PictureRef(n int16) []byte {
	return binary.LittleEndian.AppendUint16([]byte{0x00, 0x00}, uint16(n))
}
