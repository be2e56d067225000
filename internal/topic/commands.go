package topic

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Command bytes of the LinkData1 command list.
const (
	cmdField        = 0x20
	cmdDType        = 0x21
	cmdFont         = 0x80
	cmdLineBreak    = 0x81
	cmdParagraphEnd = 0x82
	cmdTab          = 0x83
	cmdPictureC     = 0x86
	cmdPictureL     = 0x87
	cmdPictureR     = 0x88
	cmdHotspotEnd   = 0x89
	cmdNonBreakSp   = 0x8B
	cmdNonBreakHy   = 0x8C
	cmdMacro        = 0xC8
	cmdMacroNoFont  = 0xCC
	cmdPopup30      = 0xE0
	cmdJump30       = 0xE1
	cmdPopup        = 0xE2
	cmdJump         = 0xE3
	cmdPopupNoFont  = 0xE6
	cmdJumpNoFont   = 0xE7
	cmdPopupExt     = 0xEA
	cmdJumpExt      = 0xEB
	cmdPopupExtNF   = 0xEE
	cmdJumpExtNF    = 0xEF
	cmdEnd          = 0xFF
)

// Picture types whose payload names a |bm<N> file.
const (
	pictureByRef        = 0x03
	pictureHotspotByRef = 0x22
)

var errUnknownCommand = errors.New("unknown command")

// errCorrupt maps decoding failures of LinkData1 onto ErrCorruptData.
func errCorrupt(err error) error {
	if errors.Is(err, format.ErrCorruptData) {
		return err
	}
	return fmt.Errorf("%v: %w", err, format.ErrCorruptData)
}

// interleaver walks the command list of a display or table record and
// anchors every record in the text stream. Each command byte consumes the
// next NUL terminated chunk of text and applies right after it; layout
// records apply at the current position.
type interleaver struct {
	d     *Decoder
	rt    types.RecordType
	c     *buf.Cursor
	text  []byte
	at    int
	links []types.LinkRecord
}

func (x *interleaver) run(cmds []byte) ([]types.LinkRecord, *types.TableLayout, error) {
	x.c = buf.NewCursor(cmds)

	if _, _, err := x.c.CompressedU32(); err != nil {
		return nil, nil, errCorrupt(fmt.Errorf("TopicSize: %w", err))
	}
	if _, _, err := x.c.CompressedU16(); err != nil {
		return nil, nil, errCorrupt(fmt.Errorf("TopicLength: %w", err))
	}

	var table *types.TableLayout
	if x.rt == types.RecordTable {
		var err error
		if table, err = x.tableLayout(); err != nil {
			return nil, nil, err
		}
		x.links = append(x.links, types.LinkRecord{Kind: types.LinkTableLayout, Anchor: x.at, Table: table})
	}

	for {
		rec := types.LinkRecord{Kind: types.LinkParagraph}
		if table != nil {
			col, err := x.c.I16()
			if err != nil {
				return nil, nil, errCorrupt(fmt.Errorf("cell column: %w", err))
			}
			if col == -1 {
				break
			}
			if err := x.c.Skip(3); err != nil {
				return nil, nil, errCorrupt(fmt.Errorf("cell header: %w", err))
			}
			rec = types.LinkRecord{Kind: types.LinkCell, Column: col}
		}
		p, err := x.paragraph()
		if err != nil {
			return nil, nil, err
		}
		rec.Anchor, rec.Paragraph = x.at, p
		x.links = append(x.links, rec)

		if err := x.commands(); err != nil {
			return nil, nil, err
		}
		if table == nil {
			break
		}
	}
	return x.links, table, nil
}

func (x *interleaver) tableLayout() (*types.TableLayout, error) {
	cols, err := x.c.U8()
	if err != nil {
		return nil, errCorrupt(fmt.Errorf("table columns: %w", err))
	}
	typ, err := x.c.U8()
	if err != nil {
		return nil, errCorrupt(fmt.Errorf("table type: %w", err))
	}
	t := &types.TableLayout{Columns: cols, Type: typ, Cells: make([]types.ColumnLayout, cols)}
	if typ == 0 || typ == 2 {
		if t.MinWidth, err = x.c.I16(); err != nil {
			return nil, errCorrupt(fmt.Errorf("table min width: %w", err))
		}
	}
	for i := range t.Cells {
		gap, err := x.c.I16()
		if err != nil {
			return nil, errCorrupt(fmt.Errorf("column %d: %w", i, err))
		}
		width, err := x.c.I16()
		if err != nil {
			return nil, errCorrupt(fmt.Errorf("column %d: %w", i, err))
		}
		t.Cells[i] = types.ColumnLayout{Gap: gap, Width: width}
	}
	return t, nil
}

// paragraph reads the paragraph header: an unknown byte, a signed byte, the
// paragraph id, the formatting bits and the fields the bits announce.
func (x *interleaver) paragraph() (*types.Paragraph, error) {
	if err := x.c.Skip(2); err != nil {
		return nil, errCorrupt(fmt.Errorf("paragraph header: %w", err))
	}
	id, err := x.c.U16()
	if err != nil {
		return nil, errCorrupt(fmt.Errorf("paragraph id: %w", err))
	}
	bits, err := x.c.U16()
	if err != nil {
		return nil, errCorrupt(fmt.Errorf("paragraph bits: %w", err))
	}
	p := &types.Paragraph{ID: id, Bits: bits}

	if bits&types.ParaUnknownLong != 0 {
		if p.Extra, _, err = x.c.CompressedI32(); err != nil {
			return nil, errCorrupt(err)
		}
	}
	for _, f := range []struct {
		bit uint16
		dst *int16
	}{
		{types.ParaSpacingAbove, &p.SpacingAbove},
		{types.ParaSpacingBelow, &p.SpacingBelow},
		{types.ParaSpacingLines, &p.SpacingLines},
		{types.ParaLeftIndent, &p.LeftIndent},
		{types.ParaRightIndent, &p.RightIndent},
		{types.ParaFirstLineIndent, &p.FirstLineIndent},
	} {
		if bits&f.bit == 0 {
			continue
		}
		if *f.dst, _, err = x.c.CompressedI16(); err != nil {
			return nil, errCorrupt(err)
		}
	}
	if bits&types.ParaBorder != 0 {
		flags, err := x.c.U8()
		if err != nil {
			return nil, errCorrupt(fmt.Errorf("border: %w", err))
		}
		width, err := x.c.I16()
		if err != nil {
			return nil, errCorrupt(fmt.Errorf("border: %w", err))
		}
		p.Border = &types.Border{Flags: flags, Width: width}
	}
	if bits&types.ParaTabs != 0 {
		n, _, err := x.c.CompressedI16()
		if err != nil {
			return nil, errCorrupt(fmt.Errorf("tab count: %w", err))
		}
		if n < 0 || int(n) > x.c.Remaining() {
			return nil, errCorrupt(fmt.Errorf("tab count %d", n))
		}
		p.Tabs = make([]types.TabStop, n)
		for i := range p.Tabs {
			tab, _, err := x.c.CompressedU16()
			if err != nil {
				return nil, errCorrupt(fmt.Errorf("tab %d: %w", i, err))
			}
			p.Tabs[i].Position = tab & 0x3FFF
			if tab&0x4000 != 0 {
				if p.Tabs[i].Type, _, err = x.c.CompressedU16(); err != nil {
					return nil, errCorrupt(fmt.Errorf("tab %d type: %w", i, err))
				}
			}
		}
	}
	switch {
	case bits&types.ParaCenterAlign != 0:
		p.Alignment = types.AlignCenter
	case bits&types.ParaRightAlign != 0:
		p.Alignment = types.AlignRight
	}
	return p, nil
}

// chunk consumes the next NUL terminated chunk of text and returns the
// position after it. A missing terminator consumes the rest of the text.
func (x *interleaver) chunk() int {
	if x.at >= len(x.text) {
		return len(x.text)
	}
	if i := bytes.IndexByte(x.text[x.at:], 0); i >= 0 {
		x.at += i + 1
	} else {
		x.at = len(x.text)
	}
	return x.at
}

// commands reads command bytes up to and including 0xFF.
func (x *interleaver) commands() error {
	for {
		start := x.c.Offset()
		code, err := x.c.U8()
		if err != nil {
			return errCorrupt(fmt.Errorf("command list not terminated: %w", err))
		}
		rec := types.LinkRecord{Code: code, Anchor: x.chunk()}
		if err := x.command(&rec); err != nil {
			return errCorrupt(fmt.Errorf("command 0x%02X at LinkData1 offset %d: %w", code, start, err))
		}
		x.links = append(x.links, rec)
		if code == cmdEnd {
			return nil
		}
	}
}

func (x *interleaver) command(rec *types.LinkRecord) error {
	var err error
	switch rec.Code {
	case cmdField:
		rec.Kind = types.LinkField
		rec.Value, err = x.c.I32()
	case cmdDType:
		rec.Kind = types.LinkDType
		var v int16
		v, err = x.c.I16()
		rec.Value = int32(v)
	case cmdFont:
		rec.Kind = types.LinkFont
		rec.Font, err = x.c.I16()
	case cmdLineBreak:
		rec.Kind = types.LinkLineBreak
	case cmdParagraphEnd:
		rec.Kind = types.LinkParagraphEnd
	case cmdTab:
		rec.Kind = types.LinkTab
	case cmdHotspotEnd:
		rec.Kind = types.LinkHotspotEnd
	case cmdNonBreakSp:
		rec.Kind = types.LinkNonBreakSpace
	case cmdNonBreakHy:
		rec.Kind = types.LinkNonBreakHyphen
	case cmdEnd:
		rec.Kind = types.LinkEnd
	case cmdPictureC, cmdPictureL, cmdPictureR:
		rec.Kind = types.LinkPicture
		rec.Picture, err = x.picture(types.PicturePlacement(rec.Code - cmdPictureC))
	case cmdMacro, cmdMacroNoFont:
		rec.Kind = types.LinkMacro
		rec.Macro, err = x.macro()
	case cmdPopup30, cmdJump30:
		var off int32
		off, err = x.c.I32()
		rec.Jump = &types.Jump{ByOffset: true, Target: uint32(off), Window: -1}
	case cmdPopup, cmdJump, cmdPopupNoFont, cmdJumpNoFont:
		var h uint32
		h, err = x.c.U32()
		rec.Jump = &types.Jump{Target: h, Window: -1}
	case cmdPopupExt, cmdJumpExt, cmdPopupExtNF, cmdJumpExtNF:
		rec.Jump, err = x.externalJump()
	default:
		return errUnknownCommand
	}
	if rec.Jump != nil {
		rec.Jump.Popup = rec.Code&1 == 0
		rec.Kind = types.LinkJump
		if rec.Jump.Popup {
			rec.Kind = types.LinkPopup
		}
	}
	return err
}

func (x *interleaver) macro() ([]byte, error) {
	n, err := x.c.I16()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("macro length %d", n)
	}
	m, err := x.c.Next(int(n))
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(m, "\x00"), nil
}

func (x *interleaver) picture(placement types.PicturePlacement) (*types.Picture, error) {
	typ, err := x.c.U8()
	if err != nil {
		return nil, err
	}
	size, _, err := x.c.CompressedI32()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("picture size %d", size)
	}
	p := &types.Picture{Placement: placement, Type: typ, Size: uint32(size)}
	if typ == pictureHotspotByRef {
		if p.Hotspots, _, err = x.c.CompressedU16(); err != nil {
			return nil, err
		}
	}
	p.DataOffset = x.c.Offset()
	if p.Data, err = x.c.Next(int(size)); err != nil {
		return nil, err
	}
	if (typ == pictureByRef || typ == pictureHotspotByRef) && len(p.Data) >= 4 {
		p.Bitmap = fmt.Sprintf("|bm%d", buf.I16LE(p.Data[2:]))
		p.Missing = !x.exists(p.Bitmap)
	}
	return p, nil
}

// externalJump reads the sized 0xEA..0xEF payload: type byte, context hash
// and the window or file names the type calls for.
func (x *interleaver) externalJump() (*types.Jump, error) {
	n, err := x.c.I16()
	if err != nil {
		return nil, err
	}
	if n < 5 {
		return nil, fmt.Errorf("jump payload of %d bytes", n)
	}
	body, err := x.c.Next(int(n))
	if err != nil {
		return nil, err
	}
	c := buf.NewCursor(body)
	typ, _ := c.U8()
	hash, _ := c.U32()
	j := &types.Jump{Type: typ, Target: hash, Window: -1}
	switch typ {
	case 1:
		w, err := c.U8()
		if err != nil {
			return nil, err
		}
		j.Window = int(w)
	case 4, 6:
		if j.File, err = c.CString(); err != nil {
			return nil, err
		}
		if typ == 6 {
			if j.WindowName, err = c.CString(); err != nil {
				return nil, err
			}
		}
		if len(j.File) > 0 {
			j.External = true
			j.Unresolved = !x.exists(string(j.File))
		}
	}
	return j, nil
}

// exists looks a name up in the session directory, with and without the
// leading pipe.
func (x *interleaver) exists(name string) bool {
	if x.d.files == nil {
		return false
	}
	if _, ok := x.d.files.LookupFold(name); ok {
		return true
	}
	if len(name) > 0 && name[0] != '|' {
		_, ok := x.d.files.LookupFold("|" + name)
		return ok
	}
	return false
}
