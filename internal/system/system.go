// Package system decodes the |SYSTEM internal file and derives the file
// layout configuration from it.
package system

import (
	"bytes"
	"fmt"
	"time"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/internal/textenc"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Magic opens every |SYSTEM file.
const Magic = 0x036C

// HeaderSize is the fixed header: magic, minor, major, generation date and
// flags.
const HeaderSize = 12

// Minor versions written by the help compilers.
const (
	Minor30  = 15
	Minor31  = 21
	Minor40  = 33
	minorMax = 16 // last minor with the 3.0 layout
)

// Record types.
const (
	RecTitle     = 1
	RecCopyright = 2
	RecContents  = 3
	RecConfig    = 4
	RecIcon      = 5
	RecWindow    = 6
	RecCitation  = 8
	RecLCID      = 9
	RecCNT       = 10
	RecCharset   = 11
	RecDefFont   = 12
	RecGroups    = 13
	RecKeyIndex  = 14
	RecLanguage  = 18
	RecDLLMaps   = 19
)

// Parse decodes a |SYSTEM payload. A record that runs past the end is kept
// with the bytes that remain and ends the walk.
func Parse(data []byte) (*types.SystemInfo, error) {
	c := buf.NewCursor(data)
	magic, err := c.U16()
	if err != nil {
		return nil, fmt.Errorf("system header: %w", format.ErrTruncated)
	}
	if magic != Magic {
		return nil, fmt.Errorf("system header: magic 0x%04X: %w", magic, format.ErrSignatureMismatch)
	}
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("system header: %w", format.ErrTruncated)
	}
	minor, _ := c.U16()
	major, _ := c.U16()
	date, _ := c.I32()
	flags, _ := c.U16()

	info := &types.SystemInfo{
		Minor:     minor,
		Major:     major,
		Generated: time.Unix(int64(date), 0).UTC(),
		Flags:     flags,
		Contents:  types.TopicNone,
	}

	var rawTitle, rawCopyright []byte
	var rawMacros [][]byte
	if minor <= minorMax {
		rawTitle = cstring(data[HeaderSize:])
	} else {
		for c.Remaining() >= 4 {
			typ, _ := c.U16()
			n, _ := c.U16()
			body, err := c.Next(int(n))
			if err != nil {
				body = data[c.Offset():]
			}
			info.Records = append(info.Records, types.SystemRecord{Type: typ, Data: body})
			switch typ {
			case RecTitle:
				rawTitle = cstring(body)
			case RecCopyright:
				rawCopyright = cstring(body)
			case RecContents:
				if len(body) >= 4 {
					info.Contents = buf.U32LE(body)
				}
			case RecConfig:
				rawMacros = append(rawMacros, cstring(body))
			case RecCNT:
				info.CNTFile = string(cstring(body))
			case RecLCID:
				if len(body) >= 10 {
					info.LCID = buf.U16LE(body[8:])
				}
			case RecCharset:
				if len(body) >= 1 {
					info.Charset, info.HasCharset = body[0], true
				}
			case RecDefFont:
				if len(body) >= 3 {
					info.Font = &types.DefaultFont{
						Height:  buf.U16LE(body),
						Charset: body[2],
						Name:    string(cstring(body[3:])),
					}
				}
			case RecWindow:
				if w, ok := parseWindow(body); ok {
					info.Windows = append(info.Windows, w)
				}
			}
			if err != nil {
				break
			}
		}
	}
	if !info.HasCharset && info.Font != nil {
		info.Charset = info.Font.Charset
	}

	if info.Title, err = textenc.Decode(info.Charset, rawTitle); err != nil {
		return nil, err
	}
	if info.Copyright, err = textenc.Decode(info.Charset, rawCopyright); err != nil {
		return nil, err
	}
	for _, m := range rawMacros {
		s, err := textenc.Decode(info.Charset, m)
		if err != nil {
			return nil, err
		}
		info.Macros = append(info.Macros, s)
	}
	return info, nil
}

func cstring(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// parseWindow decodes a SECWINDOW record. Fields are present in full; the
// flags say which of them the author set.
func parseWindow(b []byte) (types.Window, bool) {
	c := buf.NewCursor(b)
	flags, err := c.U16()
	if err != nil {
		return types.Window{}, false
	}
	w := types.Window{Flags: flags}
	str := func(n int) string {
		s, err := c.Next(n)
		if err != nil {
			return ""
		}
		return string(cstring(s))
	}
	w.Type = str(10)
	w.Name = str(9)
	w.Caption = str(51)
	w.X, _ = c.I16()
	w.Y, _ = c.I16()
	w.Width, _ = c.I16()
	w.Height, _ = c.I16()
	w.Maximize, _ = c.U16()
	w.RGB = rgb(c)
	_, _ = c.U8()
	w.NonScrollRGB = rgb(c)
	return w, true
}

func rgb(c *buf.Cursor) uint32 {
	b, err := c.Next(3)
	if err != nil {
		return 0
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
