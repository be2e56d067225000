package types

import "time"

// SystemInfo is the decoded |SYSTEM file: the compiler's version stamp and
// the project settings it recorded.
type SystemInfo struct {
	Minor, Major uint16
	Generated    time.Time
	// Flags selects topic compression in 3.1 files: 0 none, 4 LZ77 with
	// 4K blocks, 8 LZ77 with 2K blocks.
	Flags uint16

	Title     string
	Copyright string
	// Contents is the TOPICOFFSET of the contents topic, TopicNone when
	// absent.
	Contents uint32
	Macros   []string
	CNTFile  string
	// Charset is the declared Windows character set; HasCharset is false
	// when the file declares none.
	Charset    uint8
	HasCharset bool
	LCID       uint16
	Font       *DefaultFont
	Windows    []Window

	// Records holds every typed record as stored, known types included.
	Records []SystemRecord
}

// SystemRecord is one typed record of a 3.1 |SYSTEM file.
type SystemRecord struct {
	Type uint16
	Data []byte
}

// DefaultFont is the dialog font of record type 12.
type DefaultFont struct {
	Height  uint16
	Charset uint8
	Name    string
}

// Window is a secondary window definition. Only the fields whose flag bit
// is set are meaningful.
type Window struct {
	Flags   uint16
	Type    string
	Name    string
	Caption string

	X, Y, Width, Height int16
	Maximize            uint16
	// RGB and NonScrollRGB are 0x00BBGGRR colors.
	RGB          uint32
	NonScrollRGB uint32
}
