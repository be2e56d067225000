package hlpbuild

import (
	"bytes"

	"github.com/joshuapare/hlpkit/pkg/types"
)

// SampleOptions selects the layout of a sample help file.
type SampleOptions struct {
	Before31 bool
	LZ77     bool
	Phrases  bool
	// IntroHash and DetailsHash are the context hashes of "intro" and
	// "details"; callers compute them so this package stays free of the
	// hash implementation.
	IntroHash   uint32
	DetailsHash uint32
}

// Sample is a two topic help file.
//
// Topic 0, "Introduction", holds a paragraph with a jump to topic 1. Topic 1,
// "Details", starts a new block and holds a picture of |bm0, a picture of
// the absent |bm7 and, in 3.1 files, a jump into other.hlp.
type Sample struct {
	Image  []byte
	Layout Layout
	Config types.Config
	// Places are the placements of the four records: header 0, display 0,
	// header 1, display 1.
	Places []Placement
	// Text0 is the expanded text of the first display record.
	Text0 []byte
}

// Topic offsets of the two sample topics.
const (
	SampleIntroOffset   = 0
	SampleDetailsOffset = 1 << 15
)

// NewSample builds the sample file.
func NewSample(o SampleOptions) Sample {
	cfg := types.Config{Version: types.Version31}
	minor := uint16(21)
	var flags uint16
	if o.Before31 {
		cfg.Version, minor = types.Version30, 15
	}
	if o.LZ77 {
		cfg.Compression |= types.CompressLZ77
		flags = 4
	}
	if o.Phrases {
		cfg.Compression |= types.CompressPhrase
	}

	jump := JumpHash(0xE3, o.DetailsHash)
	if o.Before31 {
		jump = JumpOffset30(0xE1, SampleDetailsOffset)
	}
	disp0 := NewDisplay(o.Before31).Paragraph(Para{ID: 1}).
		Text("Welcome to the help file. See ").Cmd(jump).
		Text("details").Cmd(HotspotEnd()).
		Cmd(ParagraphEnd()).End().Record()
	text0 := append([]byte(nil), disp0.LinkData2...)
	if o.Phrases {
		i := bytes.Index(disp0.LinkData2, []byte("help "))
		stored := append([]byte(nil), disp0.LinkData2[:i]...)
		stored = append(stored, LegacyToken(0, true)...)
		disp0.LinkData2 = append(stored, disp0.LinkData2[i+5:]...)
		disp0.DataLen2 = len(text0)
	}

	d1 := NewDisplay(o.Before31).Paragraph(Para{ID: 2, LeftIndent: 20}).
		Text("More details").Cmd(Picture(0x86, 0x03, 0, PictureRef(0))).
		Cmd(Picture(0x87, 0x03, 0, PictureRef(7)))
	if !o.Before31 {
		d1 = d1.Text("Elsewhere").Cmd(JumpExt(0xEB, 4, 0x1234, 0, "other.hlp", "")).Cmd(HotspotEnd())
	}
	disp1 := d1.Cmd(ParagraphEnd()).End().Record()

	hdr1 := TopicHeaderRecord(o.Before31, 1, "Details")
	hdr1.NewBlock = true
	topic, places := NewTopicFile(cfg.BlockSize(), o.LZ77, o.Before31).
		Add(TopicHeaderRecord(o.Before31, 0, "Introduction", "BrowseButtons()")).
		Add(disp0).
		Add(hdr1).
		Add(disp1).
		Build()

	im := NewImage().
		Add("|SYSTEM", System(minor, flags, "Sample Help")).
		Add("|TOPIC", topic).
		Add("|CONTEXT", Context(64, map[uint32]uint32{
			o.IntroHash:   places[0].Offset,
			o.DetailsHash: places[2].Offset,
		})).
		Add("|TTLBTREE", Titles(64, map[uint32]string{
			places[0].Offset: "Introduction",
			places[2].Offset: "Details",
		})).
		Add("|bm0", []byte("bitmap"))
	if o.Before31 {
		im.Add("|CTXOMAP", CtxoMap([2]uint32{100, places[0].Offset}, [2]uint32{200, places[2].Offset}))
	}
	if o.Phrases {
		im.Add("|PHRASE", LegacyPhrases([]string{"help", "topic"}, !o.Before31))
	}
	img, lay := im.Build()
	return Sample{Image: img, Layout: lay, Config: cfg, Places: places, Text0: text0}
}
