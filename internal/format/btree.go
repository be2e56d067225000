package format

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
)

// BTreeHeader opens every B+tree stored in an internal file (the directory,
// |CONTEXT, |TTLBTREE and friends). Pages of PageSize bytes follow directly.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    2    Magic 0x293B
//	 0x02    2    Flags (bit 1 always set, 0x0400 for the directory)
//	 0x04    2    Page size
//	 0x06   16    Structure string describing key and value layout
//	 0x16    2    Must be zero
//	 0x18    2    Page splits
//	 0x1A    2    Root page
//	 0x1C    2    Must be -1
//	 0x1E    2    Total pages
//	 0x20    2    Number of levels (1 means the root is a leaf)
//	 0x22    4    Total entries
type BTreeHeader struct {
	Flags        uint16
	PageSize     uint16
	Structure    string
	PageSplits   int16
	RootPage     int16
	TotalPages   int16
	NLevels      int16
	TotalEntries int32
}

// ParseBTreeHeader decodes and sanity-checks a B+tree header.
func ParseBTreeHeader(b []byte) (BTreeHeader, error) {
	if len(b) < BTreeHeaderSize {
		return BTreeHeader{}, fmt.Errorf("btree header: %w", ErrTruncated)
	}
	if m := buf.U16LE(b[BTreeMagicOffset:]); m != BTreeMagic {
		return BTreeHeader{}, fmt.Errorf("btree header: magic 0x%04X: %w", m, ErrSignatureMismatch)
	}
	st := b[BTreeStructureOffset : BTreeStructureOffset+BTreeStructureSize]
	if s, _, ok := buf.CString(st, 0); ok {
		st = s
	}
	h := BTreeHeader{
		Flags:        buf.U16LE(b[BTreeFlagsOffset:]),
		PageSize:     buf.U16LE(b[BTreePageSizeOffset:]),
		Structure:    string(st),
		PageSplits:   buf.I16LE(b[BTreePageSplitsOffset:]),
		RootPage:     buf.I16LE(b[BTreeRootPageOffset:]),
		TotalPages:   buf.I16LE(b[BTreeTotalPagesOffset:]),
		NLevels:      buf.I16LE(b[BTreeNLevelsOffset:]),
		TotalEntries: buf.I32LE(b[BTreeTotalEntriesOffset:]),
	}
	switch {
	case h.PageSize < BTreeLeafHeaderSize:
		return h, fmt.Errorf("btree header: page size %d: %w", h.PageSize, ErrCorruptPage)
	case h.TotalPages < 0 || h.TotalEntries < 0:
		return h, fmt.Errorf("btree header: negative page or entry count: %w", ErrCorruptPage)
	case h.TotalPages > 0 && (h.RootPage < 0 || h.RootPage >= h.TotalPages):
		return h, fmt.Errorf("btree header: root page %d of %d: %w", h.RootPage, h.TotalPages, ErrCorruptPage)
	case h.NLevels < 0 || h.NLevels > BTreeMaxLevels:
		return h, fmt.Errorf("btree header: %d levels: %w", h.NLevels, ErrCorruptPage)
	}
	return h, nil
}

// LeafHeader is the header of a leaf page.
type LeafHeader struct {
	Unused       uint16
	NEntries     int16
	PreviousPage int16
	NextPage     int16
}

// ParseLeafHeader decodes the header at the start of a leaf page.
func ParseLeafHeader(page []byte) (LeafHeader, error) {
	if len(page) < BTreeLeafHeaderSize {
		return LeafHeader{}, fmt.Errorf("leaf page header: %w", ErrTruncated)
	}
	return LeafHeader{
		Unused:       buf.U16LE(page[0:]),
		NEntries:     buf.I16LE(page[2:]),
		PreviousPage: buf.I16LE(page[4:]),
		NextPage:     buf.I16LE(page[6:]),
	}, nil
}

// IndexHeader is the header of an index page. FirstChild holds every key
// below the first separator.
type IndexHeader struct {
	Unused     uint16
	NEntries   int16
	FirstChild int16
}

// ParseIndexHeader decodes the header at the start of an index page.
func ParseIndexHeader(page []byte) (IndexHeader, error) {
	if len(page) < BTreeIndexHeaderSize {
		return IndexHeader{}, fmt.Errorf("index page header: %w", ErrTruncated)
	}
	return IndexHeader{
		Unused:     buf.U16LE(page[0:]),
		NEntries:   buf.I16LE(page[2:]),
		FirstChild: buf.I16LE(page[4:]),
	}, nil
}
