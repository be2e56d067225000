package format

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
)

// PhraseHeader opens a |PHRASE file.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    2    Number of phrases
//	 0x02    2    Magic 0x0100
//	 0x04    4    Decompressed size of the phrase text (3.1 and later only)
//
// NumPhrases+1 u16 offsets follow, then the phrase text. Offsets are relative
// to the start of the offset table.
type PhraseHeader struct {
	NumPhrases       uint16
	DecompressedSize uint32
	// Size is the number of header bytes consumed.
	Size int
}

// ParsePhraseHeader decodes a |PHRASE header; withSize selects the 3.1
// layout that carries the decompressed size.
func ParsePhraseHeader(b []byte, withSize bool) (PhraseHeader, error) {
	size := PhraseHeaderSize30
	if withSize {
		size = PhraseHeaderSize31
	}
	if len(b) < size {
		return PhraseHeader{}, fmt.Errorf("phrase header: %w", ErrTruncated)
	}
	if m := buf.U16LE(b[2:]); m != PhraseMagic {
		return PhraseHeader{}, fmt.Errorf("phrase header: magic 0x%04X: %w", m, ErrSignatureMismatch)
	}
	h := PhraseHeader{NumPhrases: buf.U16LE(b[0:]), Size: size}
	if withSize {
		h.DecompressedSize = buf.U32LE(b[4:])
	}
	return h, nil
}

// PhrIndexHeader opens a |PhrIndex file (Hall compression, 4.0).
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    Magic 0x4A01
//	 0x04    4    Number of phrases
//	 0x08    4    Compressed size of this file
//	 0x0C    4    Decompressed size of |PhrImage
//	 0x10    4    Stored size of |PhrImage
//	 0x14    4    Always 0
//	 0x18    2    Low 4 bits: bit count of the length remainder
//	 0x1A    2    Always 0x4A00
//	 0x1C    2    Unused
//
// The phrase length bitstream starts at 0x1E.
type PhrIndexHeader struct {
	Entries             int32
	CompressedSize      int32
	ImageSize           int32
	ImageCompressedSize int32
	Bits                uint8
}

// ParsePhrIndexHeader decodes a |PhrIndex header.
func ParsePhrIndexHeader(b []byte) (PhrIndexHeader, error) {
	if len(b) < PhrIndexHeaderSize {
		return PhrIndexHeader{}, fmt.Errorf("phrase index header: %w", ErrTruncated)
	}
	if m := buf.U32LE(b[0:]); m != PhrIndexMagic {
		return PhrIndexHeader{}, fmt.Errorf("phrase index header: magic 0x%08X: %w", m, ErrSignatureMismatch)
	}
	h := PhrIndexHeader{
		Entries:             buf.I32LE(b[0x04:]),
		CompressedSize:      buf.I32LE(b[0x08:]),
		ImageSize:           buf.I32LE(b[0x0C:]),
		ImageCompressedSize: buf.I32LE(b[0x10:]),
		Bits:                uint8(buf.U16LE(b[0x18:]) & 0x0F),
	}
	if h.Entries < 0 || h.ImageSize < 0 || h.ImageCompressedSize < 0 {
		return h, fmt.Errorf("phrase index header: negative size: %w", ErrCorruptData)
	}
	return h, nil
}
