package format

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
)

// Header is the main header at the start of every help file.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    Magic 0x00035F3F
//	 0x04    4    Offset of the directory FILEHEADER
//	 0x08    4    Head of the free block chain, or -1
//	 0x0C    4    Size of the entire file
type Header struct {
	Magic          uint32
	DirectoryStart uint32
	FreeChainStart int32
	EntireFileSize uint32
}

// ParseHeader validates the magic and checks that the directory lies inside
// both the declared file size and the buffer.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("help header: %w", ErrTruncated)
	}
	h := Header{
		Magic:          buf.U32LE(b[HeaderMagicOffset:]),
		DirectoryStart: buf.U32LE(b[HeaderDirectoryOffset:]),
		FreeChainStart: buf.I32LE(b[HeaderFreeListOffset:]),
		EntireFileSize: buf.U32LE(b[HeaderFileSizeOffset:]),
	}
	if h.Magic != MagicHLP {
		return Header{}, fmt.Errorf("help header: magic 0x%08X: %w", h.Magic, ErrSignatureMismatch)
	}
	if h.DirectoryStart < HeaderSize || h.DirectoryStart >= h.EntireFileSize {
		return Header{}, fmt.Errorf("help header: directory at 0x%X outside file of %d bytes: %w",
			h.DirectoryStart, h.EntireFileSize, ErrTruncated)
	}
	if !buf.Has(b, int(h.DirectoryStart), FileHeaderSize) {
		return Header{}, fmt.Errorf("help header: directory at 0x%X beyond image of %d bytes: %w",
			h.DirectoryStart, len(b), ErrTruncated)
	}
	return h, nil
}

// FileHeader precedes the payload of every internal file.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    Reserved space including this header
//	 0x04    4    Used space, excluding this header
//	 0x08    1    File flags (4 for normal files)
type FileHeader struct {
	ReservedSpace uint32
	UsedSpace     uint32
	Flags         uint8
}

// ParseFileHeader decodes the FILEHEADER at off.
func ParseFileHeader(b []byte, off int) (FileHeader, error) {
	h, ok := buf.Slice(b, off, FileHeaderSize)
	if !ok {
		return FileHeader{}, fmt.Errorf("file header at 0x%X: %w", off, ErrTruncated)
	}
	return FileHeader{
		ReservedSpace: buf.U32LE(h[FileHeaderReservedOffset:]),
		UsedSpace:     buf.U32LE(h[FileHeaderUsedOffset:]),
		Flags:         h[FileHeaderFlagsOffset],
	}, nil
}

// FilePayload returns the used bytes of the internal file whose FILEHEADER
// starts at off.
func FilePayload(b []byte, off int) (FileHeader, []byte, error) {
	fh, err := ParseFileHeader(b, off)
	if err != nil {
		return FileHeader{}, nil, err
	}
	data, ok := buf.Slice(b, off+FileHeaderSize, int(fh.UsedSpace))
	if !ok {
		return fh, nil, fmt.Errorf("file at 0x%X: %d used bytes exceed image: %w", off, fh.UsedSpace, ErrTruncated)
	}
	return fh, data, nil
}
