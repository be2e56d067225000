package format

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func mainHeader(dir, size uint32) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[HeaderMagicOffset:], MagicHLP)
	binary.LittleEndian.PutUint32(b[HeaderDirectoryOffset:], dir)
	binary.LittleEndian.PutUint32(b[HeaderFreeListOffset:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(b[HeaderFileSizeOffset:], size)
	return b
}

func TestParseHeaderSuccess(t *testing.T) {
	img := append(mainHeader(0x20, 0x40), make([]byte, 0x30)...)
	hdr, err := ParseHeader(img)
	require.NoError(t, err)
	require.Equal(t, uint32(MagicHLP), hdr.Magic)
	require.Equal(t, uint32(0x20), hdr.DirectoryStart)
	require.Equal(t, int32(-1), hdr.FreeChainStart)
	require.Equal(t, uint32(0x40), hdr.EntireFileSize)
}

func TestParseHeaderErrors(t *testing.T) {
	_, err := ParseHeader(mainHeader(0x20, 0x40)[:10])
	require.ErrorIs(t, err, ErrTruncated)

	bad := mainHeader(0x20, 0x40)
	bad[0] = 'X'
	_, err = ParseHeader(append(bad, make([]byte, 0x30)...))
	require.ErrorIs(t, err, ErrSignatureMismatch)

	// Directory beyond the declared size.
	_, err = ParseHeader(append(mainHeader(0x80, 0x40), make([]byte, 0x80)...))
	require.ErrorIs(t, err, ErrTruncated)

	// Image cut right after the main header.
	_, err = ParseHeader(mainHeader(0x20, 0x40))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFilePayload(t *testing.T) {
	b := make([]byte, 4+FileHeaderSize+5)
	binary.LittleEndian.PutUint32(b[4:], 14)
	binary.LittleEndian.PutUint32(b[8:], 3)
	b[12] = 4
	copy(b[13:], "abc")

	fh, data, err := FilePayload(b, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(14), fh.ReservedSpace)
	require.Equal(t, uint8(4), fh.Flags)
	require.Equal(t, []byte("abc"), data)

	binary.LittleEndian.PutUint32(b[8:], 50)
	_, _, err = FilePayload(b, 4)
	require.ErrorIs(t, err, ErrTruncated)

	_, err = ParseFileHeader(b, len(b)-3)
	require.ErrorIs(t, err, ErrTruncated)
}
