package format

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func btreeHeader(pageSize, root, pages, levels uint16, entries uint32) []byte {
	b := make([]byte, BTreeHeaderSize)
	binary.LittleEndian.PutUint16(b[BTreeMagicOffset:], BTreeMagic)
	binary.LittleEndian.PutUint16(b[BTreeFlagsOffset:], 0x0402)
	binary.LittleEndian.PutUint16(b[BTreePageSizeOffset:], pageSize)
	copy(b[BTreeStructureOffset:], "z4")
	binary.LittleEndian.PutUint16(b[BTreeRootPageOffset:], root)
	binary.LittleEndian.PutUint16(b[BTreeMustBeNegOneOffset:], 0xFFFF)
	binary.LittleEndian.PutUint16(b[BTreeTotalPagesOffset:], pages)
	binary.LittleEndian.PutUint16(b[BTreeNLevelsOffset:], levels)
	binary.LittleEndian.PutUint32(b[BTreeTotalEntriesOffset:], entries)
	return b
}

func TestParseBTreeHeader(t *testing.T) {
	h, err := ParseBTreeHeader(btreeHeader(1024, 2, 3, 2, 40))
	require.NoError(t, err)
	require.Equal(t, uint16(1024), h.PageSize)
	require.Equal(t, "z4", h.Structure)
	require.Equal(t, int16(2), h.RootPage)
	require.Equal(t, int16(3), h.TotalPages)
	require.Equal(t, int16(2), h.NLevels)
	require.Equal(t, int32(40), h.TotalEntries)
}

func TestParseBTreeHeaderErrors(t *testing.T) {
	_, err := ParseBTreeHeader(make([]byte, 10))
	require.ErrorIs(t, err, ErrTruncated)

	bad := btreeHeader(1024, 0, 1, 1, 0)
	bad[0] = 0
	_, err = ParseBTreeHeader(bad)
	require.ErrorIs(t, err, ErrSignatureMismatch)

	_, err = ParseBTreeHeader(btreeHeader(1024, 5, 3, 2, 0))
	require.ErrorIs(t, err, ErrCorruptPage)

	_, err = ParseBTreeHeader(btreeHeader(4, 0, 1, 1, 0))
	require.ErrorIs(t, err, ErrCorruptPage)
}

func TestPageHeaders(t *testing.T) {
	page := []byte{0x10, 0x00, 0x03, 0x00, 0xFF, 0xFF, 0x02, 0x00}
	lh, err := ParseLeafHeader(page)
	require.NoError(t, err)
	require.Equal(t, LeafHeader{Unused: 0x10, NEntries: 3, PreviousPage: -1, NextPage: 2}, lh)

	ih, err := ParseIndexHeader(page)
	require.NoError(t, err)
	require.Equal(t, IndexHeader{Unused: 0x10, NEntries: 3, FirstChild: -1}, ih)

	_, err = ParseLeafHeader(page[:7])
	require.ErrorIs(t, err, ErrTruncated)
	_, err = ParseIndexHeader(page[:5])
	require.ErrorIs(t, err, ErrTruncated)
}
