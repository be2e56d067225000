package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePhraseHeader(t *testing.T) {
	h, err := ParsePhraseHeader([]byte{0x03, 0x00, 0x00, 0x01}, false)
	require.NoError(t, err)
	require.Equal(t, uint16(3), h.NumPhrases)
	require.Equal(t, PhraseHeaderSize30, h.Size)

	h, err = ParsePhraseHeader([]byte{0x02, 0x00, 0x00, 0x01, 0x20, 0x00, 0x00, 0x00}, true)
	require.NoError(t, err)
	require.Equal(t, uint32(0x20), h.DecompressedSize)
	require.Equal(t, PhraseHeaderSize31, h.Size)

	_, err = ParsePhraseHeader([]byte{0x02, 0x00, 0x00, 0x02}, false)
	require.ErrorIs(t, err, ErrSignatureMismatch)
	_, err = ParsePhraseHeader([]byte{0x02, 0x00, 0x00, 0x01}, true)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestParsePhrIndexHeader(t *testing.T) {
	b := make([]byte, PhrIndexHeaderSize)
	b[0], b[1] = 0x01, 0x4A
	b[4] = 5
	b[0x0C] = 40
	b[0x10] = 40
	b[0x18] = 0x24
	b[0x1A], b[0x1B] = 0x00, 0x4A

	h, err := ParsePhrIndexHeader(b)
	require.NoError(t, err)
	require.Equal(t, int32(5), h.Entries)
	require.Equal(t, int32(40), h.ImageSize)
	require.Equal(t, uint8(4), h.Bits)

	_, err = ParsePhrIndexHeader(b[:20])
	require.ErrorIs(t, err, ErrTruncated)

	b[0] = 0
	_, err = ParsePhrIndexHeader(b)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}
