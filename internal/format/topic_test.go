package format

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func topicLink(blockSize, len2, prev, next, len1 int32, typ uint8) []byte {
	b := make([]byte, TopicLinkSize)
	binary.LittleEndian.PutUint32(b[0x00:], uint32(blockSize))
	binary.LittleEndian.PutUint32(b[0x04:], uint32(len2))
	binary.LittleEndian.PutUint32(b[0x08:], uint32(prev))
	binary.LittleEndian.PutUint32(b[0x0C:], uint32(next))
	binary.LittleEndian.PutUint32(b[0x10:], uint32(len1))
	b[0x14] = typ
	return b
}

func TestParseTopicLink(t *testing.T) {
	l, err := ParseTopicLink(topicLink(40, 25, -1, 52, 30, RecordDisplay))
	require.NoError(t, err)
	require.Equal(t, 9, l.LinkData1Len())
	require.Equal(t, 10, l.StoredLinkData2Len())
	require.True(t, l.PhraseCompressed())
	require.Equal(t, uint8(RecordDisplay), l.RecordType)

	l, err = ParseTopicLink(topicLink(40, 10, -1, 52, 30, RecordDisplay))
	require.NoError(t, err)
	require.False(t, l.PhraseCompressed())
}

func TestParseTopicLinkErrors(t *testing.T) {
	_, err := ParseTopicLink(make([]byte, 20))
	require.ErrorIs(t, err, ErrTruncated)

	_, err = ParseTopicLink(topicLink(40, 0, -1, 52, 12, RecordDisplay))
	require.ErrorIs(t, err, ErrCorruptHeader)

	_, err = ParseTopicLink(topicLink(20, 0, -1, 52, 30, RecordDisplay))
	require.ErrorIs(t, err, ErrCorruptHeader)

	_, err = ParseTopicLink(topicLink(40, -3, -1, 52, 30, RecordDisplay))
	require.ErrorIs(t, err, ErrCorruptHeader)
}

func TestParseTopicHeader(t *testing.T) {
	b := make([]byte, TopicHeaderSize31)
	for i, v := range []uint32{300, 0xFFFFFFFF, 0x8000, 7, 0xFFFFFFFF, 0x4C, 0x4010} {
		binary.LittleEndian.PutUint32(b[i*4:], v)
	}
	h, err := ParseTopicHeader(b, false)
	require.NoError(t, err)
	require.Equal(t, uint32(300), h.BlockSize)
	require.Equal(t, uint32(7), h.TopicNum)
	require.Equal(t, uint32(0x4010), h.NextTopic)

	_, err = ParseTopicHeader(b[:20], false)
	require.ErrorIs(t, err, ErrTruncated)

	h30, err := ParseTopicHeader([]byte{0x10, 0, 0, 0, 0xFF, 0xFF, 0, 0, 0x02, 0x00, 0, 0}, true)
	require.NoError(t, err)
	require.Equal(t, uint32(0x10), h30.BlockSize)
	require.Equal(t, uint32(0xFFFFFFFF), h30.BrowseBck)
	require.Equal(t, uint32(2), h30.BrowseFor)
	require.Equal(t, uint32(TopicNone), h30.NextTopic)
}

func TestTopicBlockHeaderAndOffset(t *testing.T) {
	b := []byte{0x40, 0, 0, 0, 0x0C, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}
	h, err := ParseTopicBlockHeader(b)
	require.NoError(t, err)
	require.Equal(t, TopicBlockHeader{LastTopicLink: 0x40, FirstTopicLink: 0x0C, LastTopicHeader: TopicNone}, h)

	_, err = ParseTopicBlockHeader(b[:11])
	require.ErrorIs(t, err, ErrTruncated)

	require.Equal(t, uint32(0x8005), TopicOffset(1, 5))
}
