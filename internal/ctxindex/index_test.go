package ctxindex

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/internal/testutil/hlpbuild"
)

func TestIndexResolve(t *testing.T) {
	pairs := map[uint32]uint32{}
	names := map[string]uint32{}
	for i := range 300 {
		name := fmt.Sprintf("IDH_TOPIC_%d", i)
		off := uint32(i) << 15
		pairs[Hash(name)] = off
		names[name] = off
	}
	x, err := Open(hlpbuild.Context(128, pairs))
	require.NoError(t, err)
	assert.Equal(t, 300, x.Len())

	for name, off := range names {
		got, err := x.Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, off, got, name)
	}
	got, err := x.Resolve("idh_topic_42")
	require.NoError(t, err)
	assert.Equal(t, uint32(42)<<15, got)

	_, err = x.Resolve("no such context")
	require.ErrorIs(t, err, format.ErrNotFound)
}

func TestIndexIterSignedOrder(t *testing.T) {
	pairs := map[uint32]uint32{Hash("CONTENTS"): 1, Hash("INDEX"): 2, 0xF0000000: 3, 0x80000000: 4}
	x, err := Open(hlpbuild.Context(1024, pairs))
	require.NoError(t, err)

	it := x.Iter()
	var prev int32
	n := 0
	for {
		e, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if n > 0 {
			assert.Less(t, prev, int32(e.Hash))
		}
		prev = int32(e.Hash)
		assert.Equal(t, pairs[e.Hash], e.TopicOffset)
		n++
	}
	assert.Equal(t, 4, n)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("not a tree at all, just text padding"))
	require.Error(t, err)
}

func TestTitles(t *testing.T) {
	titles, err := OpenTitles(hlpbuild.Titles(1024, map[uint32]string{
		0x0000: "Contents",
		0x0150: "Installing",
		0x8000: "Troubleshooting",
	}))
	require.NoError(t, err)

	title, start, err := titles.Title(0x0160)
	require.NoError(t, err)
	assert.Equal(t, "Installing", string(title))
	assert.Equal(t, uint32(0x0150), start)

	title, _, err = titles.Title(0x8000)
	require.NoError(t, err)
	assert.Equal(t, "Troubleshooting", string(title))
}

func TestParseMap(t *testing.T) {
	entries, err := ParseMap(hlpbuild.CtxoMap([2]uint32{100, 0x20}, [2]uint32{200, 0x8010}))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	off, err := LookupMap(entries, 200)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8010), off)

	_, err = LookupMap(entries, 300)
	require.ErrorIs(t, err, format.ErrNotFound)

	_, err = ParseMap(hlpbuild.CtxoMap([2]uint32{100, 0x20})[:5])
	require.ErrorIs(t, err, format.ErrCorruptData)
	_, err = ParseMap([]byte{1})
	require.ErrorIs(t, err, format.ErrTruncated)
}
