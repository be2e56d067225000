package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hlpkit/internal/testutil/hlpbuild"
	"github.com/joshuapare/hlpkit/pkg/types"
)

func TestProbe(t *testing.T) {
	for _, o := range []hlpbuild.SampleOptions{
		{},
		{LZ77: true},
		{LZ77: true, Phrases: true},
		{Before31: true},
		{Before31: true, Phrases: true},
	} {
		smp := sample(o)
		info, cfg, err := Probe(smp.Image)
		require.NoError(t, err)
		assert.Equal(t, "Sample Help", info.Title)
		want := smp.Config
		if !want.Version.Before31() {
			want.TopicBlockSize = 4096
		}
		assert.Equal(t, want, cfg, "%+v", o)
	}
}

func TestProbeErrors(t *testing.T) {
	_, _, err := Probe([]byte{1, 2, 3})
	assert.ErrorIs(t, err, types.ErrTruncatedHeader)

	img := hlpbuild.NewImage().Add("|TOPIC", nil).Bytes()
	_, _, err = Probe(img)
	assert.ErrorIs(t, err, types.ErrNotFound)

	smp := sample(hlpbuild.SampleOptions{})
	bad := bytes.Clone(smp.Image)
	bad[smp.Layout.FileOffsets["|SYSTEM"]+9] = 0
	_, _, err = Probe(bad)
	assert.ErrorIs(t, err, types.ErrCorruptPage)
}

func TestSystemInfo(t *testing.T) {
	s := openSample(t, sample(hlpbuild.SampleOptions{}), false)
	info, err := SystemInfo(s)
	require.NoError(t, err)
	assert.Equal(t, uint16(21), info.Minor)
	assert.Equal(t, "Sample Help", info.Title)
}
