package hlp_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hlpkit/internal/testutil/hlpbuild"
	"github.com/joshuapare/hlpkit/pkg/hlp"
)

func sample(o hlpbuild.SampleOptions) hlpbuild.Sample {
	o.IntroHash = hlp.ContextHash("intro")
	o.DetailsHash = hlp.ContextHash("details")
	return hlpbuild.NewSample(o)
}

func readAll(t *testing.T, s hlp.Session) ([]*hlp.ParsedTopic, []error) {
	t.Helper()
	var topics []*hlp.ParsedTopic
	var errs []error
	it := s.Topics()
	for range 1000 {
		p, err := it.Next()
		if errors.Is(err, io.EOF) {
			return topics, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		topics = append(topics, p)
	}
	t.Fatal("topic walk did not end")
	return nil, nil
}

func TestOpen30Sample(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{Before31: true})
	s, err := hlp.OpenBytes(smp.Image, hlp.OpenOptions{})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, hlp.Version30, s.Config().Version)
	for _, name := range []string{"|TOPIC", "|SYSTEM"} {
		e, err := s.InternalFile(name)
		require.NoError(t, err, name)
		assert.NotZero(t, e.Size, name)
	}

	topics, errs := readAll(t, s)
	require.Empty(t, errs)
	require.Len(t, topics, 4)
	j, ok := topics[1].FindLink(hlp.LinkJump)
	require.True(t, ok)
	assert.True(t, j.Jump.ByOffset)
	assert.Equal(t, topics[2].Offset, j.Jump.Target)

	off, err := s.MapTopic(100)
	require.NoError(t, err)
	assert.Equal(t, topics[0].Offset, off)
}

func TestOpen31PhraseSample(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true, Phrases: true})
	s, err := hlp.OpenBytes(smp.Image, hlp.OpenOptions{})
	require.NoError(t, err)
	defer s.Close()

	cfg := s.Config()
	assert.Equal(t, hlp.Version31, cfg.Version)
	assert.True(t, cfg.Compression.Has(hlp.CompressLZ77|hlp.CompressPhrase))

	topics, errs := readAll(t, s)
	require.Empty(t, errs)
	var first *hlp.ParsedTopic
	for _, p := range topics {
		if p.Header.RecordType.IsDisplay() {
			first = p
			break
		}
	}
	require.NotNil(t, first)
	assert.True(t, first.Header.PhraseCompressed)
	require.NotEmpty(t, first.Spans)
	assert.NotEmpty(t, first.Spans[0].Text)
	assert.True(t, bytes.HasPrefix(first.Text, []byte("Welcome to the help file.")))
}

func TestTopicInvariants(t *testing.T) {
	for _, o := range []hlpbuild.SampleOptions{
		{Before31: true}, {Before31: true, Phrases: true}, {}, {LZ77: true}, {LZ77: true, Phrases: true},
	} {
		s, err := hlp.OpenBytes(sample(o).Image, hlp.OpenOptions{})
		require.NoError(t, err)
		topics, errs := readAll(t, s)
		require.Empty(t, errs)
		for _, p := range topics {
			var joined []byte
			for _, sp := range p.Spans {
				joined = append(joined, sp.Text...)
			}
			assert.Equal(t, p.Text, joined)
			assert.Equal(t, p.Header.DataLength, p.Header.LinkData1Length+uint32(len(p.Text)))
			last := 0
			for _, l := range p.Links() {
				assert.GreaterOrEqual(t, l.Anchor, last)
				assert.LessOrEqual(t, l.Anchor, len(p.Text))
				last = l.Anchor
			}
		}
		require.NoError(t, s.Close())
	}
}

func TestContextTargetsAreReachable(t *testing.T) {
	s, err := hlp.OpenBytes(sample(hlpbuild.SampleOptions{LZ77: true}).Image, hlp.OpenOptions{})
	require.NoError(t, err)
	defer s.Close()

	topics, _ := readAll(t, s)
	next := map[uint32]bool{}
	for _, p := range topics {
		next[p.NextOffset] = true
	}
	off, err := s.ResolveContext("Details")
	require.NoError(t, err)
	assert.True(t, next[off], "0x%X", off)

	assert.Equal(t, hlp.ContextHash("IDH_INTRO"), hlp.ContextHash("idh_intro"))
	_, err = s.ResolveContext("IDH_NOWHERE")
	assert.ErrorIs(t, err, hlp.ErrNotFound)
}

func TestTruncatedAfterMainHeader(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{})
	for _, n := range []int{0, 8, 16, smp.Layout.DirectoryStart} {
		assert.NotPanics(t, func() {
			_, err := hlp.OpenBytes(smp.Image[:n], hlp.OpenOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, hlp.ErrTruncatedHeader) || errors.Is(err, hlp.ErrInvalidMagic), "%d: %v", n, err)
		})
	}
}

func TestOversizedCountsAreReportedAsErrors(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{Phrases: true})
	img := bytes.Clone(smp.Image)
	// Directory B+tree entry count, then the |PHRASE decompressed size.
	binary.LittleEndian.PutUint32(img[smp.Layout.DirectoryStart+9+0x22:], 0x7FFFFFFF)
	binary.LittleEndian.PutUint32(img[smp.Layout.FileOffsets["|PHRASE"]+9+4:], 0x7FFFFFFF)

	s, err := hlp.OpenBytes(img, hlp.OpenOptions{})
	require.NoError(t, err)
	defer s.Close()

	files, err := s.InternalFiles()
	require.NoError(t, err)
	assert.NotEmpty(t, files)
	_, err = s.Phrases()
	assert.ErrorIs(t, err, hlp.ErrDecompression)
}

func TestCorruptBlockIsScoped(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true})
	img := bytes.Clone(smp.Image)
	// The first payload byte of block 0 is a flag byte; make every token a
	// back-reference into an empty window.
	img[smp.Layout.FileOffsets["|TOPIC"]+9+12] = 0xFF

	s, err := hlp.OpenBytes(img, hlp.OpenOptions{})
	require.NoError(t, err)
	defer s.Close()

	topics, errs := readAll(t, s)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], hlp.ErrDecompression)
	var te *hlp.TopicError
	require.ErrorAs(t, errs[0], &te)
	assert.Equal(t, 0, te.Block)
	require.Len(t, topics, 2)
	assert.Equal(t, "Details", string(topics[0].Title))
}

func TestOpenFile(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{Phrases: true})
	path := filepath.Join(t.TempDir(), "sample.hlp")
	require.NoError(t, os.WriteFile(path, smp.Image, 0o644))

	s, err := hlp.Open(path, hlp.OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, smp.Config.Compression, s.Config().Compression)

	info, err := hlp.System(s)
	require.NoError(t, err)
	assert.Equal(t, "Sample Help", info.Title)

	title, err := s.TopicTitle(hlpbuild.SampleDetailsOffset + 4)
	require.NoError(t, err)
	assert.Equal(t, "Details", title)
	require.NoError(t, s.Close())

	_, err = s.InternalFiles()
	assert.ErrorIs(t, err, hlp.ErrClosed)

	require.NoError(t, os.WriteFile(path, []byte("plain text, not help"), 0o644))
	_, err = hlp.Open(path, hlp.OpenOptions{})
	assert.ErrorIs(t, err, hlp.ErrInvalidMagic)
}

func TestExplicitConfigSkipsProbe(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{})
	img := bytes.Clone(smp.Image)
	img[smp.Layout.FileOffsets["|SYSTEM"]+9] = 0

	_, err := hlp.OpenBytes(img, hlp.OpenOptions{})
	require.Error(t, err)

	cfg := hlp.Config{Version: hlp.Version31}
	s, err := hlp.OpenBytes(img, hlp.OpenOptions{Config: &cfg})
	require.NoError(t, err)
	defer s.Close()
	topics, errs := readAll(t, s)
	assert.Empty(t, errs)
	assert.Len(t, topics, 4)
}

func TestDiagnose(t *testing.T) {
	report, err := hlp.Diagnose(sample(hlpbuild.SampleOptions{}).Image, hlp.OpenOptions{})
	require.NoError(t, err)
	assert.False(t, report.HasErrors())
	assert.Equal(t, 1, report.Summary.Warnings) // |bm7
	assert.Equal(t, 1, report.Summary.Info)     // other.hlp
}
