package reader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hlpkit/internal/ctxindex"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/internal/testutil/hlpbuild"
	"github.com/joshuapare/hlpkit/pkg/types"
)

func sample(o hlpbuild.SampleOptions) hlpbuild.Sample {
	o.IntroHash = ctxindex.Hash("intro")
	o.DetailsHash = ctxindex.Hash("details")
	return hlpbuild.NewSample(o)
}

func openSample(t *testing.T, smp hlpbuild.Sample, diag bool) types.Session {
	t.Helper()
	cfg := smp.Config
	s, err := OpenBytes(smp.Image, types.OpenOptions{Config: &cfg, CollectDiagnostics: diag})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func allTopics(t *testing.T, s types.Session) ([]*types.ParsedTopic, []error) {
	t.Helper()
	var out []*types.ParsedTopic
	var errs []error
	it := s.Topics()
	for range 100 {
		p, err := it.Next()
		if errors.Is(err, io.EOF) {
			return out, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	t.Fatal("topic iterator did not terminate")
	return nil, nil
}

func TestOpenBytesDirectory(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true})
	s := openSample(t, smp, false)

	info := s.Info()
	assert.Equal(t, uint32(format.MagicHLP), info.Magic)
	assert.Equal(t, uint32(smp.Layout.DirectoryStart), info.DirectoryStart)
	assert.Equal(t, len(smp.Image), info.ImageSize)
	assert.Equal(t, smp.Config, s.Config())

	files, err := s.InternalFiles()
	require.NoError(t, err)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.ElementsMatch(t, []string{"|SYSTEM", "|TOPIC", "|CONTEXT", "|TTLBTREE", "|bm0"}, names)

	e, err := s.InternalFile("|bm0")
	require.NoError(t, err)
	assert.Equal(t, uint32(smp.Layout.FileOffsets["|bm0"]), e.Offset)
	assert.Equal(t, uint32(6), e.Size)

	data, err := s.InternalFileData("|bm0")
	require.NoError(t, err)
	assert.Equal(t, "bitmap", string(data))

	_, err = s.InternalFile("|nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.InternalFileData("|BM0")
	assert.ErrorIs(t, err, types.ErrNotFound, "lookup is exact")
}

func TestOpenFatalErrors(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{})
	cfg := smp.Config

	bad := bytes.Clone(smp.Image)
	bad[0] = 0
	_, err := OpenBytes(bad, types.OpenOptions{Config: &cfg})
	assert.ErrorIs(t, err, types.ErrInvalidMagic)

	_, err = OpenBytes(smp.Image[:10], types.OpenOptions{Config: &cfg})
	assert.ErrorIs(t, err, types.ErrTruncatedHeader)

	_, err = OpenBytes(smp.Image[:smp.Layout.DirectoryStart+4], types.OpenOptions{Config: &cfg})
	assert.ErrorIs(t, err, types.ErrTruncatedHeader)

	_, err = OpenBytes(smp.Image, types.OpenOptions{})
	var te *types.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, types.ErrKindState, te.Kind)

	_, err = OpenBytes(smp.Image, types.OpenOptions{Config: &types.Config{Version: types.Version30, Compression: types.CompressLZ77}})
	assert.ErrorIs(t, err, types.ErrUnsupported)
}

func TestCorruptDirectoryIsDeferred(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{})
	img := bytes.Clone(smp.Image)
	img[smp.Layout.DirectoryStart+format.FileHeaderSize] = 0 // B+tree magic

	cfg := smp.Config
	s, err := OpenBytes(img, types.OpenOptions{Config: &cfg, CollectDiagnostics: true})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.InternalFiles()
	assert.ErrorIs(t, err, types.ErrCorruptPage)
	_, err = s.Topics().Next()
	assert.ErrorIs(t, err, types.ErrCorruptPage)

	report := s.GetDiagnostics()
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Summary.Critical)
	assert.Len(t, report.ByStructure["DIRECTORY"], 1)
}

func TestOpenIgnoresDeclaredDirectoryCount(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{})
	img := bytes.Clone(smp.Image)
	tree := smp.Layout.DirectoryStart + format.FileHeaderSize
	binary.LittleEndian.PutUint32(img[tree+format.BTreeTotalEntriesOffset:], 0x7FFFFFFF)

	cfg := smp.Config
	s, err := OpenBytes(img, types.OpenOptions{Config: &cfg})
	require.NoError(t, err)
	defer s.Close()
	files, err := s.InternalFiles()
	require.NoError(t, err)
	assert.Len(t, files, 5)
}

func TestTopicsAndContexts(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts hlpbuild.SampleOptions
	}{
		{"3.1 lz77 phrase", hlpbuild.SampleOptions{LZ77: true, Phrases: true}},
		{"3.1 plain", hlpbuild.SampleOptions{}},
		{"3.0 phrase", hlpbuild.SampleOptions{Before31: true, Phrases: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			smp := sample(tc.opts)
			s := openSample(t, smp, false)

			topics, errs := allTopics(t, s)
			require.Empty(t, errs)
			require.Len(t, topics, 4)
			assert.Equal(t, "Introduction", string(topics[0].Title))
			assert.Equal(t, smp.Text0, topics[1].Text)
			assert.Equal(t, "Details", string(topics[2].Title))
			for i, p := range topics {
				assert.Equal(t, smp.Places[i].Pos, p.Header.Pos)
				assert.Equal(t, smp.Places[i].Offset, p.Offset)
			}
			assert.Equal(t, uint32(hlpbuild.SampleDetailsOffset), topics[2].Offset)

			off, err := s.ResolveContext("INTRO")
			require.NoError(t, err)
			assert.Equal(t, topics[0].Offset, off)
			off, err = s.ResolveContextHash(ctxindex.Hash("details"))
			require.NoError(t, err)
			assert.Equal(t, topics[2].Offset, off)
			_, err = s.ResolveContext("missing")
			assert.ErrorIs(t, err, types.ErrNotFound)

			var entries []types.ContextEntry
			it := s.Contexts()
			for {
				e, err := it.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				entries = append(entries, e)
			}
			assert.Len(t, entries, 2)

			title, err := s.TopicTitle(topics[1].Offset + 3)
			require.NoError(t, err)
			assert.Equal(t, "Introduction", title)
			title, err = s.TopicTitle(hlpbuild.SampleDetailsOffset)
			require.NoError(t, err)
			assert.Equal(t, "Details", title)

			if tc.opts.Phrases {
				info, err := s.Phrases()
				require.NoError(t, err)
				assert.Equal(t, types.PhraseInfo{Generation: "legacy", Count: 2}, info)
			} else {
				_, err := s.Phrases()
				assert.ErrorIs(t, err, types.ErrNotFound)
			}
		})
	}
}

func TestMapTopic(t *testing.T) {
	s := openSample(t, sample(hlpbuild.SampleOptions{Before31: true}), false)
	off, err := s.MapTopic(200)
	require.NoError(t, err)
	assert.Equal(t, uint32(hlpbuild.SampleDetailsOffset), off)
	_, err = s.MapTopic(5)
	assert.ErrorIs(t, err, types.ErrNotFound)

	s31 := openSample(t, sample(hlpbuild.SampleOptions{}), false)
	_, err = s31.MapTopic(200)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDiagnosticsFromTopics(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true})
	img := bytes.Clone(smp.Image)
	// Corrupt the second topic block.
	blk := smp.Layout.FileOffsets["|TOPIC"] + format.FileHeaderSize + 4096 + format.TopicBlockHeaderSize
	img[blk], img[blk+1], img[blk+2] = 0xFF, 0, 0

	cfg := smp.Config
	s, err := OpenBytes(img, types.OpenOptions{Config: &cfg, CollectDiagnostics: true})
	require.NoError(t, err)
	defer s.Close()

	topics, errs := allTopics(t, s)
	assert.Len(t, topics, 2)
	require.Len(t, errs, 1)
	var te *types.TopicError
	require.ErrorAs(t, errs[0], &te)
	assert.Equal(t, smp.Places[2].Pos, te.Pos)
	assert.ErrorIs(t, errs[0], types.ErrDecompression)

	report := s.GetDiagnostics()
	require.NotNil(t, report)
	require.Len(t, report.ByStructure["TOPICBLOCK"], 1)
	assert.Equal(t, uint64(smp.Places[2].Pos), report.ByStructure["TOPICBLOCK"][0].Offset)
	assert.True(t, report.HasAnyIssues())
}

func TestDiagnosticsForReferences(t *testing.T) {
	s := openSample(t, sample(hlpbuild.SampleOptions{}), true)
	_, errs := allTopics(t, s)
	require.Empty(t, errs)

	report := s.GetDiagnostics()
	var issues []string
	for _, d := range report.Diagnostics {
		assert.Equal(t, types.DiagIntegrity, d.Category)
		issues = append(issues, d.Issue)
	}
	assert.ElementsMatch(t, []string{
		"picture references a missing bitmap",
		"external jump to a file outside this help file",
	}, issues)
}

func TestNoDiagnosticsByDefault(t *testing.T) {
	s := openSample(t, sample(hlpbuild.SampleOptions{}), false)
	assert.Nil(t, s.GetDiagnostics())
}

func TestClosedSession(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{})
	cfg := smp.Config
	s, err := OpenBytes(smp.Image, types.OpenOptions{Config: &cfg})
	require.NoError(t, err)
	it := s.Topics()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.InternalFiles()
	assert.ErrorIs(t, err, types.ErrClosed)
	_, err = s.ResolveContext("intro")
	assert.ErrorIs(t, err, types.ErrClosed)
	_, err = it.Next()
	assert.ErrorIs(t, err, types.ErrClosed)
	_, err = s.Topics().Next()
	assert.ErrorIs(t, err, types.ErrClosed)
}

func TestConcurrentIterators(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true, Phrases: true})
	s := openSample(t, smp, true)

	var wg sync.WaitGroup
	texts := make([][]byte, 8)
	for i := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			it := s.Topics()
			_, _ = it.Next()
			p, err := it.Next()
			if err == nil {
				texts[i] = p.Text
			}
		}()
	}
	wg.Wait()
	for _, txt := range texts {
		assert.Equal(t, smp.Text0, txt)
	}
}

func TestOpenPath(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true})
	path := filepath.Join(t.TempDir(), "sample.hlp")
	require.NoError(t, os.WriteFile(path, smp.Image, 0o644))

	var logs bytes.Buffer
	cfg := smp.Config
	s, err := Open(path, types.OpenOptions{
		Config:             &cfg,
		CollectDiagnostics: true,
		Logger:             slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	require.NoError(t, err)
	topics, _ := allTopics(t, s)
	assert.Len(t, topics, 4)
	assert.Equal(t, path, s.GetDiagnostics().FilePath)
	require.NoError(t, s.Close())
	assert.Contains(t, logs.String(), "directory resolved")

	_, err = Open(filepath.Join(t.TempDir(), "absent.hlp"), types.OpenOptions{Config: &cfg})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiagnose(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true})
	cfg := smp.Config
	report, err := Diagnose(smp.Image, types.OpenOptions{Config: &cfg})
	require.NoError(t, err)
	for _, d := range report.Diagnostics {
		assert.NotEqual(t, "CONTEXT", d.Structure, d.Issue)
	}
	assert.False(t, report.HasErrors())

	_, err = Diagnose([]byte("not a help file at all"), types.OpenOptions{Config: &cfg})
	assert.ErrorIs(t, err, types.ErrInvalidMagic)
}

func TestMetrics(t *testing.T) {
	smp := sample(hlpbuild.SampleOptions{LZ77: true})
	reg := prometheus.NewRegistry()
	cfg := smp.Config
	s, err := OpenBytes(smp.Image, types.OpenOptions{Config: &cfg, Metrics: reg})
	require.NoError(t, err)

	allTopics(t, s)
	allTopics(t, s)

	values := func() map[string]float64 {
		families, err := reg.Gather()
		require.NoError(t, err)
		out := map[string]float64{}
		for _, f := range families {
			for _, m := range f.GetMetric() {
				name := f.GetName()
				for _, l := range m.GetLabel() {
					name += "/" + l.GetValue()
				}
				if m.GetCounter() != nil {
					out[name] = m.GetCounter().GetValue()
				} else {
					out[name] = m.GetGauge().GetValue()
				}
			}
		}
		return out
	}
	v := values()
	assert.Equal(t, 1.0, v["hlpkit_sessions_open"])
	assert.Equal(t, 2.0, v["hlpkit_topic_block_cache_misses_total"], "two blocks, each decompressed once")
	assert.Greater(t, v["hlpkit_topic_block_cache_hits_total"], 0.0)
	assert.Equal(t, 4.0, v["hlpkit_topic_records_total/display"])
	assert.Equal(t, 4.0, v["hlpkit_topic_records_total/topic-header"])

	require.NoError(t, s.Close())
	assert.Equal(t, 0.0, values()["hlpkit_sessions_open"])
}
