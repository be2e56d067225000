package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/hlpkit/internal/compress"
	"github.com/joshuapare/hlpkit/internal/topic"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// decoder opens |TOPIC on first use. The decoder and its block cache are
// shared by every iterator of the session.
func (s *session) decoder() (*topic.Decoder, error) {
	s.topicOnce.Do(func() {
		data, e, err := s.fileData(fileTopic)
		if err != nil {
			s.topicErr = err
			return
		}
		opts := topic.Options{
			Config:  s.cfg,
			Cache:   s.cache,
			Logger:  s.log.With("file", fileTopic),
			Metrics: s.metrics,
		}
		if s.cfg.Compression.Has(types.CompressPhrase) || s.cfg.Compression.Has(types.CompressHall) {
			opts.Phrases = func() (*compress.PhraseTable, error) { return s.phraseTable() }
		}
		if s.dir != nil {
			opts.Files = s.dir
		}
		if s.topics, err = topic.New(data, opts); err != nil {
			s.topicErr = wrapFormatErr(err, fileTopic, int64(e.Offset))
			return
		}
		s.log.Debug("topic file opened", "offset", e.Offset, "size", e.Size, "blocks", s.topics.Blocks())
	})
	return s.topics, s.topicErr
}

func (s *session) Topics() types.TopicIterator {
	if err := s.ensureOpen(); err != nil {
		return &topicIter{s: s, err: err}
	}
	d, err := s.decoder()
	if err != nil {
		return &topicIter{s: s, err: err}
	}
	return &topicIter{s: s, it: d.Iter()}
}

// topicIter maps decoder errors to typed errors and records diagnostics
// for failed records and broken references.
type topicIter struct {
	s   *session
	it  *topic.Iterator
	err error // sticky: set when the walk cannot start
}

func (t *topicIter) Next() (*types.ParsedTopic, error) {
	if t.err != nil {
		err := t.err
		t.err = io.EOF
		return nil, err
	}
	if err := t.s.ensureOpen(); err != nil {
		return nil, err
	}
	p, err := t.it.Next()
	if err != nil {
		var te *types.TopicError
		if !errors.As(err, &te) {
			return nil, err
		}
		mapped := &types.TopicError{Pos: te.Pos, Block: te.Block, Err: wrapFormatErr(te.Err, "topic record", int64(te.Pos))}
		t.s.recordTopicError(mapped)
		return nil, mapped
	}
	t.s.metrics.Record(p.Header.RecordType.String())
	t.s.recordReferences(p)
	return p, nil
}

func (s *session) recordTopicError(te *types.TopicError) {
	var e *types.Error
	if errors.As(te.Err, &e) {
		s.metrics.RecordError(e.Kind.String())
	}
	if s.diagnostics == nil {
		return
	}
	issue := fmt.Sprintf("record skipped (block %d): %v", te.Block, te.Err)
	switch {
	case errors.Is(te.Err, types.ErrCorruptHeader):
		s.diagnostics.record(diagIntegrity(types.SevWarning, uint64(te.Pos), "TOPICLINK", fileTopic, issue, te.Block))
	case errors.Is(te.Err, types.ErrDecompression):
		s.diagnostics.record(diagData(types.SevWarning, uint64(te.Pos), "TOPICBLOCK", fileTopic, issue))
	default:
		s.diagnostics.record(diagData(types.SevWarning, uint64(te.Pos), "TOPICLINK", fileTopic, issue))
	}
}

// recordReferences notes external jumps and pictures whose target is not
// in the directory.
func (s *session) recordReferences(p *types.ParsedTopic) {
	if s.diagnostics == nil {
		return
	}
	for _, l := range p.Links() {
		switch {
		case l.Jump != nil && l.Jump.Unresolved:
			s.diagnostics.record(diagIntegrity(types.SevInfo, uint64(p.Header.Pos), "TOPICLINK", fileTopic,
				"external jump to a file outside this help file", string(l.Jump.File)))
		case l.Picture != nil && l.Picture.Missing:
			s.diagnostics.record(diagIntegrity(types.SevWarning, uint64(p.Header.Pos), "TOPICLINK", fileTopic,
				"picture references a missing bitmap", l.Picture.Bitmap))
		}
	}
}
