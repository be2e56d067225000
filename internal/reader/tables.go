package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/hlpkit/internal/compress"
	"github.com/joshuapare/hlpkit/internal/ctxindex"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// phraseTable loads the phrase table on first use. Files without phrase
// compression report ErrNotFound.
func (s *session) phraseTable() (*compress.PhraseTable, error) {
	s.phraseOnce.Do(func() {
		switch {
		case s.cfg.Compression.Has(types.CompressHall):
			var index, image []byte
			if index, _, s.phraseErr = s.fileData(filePhrIndex); s.phraseErr != nil {
				return
			}
			if image, _, s.phraseErr = s.fileData(filePhrImage); s.phraseErr != nil {
				return
			}
			s.phrases, s.phraseErr = compress.LoadHashed(index, image)
		case s.cfg.Compression.Has(types.CompressPhrase):
			var data []byte
			if data, _, s.phraseErr = s.fileData(filePhrase); s.phraseErr != nil {
				return
			}
			s.phrases, s.phraseErr = compress.LoadLegacy(data, !s.cfg.Version.Before31())
		default:
			s.phraseErr = fmt.Errorf("phrase table: file is not phrase compressed: %w", format.ErrNotFound)
		}
		if s.phraseErr != nil {
			s.phraseErr = wrapFormatErr(s.phraseErr, "phrase table", -1)
			s.log.Warn("phrase table unavailable", "error", s.phraseErr)
			return
		}
		s.log.Debug("phrase table loaded", "generation", s.phrases.Generation(), "phrases", s.phrases.Len())
	})
	return s.phrases, s.phraseErr
}

func (s *session) Phrases() (types.PhraseInfo, error) {
	if err := s.ensureOpen(); err != nil {
		return types.PhraseInfo{}, err
	}
	t, err := s.phraseTable()
	if err != nil {
		return types.PhraseInfo{}, err
	}
	return types.PhraseInfo{Generation: t.Generation().String(), Count: t.Len()}, nil
}

func (s *session) contextIndex() (*ctxindex.Index, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	s.ctxOnce.Do(func() {
		data, e, err := s.fileData(fileContext)
		if err != nil {
			s.ctxErr = err
			return
		}
		if s.ctx, err = ctxindex.Open(data); err != nil {
			s.ctxErr = wrapFormatErr(err, fileContext, int64(e.DataOffset()))
			s.diagnostics.record(diagStructure(types.SevError, uint64(e.DataOffset()), "BTREE", fileContext,
				err.Error(), "B+tree header", nil))
		}
	})
	return s.ctx, s.ctxErr
}

func (s *session) ResolveContext(name string) (uint32, error) {
	x, err := s.contextIndex()
	if err != nil {
		return 0, err
	}
	off, err := x.Resolve(name)
	if err != nil {
		return 0, wrapFormatErr(err, fmt.Sprintf("context %q", name), -1)
	}
	return off, nil
}

func (s *session) ResolveContextHash(hash uint32) (uint32, error) {
	x, err := s.contextIndex()
	if err != nil {
		return 0, err
	}
	off, err := x.ResolveHash(hash)
	if err != nil {
		return 0, wrapFormatErr(err, fmt.Sprintf("context hash 0x%08X", hash), -1)
	}
	return off, nil
}

func (s *session) Contexts() types.ContextIterator {
	x, err := s.contextIndex()
	if err != nil {
		return &contextIter{s: s, err: err}
	}
	return &contextIter{s: s, it: x.Iter()}
}

// contextIter adapts the |CONTEXT iterator to the public entry type. An
// error ends the walk.
type contextIter struct {
	s   *session
	it  *ctxindex.Iterator
	err error
}

func (c *contextIter) Next() (types.ContextEntry, error) {
	if c.err != nil {
		return types.ContextEntry{}, c.err
	}
	if err := c.s.ensureOpen(); err != nil {
		return types.ContextEntry{}, err
	}
	e, err := c.it.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			c.err = io.EOF
		} else {
			c.err = wrapFormatErr(err, fileContext, -1)
		}
		return types.ContextEntry{}, c.err
	}
	return types.ContextEntry{Hash: e.Hash, TopicOffset: e.TopicOffset}, nil
}

func (s *session) TopicTitle(offset uint32) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}
	s.titleOnce.Do(func() {
		data, e, err := s.fileData(fileTitles)
		if err != nil {
			s.titleErr = err
			return
		}
		if s.titles, err = ctxindex.OpenTitles(data); err != nil {
			s.titleErr = wrapFormatErr(err, fileTitles, int64(e.DataOffset()))
		}
	})
	if s.titleErr != nil {
		return "", s.titleErr
	}
	raw, _, err := s.titles.Title(offset)
	if err != nil {
		return "", wrapFormatErr(err, fmt.Sprintf("title of topic 0x%08X", offset), -1)
	}
	return s.DecodeText(raw)
}

func (s *session) MapTopic(id int32) (uint32, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}
	s.mapOnce.Do(func() {
		data, e, err := s.fileData(fileCtxoMap)
		if err != nil {
			s.mapErr = err
			return
		}
		if s.ctxMap, err = ctxindex.ParseMap(data); err != nil {
			s.mapErr = wrapFormatErr(err, fileCtxoMap, int64(e.DataOffset()))
		}
	})
	if s.mapErr != nil {
		return 0, s.mapErr
	}
	off, err := ctxindex.LookupMap(s.ctxMap, id)
	if err != nil {
		return 0, wrapFormatErr(err, fmt.Sprintf("map id %d", id), -1)
	}
	return off, nil
}
