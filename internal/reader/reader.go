// Package reader provides the concrete types.Session implementation. The
// exported entry points are used by the public wrapper (pkg/hlp) to obtain
// a types.Session without exposing the internal parsing machinery directly.
package reader

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/joshuapare/hlpkit/internal/compress"
	"github.com/joshuapare/hlpkit/internal/ctxindex"
	"github.com/joshuapare/hlpkit/internal/directory"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/internal/metrics"
	"github.com/joshuapare/hlpkit/internal/mmfile"
	"github.com/joshuapare/hlpkit/internal/textenc"
	"github.com/joshuapare/hlpkit/internal/topic"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// Internal file names the session reads.
const (
	fileTopic    = "|TOPIC"
	fileContext  = "|CONTEXT"
	fileTitles   = "|TTLBTREE"
	fileCtxoMap  = "|CTXOMAP"
	filePhrase   = "|PHRASE"
	filePhrIndex = "|PhrIndex"
	filePhrImage = "|PhrImage"
)

// Open maps the help file at path and returns a session over it.
func Open(path string, opts types.OpenOptions) (types.Session, error) {
	data, unmap, err := mmfile.Map(path)
	if err != nil {
		return nil, wrapIOErr("open help file", err)
	}
	return OpenMapped(path, data, unmap, opts)
}

// OpenMapped creates a session that owns an image mapped from path. unmap
// runs on Close, or right away when the session cannot be created.
func OpenMapped(path string, image []byte, unmap func() error, opts types.OpenOptions) (types.Session, error) {
	s, err := newSession(image, unmap, opts)
	if err != nil {
		_ = unmap()
		return nil, err
	}
	s.diagnostics.setPath(path)
	return s, nil
}

// OpenBytes creates a session backed by the provided image. The session
// borrows image; the caller must not modify it while the session is open.
func OpenBytes(image []byte, opts types.OpenOptions) (types.Session, error) {
	return newSession(image, nil, opts)
}

type session struct {
	image  []byte
	unmap  func() error
	cfg    types.Config
	log    *slog.Logger
	head   format.Header
	closed atomic.Bool

	// Directory failures are not fatal; calls that need the directory
	// return dirErr.
	dir    *directory.Directory
	dirErr error

	cache       *lru.Cache[int, []byte]
	metrics     *metrics.Metrics
	diagnostics *diagnosticCollector // nil unless CollectDiagnostics=true (zero-cost)

	// Lazily loaded tables, read-only once loaded.
	phraseOnce sync.Once
	phrases    *compress.PhraseTable
	phraseErr  error

	topicOnce sync.Once
	topics    *topic.Decoder
	topicErr  error

	ctxOnce sync.Once
	ctx     *ctxindex.Index
	ctxErr  error

	titleOnce sync.Once
	titles    *ctxindex.Titles
	titleErr  error

	mapOnce sync.Once
	ctxMap  []ctxindex.MapEntry
	mapErr  error
}

func newSession(image []byte, unmap func() error, opts types.OpenOptions) (*session, error) {
	if opts.Config == nil {
		return nil, &types.Error{Kind: types.ErrKindState, Msg: "open: no configuration", Offset: -1}
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	head, err := format.ParseHeader(image)
	if err != nil {
		return nil, headerErr(err)
	}
	if opts.BlockCacheSize <= 0 {
		opts.BlockCacheSize = topic.DefaultCacheSize
	}

	s := &session{
		image: image,
		unmap: unmap,
		cfg:   *opts.Config,
		log:   opts.Logger,
		head:  head,
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if opts.CollectDiagnostics {
		s.diagnostics = newDiagnosticCollector(len(image))
	}
	if s.cache, err = lru.New[int, []byte](opts.BlockCacheSize); err != nil {
		return nil, fmt.Errorf("open: block cache: %w", err)
	}
	if s.metrics, err = metrics.New(opts.Metrics); err != nil {
		return nil, &types.Error{Kind: types.ErrKindState, Msg: "open: metrics", Offset: -1, Err: err}
	}

	s.dir, err = directory.Resolve(image, int(head.DirectoryStart), s.invalidEntry)
	if err != nil {
		s.dirErr = wrapFormatErr(err, "directory", int64(head.DirectoryStart))
		s.log.Warn("directory unreadable", "offset", head.DirectoryStart, "error", err)
		s.diagnostics.record(diagStructure(types.SevCritical, uint64(head.DirectoryStart), "DIRECTORY", "",
			err.Error(), "B+tree of internal files", nil))
	} else {
		s.log.Debug("directory resolved", "offset", head.DirectoryStart, "files", s.dir.Len())
	}
	if uint32(len(image)) < head.EntireFileSize {
		s.diagnostics.record(diagStructure(types.SevWarning, format.HeaderFileSizeOffset, "HEADER", "",
			"image shorter than the declared file size", head.EntireFileSize, len(image)))
	}
	s.metrics.SessionOpened()
	return s, nil
}

// invalidEntry is the directory callback for entries left out.
func (s *session) invalidEntry(name string, offset uint32, err error) {
	s.log.Warn("directory entry skipped", "name", name, "offset", offset, "error", err)
	s.diagnostics.record(diagStructure(types.SevError, uint64(offset), "FILEHEADER", name,
		err.Error(), "FILEHEADER inside the image", offset))
}

// Close releases resources (unmaps the image if necessary).
func (s *session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.metrics.SessionClosed()
	if s.unmap != nil {
		return s.unmap()
	}
	return nil
}

func (s *session) ensureOpen() error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	return nil
}

func (s *session) Info() types.HelpInfo {
	return types.HelpInfo{
		Magic:          s.head.Magic,
		DirectoryStart: s.head.DirectoryStart,
		FreeChainStart: s.head.FreeChainStart,
		EntireFileSize: s.head.EntireFileSize,
		ImageSize:      len(s.image),
	}
}

func (s *session) Config() types.Config { return s.cfg }

func (s *session) resolved() (*directory.Directory, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if s.dirErr != nil {
		return nil, s.dirErr
	}
	return s.dir, nil
}

func (s *session) InternalFiles() ([]types.InternalFileEntry, error) {
	dir, err := s.resolved()
	if err != nil {
		return nil, err
	}
	entries := dir.Entries()
	out := make([]types.InternalFileEntry, len(entries))
	for i, e := range entries {
		out[i] = publicEntry(e)
	}
	return out, nil
}

func (s *session) InternalFile(name string) (types.InternalFileEntry, error) {
	dir, err := s.resolved()
	if err != nil {
		return types.InternalFileEntry{}, err
	}
	e, err := dir.Lookup(name)
	if err != nil {
		return types.InternalFileEntry{}, wrapFormatErr(err, fmt.Sprintf("internal file %q", name), -1)
	}
	return publicEntry(e), nil
}

func (s *session) InternalFileData(name string) ([]byte, error) {
	data, _, err := s.fileData(name)
	return data, err
}

// fileData returns the payload of an internal file and its entry.
func (s *session) fileData(name string) ([]byte, directory.Entry, error) {
	dir, err := s.resolved()
	if err != nil {
		return nil, directory.Entry{}, err
	}
	e, err := dir.Lookup(name)
	if err != nil {
		return nil, directory.Entry{}, wrapFormatErr(err, fmt.Sprintf("internal file %q", name), -1)
	}
	data, err := directory.Data(s.image, e)
	if err != nil {
		return nil, e, wrapFormatErr(err, fmt.Sprintf("internal file %q", name), int64(e.Offset))
	}
	return data, e, nil
}

func publicEntry(e directory.Entry) types.InternalFileEntry {
	return types.InternalFileEntry{Name: e.Name, Offset: e.Offset, Size: e.Size, Reserved: e.Reserved, Flags: e.Flags}
}

func (s *session) DecodeText(b []byte) (string, error) {
	out, err := textenc.Decode(s.cfg.Charset, b)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindCorruptData, Msg: "decode text", Offset: -1, Err: err}
	}
	return out, nil
}

func (s *session) GetDiagnostics() *types.DiagnosticReport {
	return s.diagnostics.getReport()
}

func wrapIOErr(msg string, err error) error {
	return &types.Error{Kind: types.ErrKindState, Msg: msg, Offset: -1, Err: err}
}

// headerErr classifies a main header failure. Only these two kinds make
// Open fail.
func headerErr(err error) error {
	if errors.Is(err, format.ErrSignatureMismatch) {
		return &types.Error{Kind: types.ErrKindInvalidMagic, Msg: "main header", Offset: 0, Err: err}
	}
	return &types.Error{Kind: types.ErrKindTruncatedHeader, Msg: "main header", Offset: 0, Err: err}
}

// wrapFormatErr maps the sentinels of internal/format onto typed errors.
// what names the structure being read; off is its image offset or -1. A
// bad signature past the main header belongs to a B+tree.
func wrapFormatErr(err error, what string, off int64) error {
	var te *types.Error
	if errors.As(err, &te) {
		return err
	}
	kind := types.ErrKindCorruptData
	switch {
	case errors.Is(err, format.ErrSignatureMismatch), errors.Is(err, format.ErrCorruptPage):
		kind = types.ErrKindCorruptPage
	case errors.Is(err, format.ErrTruncated):
		kind = types.ErrKindTruncatedHeader
	case errors.Is(err, format.ErrNotFound):
		kind = types.ErrKindNotFound
	case errors.Is(err, format.ErrDecompression):
		kind = types.ErrKindDecompression
	case errors.Is(err, format.ErrCorruptHeader):
		kind = types.ErrKindCorruptHeader
	case errors.Is(err, format.ErrUnsupported):
		kind = types.ErrKindUnsupported
	}
	return &types.Error{Kind: kind, Msg: what, Offset: off, Err: err}
}
