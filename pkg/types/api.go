package types

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindInvalidMagic    ErrKind = iota // main header magic is not 0x00035F3F
	ErrKindTruncatedHeader                // main header or directory cut short
	ErrKindCorruptPage                    // B+tree page overruns, disorder or bad links
	ErrKindNotFound                       // missing internal file, context or map id
	ErrKindDecompression                  // LZ77 or phrase expansion failed
	ErrKindCorruptData                    // record contents disagree with their layout
	ErrKindCorruptHeader                  // topic link points outside |TOPIC or backwards
	ErrKindUnsupported                    // recognized but unsupported variant
	ErrKindState                          // invalid operation for current state (e.g., closed)
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindInvalidMagic:
		return "invalid magic"
	case ErrKindTruncatedHeader:
		return "truncated header"
	case ErrKindCorruptPage:
		return "corrupt page"
	case ErrKindNotFound:
		return "not found"
	case ErrKindDecompression:
		return "decompression error"
	case ErrKindCorruptData:
		return "corrupt data"
	case ErrKindCorruptHeader:
		return "corrupt header"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindState:
		return "invalid state"
	default:
		return fmt.Sprintf("ErrKind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	// Offset locates the failure in the image (or the TOPICPOS for topic
	// records) when known; -1 otherwise.
	Offset int64
	Err    error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at 0x%X", msg, e.Offset)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidMagic    = &Error{Kind: ErrKindInvalidMagic, Msg: "not a help file (bad magic)", Offset: -1}
	ErrTruncatedHeader = &Error{Kind: ErrKindTruncatedHeader, Msg: "help file truncated", Offset: -1}
	ErrCorruptPage     = &Error{Kind: ErrKindCorruptPage, Msg: "corrupt b+tree page", Offset: -1}
	ErrNotFound        = &Error{Kind: ErrKindNotFound, Msg: "not found", Offset: -1}
	ErrDecompression   = &Error{Kind: ErrKindDecompression, Msg: "decompression failed", Offset: -1}
	ErrCorruptData     = &Error{Kind: ErrKindCorruptData, Msg: "corrupt record data", Offset: -1}
	ErrCorruptHeader   = &Error{Kind: ErrKindCorruptHeader, Msg: "corrupt topic link header", Offset: -1}
	ErrUnsupported     = &Error{Kind: ErrKindUnsupported, Msg: "unsupported help file feature", Offset: -1}
	ErrClosed          = &Error{Kind: ErrKindState, Msg: "session is closed", Offset: -1}
)

// TopicError reports a topic record that could not be decoded. Iteration
// continues after it; Err carries the *Error with the failure kind.
type TopicError struct {
	// Pos is the TOPICPOS of the failed record.
	Pos uint32
	// Block is the topic block the record starts in.
	Block int
	Err   error
}

func (e *TopicError) Error() string {
	return fmt.Sprintf("topic record at 0x%08X (block %d): %v", e.Pos, e.Block, e.Err)
}

func (e *TopicError) Unwrap() error { return e.Err }

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// FormatVersion tags the help compiler generation that wrote the file.
type FormatVersion uint8

const (
	Version30 FormatVersion = iota + 1 // HC 3.0, |SYSTEM minor <= 16
	Version31                          // HC 3.1 and MVC
	Version40                          // HCW 4.0
)

// Before31 reports whether the 3.0 layouts apply.
func (v FormatVersion) Before31() bool { return v == Version30 }

func (v FormatVersion) String() string {
	switch v {
	case Version30:
		return "3.0"
	case Version31:
		return "3.1"
	case Version40:
		return "4.0"
	default:
		return "unknown"
	}
}

// Compression is a set of compression methods used by a file.
type Compression uint8

const (
	// CompressLZ77 compresses |TOPIC blocks (and the 3.1 |PHRASE text).
	CompressLZ77 Compression = 1 << iota
	// CompressPhrase substitutes phrases from |PHRASE in topic text.
	CompressPhrase
	// CompressHall substitutes phrases from |PhrIndex/|PhrImage.
	CompressHall
)

// Has reports whether all methods in m are set.
func (c Compression) Has(m Compression) bool { return c&m == m }

// Config carries what the |SYSTEM file tells about the layout of everything
// else. The core parser never reads |SYSTEM itself; pkg/hlp derives a Config
// when the caller does not supply one.
type Config struct {
	Version     FormatVersion
	Compression Compression
	// TopicBlockSize is 2048 or 4096. Zero selects the version default.
	TopicBlockSize int
	// Charset is the Windows charset id (0 = ANSI) used to decode strings.
	Charset uint8
}

// Validate checks field combinations.
func (c Config) Validate() error {
	switch c.Version {
	case Version30, Version31, Version40:
	default:
		return &Error{Kind: ErrKindUnsupported, Msg: fmt.Sprintf("format version %d", c.Version), Offset: -1}
	}
	if c.TopicBlockSize != 0 && c.TopicBlockSize != 2048 && c.TopicBlockSize != 4096 {
		return &Error{Kind: ErrKindUnsupported, Msg: fmt.Sprintf("topic block size %d", c.TopicBlockSize), Offset: -1}
	}
	if c.Compression.Has(CompressPhrase | CompressHall) {
		return &Error{Kind: ErrKindUnsupported, Msg: "both phrase and Hall compression", Offset: -1}
	}
	if c.Version.Before31() && c.Compression.Has(CompressLZ77) {
		return &Error{Kind: ErrKindUnsupported, Msg: "LZ77 compression in a 3.0 file", Offset: -1}
	}
	return nil
}

// BlockSize returns TopicBlockSize or the version default.
func (c Config) BlockSize() int {
	if c.TopicBlockSize != 0 {
		return c.TopicBlockSize
	}
	if c.Version.Before31() {
		return 2048
	}
	return 4096
}

// -----------------------------------------------------------------------------
// Open Options
// -----------------------------------------------------------------------------

// OpenOptions controls how a Session is constructed.
type OpenOptions struct {
	// Config describes the file layout. pkg/hlp probes |SYSTEM when nil;
	// internal/reader requires it.
	Config *Config

	// Logger receives debug and warning events. Nil discards them.
	Logger *slog.Logger

	// BlockCacheSize is the number of decompressed topic blocks kept in
	// memory. Zero selects 64.
	BlockCacheSize int

	// CollectDiagnostics records every recoverable problem met while
	// reading; retrieve them with GetDiagnostics.
	CollectDiagnostics bool

	// Metrics registers block cache and record counters. Sessions sharing
	// a registerer share the collectors.
	Metrics prometheus.Registerer
}

// -----------------------------------------------------------------------------
// Metadata
// -----------------------------------------------------------------------------

// HelpInfo exposes the main header.
type HelpInfo struct {
	Magic          uint32
	DirectoryStart uint32
	FreeChainStart int32
	EntireFileSize uint32
	// ImageSize is the number of bytes actually available.
	ImageSize int
}

// InternalFileEntry locates one internal file. Name normally starts with
// '|'.
type InternalFileEntry struct {
	Name     string
	Offset   uint32 // offset of the FILEHEADER
	Size     uint32 // used bytes after the FILEHEADER
	Reserved uint32
	Flags    uint8
}

// ContextEntry maps a context hash to a TOPICOFFSET.
type ContextEntry struct {
	Hash        uint32
	TopicOffset uint32
}

// PhraseInfo summarises the phrase table a session uses.
type PhraseInfo struct {
	Generation string // "legacy" or "hashed"
	Count      int
}

// -----------------------------------------------------------------------------
// Read-Only API
// -----------------------------------------------------------------------------

// Session is a read-only view over one help file image. It is safe for
// concurrent use; iterators are not and belong to one goroutine each.
type Session interface {
	// Close releases the image. Zero-copy slices returned earlier become
	// invalid.
	Close() error

	// Info returns the main header.
	Info() HelpInfo

	// Config returns the configuration the session was opened with.
	Config() Config

	// InternalFiles lists the directory in name order.
	InternalFiles() ([]InternalFileEntry, error)

	// InternalFile looks up one directory entry by exact name.
	InternalFile(name string) (InternalFileEntry, error)

	// InternalFileData returns the raw payload of an internal file.
	InternalFileData(name string) ([]byte, error)

	// Topics returns a fresh iterator over |TOPIC records.
	Topics() TopicIterator

	// ResolveContext maps a context string to its TOPICOFFSET.
	ResolveContext(name string) (uint32, error)

	// ResolveContextHash maps a precomputed context hash to its TOPICOFFSET.
	ResolveContextHash(hash uint32) (uint32, error)

	// Contexts iterates |CONTEXT in hash order.
	Contexts() ContextIterator

	// TopicTitle returns the title of the topic containing a TOPICOFFSET
	// (from |TTLBTREE).
	TopicTitle(offset uint32) (string, error)

	// MapTopic resolves a 3.0 numeric map id through |CTXOMAP.
	MapTopic(id int32) (uint32, error)

	// Phrases loads the phrase table, if the file has one.
	Phrases() (PhraseInfo, error)

	// DecodeText converts raw topic text to UTF-8 using the file charset.
	DecodeText(b []byte) (string, error)

	// GetDiagnostics returns problems collected so far, or nil when
	// OpenOptions.CollectDiagnostics was false.
	GetDiagnostics() *DiagnosticReport
}

// TopicIterator yields parsed topic records in chain order. Next returns
// io.EOF after the last record and a *TopicError for a record that failed;
// iteration may continue after a *TopicError.
type TopicIterator interface {
	Next() (*ParsedTopic, error)
}

// ContextIterator yields |CONTEXT entries; io.EOF ends the walk.
type ContextIterator interface {
	Next() (ContextEntry, error)
}
