package hlp

import "github.com/joshuapare/hlpkit/pkg/types"

// Re-export commonly used types from pkg/types so users only need to import pkg/hlp

// Session types.
type (
	Session         = types.Session
	TopicIterator   = types.TopicIterator
	ContextIterator = types.ContextIterator
	OpenOptions     = types.OpenOptions
	Config          = types.Config
	FormatVersion   = types.FormatVersion
	Compression     = types.Compression
)

// Format versions.
const (
	Version30 = types.Version30
	Version31 = types.Version31
	Version40 = types.Version40
)

// Compression methods.
const (
	CompressLZ77   = types.CompressLZ77
	CompressPhrase = types.CompressPhrase
	CompressHall   = types.CompressHall
)

// Metadata types.
type (
	HelpInfo          = types.HelpInfo
	InternalFileEntry = types.InternalFileEntry
	ContextEntry      = types.ContextEntry
	PhraseInfo        = types.PhraseInfo
	SystemInfo        = types.SystemInfo
	SystemRecord      = types.SystemRecord
	DefaultFont       = types.DefaultFont
	Window            = types.Window
)

// Topic types.
type (
	ParsedTopic      = types.ParsedTopic
	TopicBlockHeader = types.TopicBlockHeader
	TopicHeader      = types.TopicHeader
	RecordType       = types.RecordType
	LinkKind         = types.LinkKind
	LinkRecord       = types.LinkRecord
	Span             = types.Span
	Picture          = types.Picture
	PicturePlacement = types.PicturePlacement
	Jump             = types.Jump
	Paragraph        = types.Paragraph
	Alignment        = types.Alignment
	Border           = types.Border
	TabStop          = types.TabStop
	TableLayout      = types.TableLayout
	ColumnLayout     = types.ColumnLayout
)

// Record types.
const (
	RecordDisplay30   = types.RecordDisplay30
	RecordTopicHeader = types.RecordTopicHeader
	RecordDisplay     = types.RecordDisplay
	RecordTable       = types.RecordTable
)

// Link kinds.
const (
	LinkFont           = types.LinkFont
	LinkLineBreak      = types.LinkLineBreak
	LinkParagraphEnd   = types.LinkParagraphEnd
	LinkTab            = types.LinkTab
	LinkNonBreakSpace  = types.LinkNonBreakSpace
	LinkNonBreakHyphen = types.LinkNonBreakHyphen
	LinkField          = types.LinkField
	LinkDType          = types.LinkDType
	LinkPicture        = types.LinkPicture
	LinkHotspotEnd     = types.LinkHotspotEnd
	LinkMacro          = types.LinkMacro
	LinkJump           = types.LinkJump
	LinkPopup          = types.LinkPopup
	LinkEnd            = types.LinkEnd
	LinkParagraph      = types.LinkParagraph
	LinkCell           = types.LinkCell
	LinkTableLayout    = types.LinkTableLayout
)

// TopicNone marks an absent TOPICPOS or TOPICOFFSET.
const TopicNone = types.TopicNone

// Diagnostic types.
type (
	DiagnosticReport = types.DiagnosticReport
	Diagnostic       = types.Diagnostic
	DiagSummary      = types.DiagSummary
	Severity         = types.Severity
	DiagCategory     = types.DiagCategory
)

// Severities and categories.
const (
	SevInfo       = types.SevInfo
	SevWarning    = types.SevWarning
	SevError      = types.SevError
	SevCritical   = types.SevCritical
	DiagStructure = types.DiagStructure
	DiagData      = types.DiagData
	DiagIntegrity = types.DiagIntegrity
)

// Error types.
type (
	Error      = types.Error
	ErrKind    = types.ErrKind
	TopicError = types.TopicError
)

// Sentinels for errors.Is.
var (
	ErrInvalidMagic    = types.ErrInvalidMagic
	ErrTruncatedHeader = types.ErrTruncatedHeader
	ErrCorruptPage     = types.ErrCorruptPage
	ErrNotFound        = types.ErrNotFound
	ErrDecompression   = types.ErrDecompression
	ErrCorruptData     = types.ErrCorruptData
	ErrCorruptHeader   = types.ErrCorruptHeader
	ErrUnsupported     = types.ErrUnsupported
	ErrClosed          = types.ErrClosed
)
