// Package format houses low-level decoders for the WinHelp .HLP container.
// Each decoder reads one fixed binary layout from a byte slice and returns a
// plain struct; none of them allocate beyond the result, and none know how
// the structures are chained together. Higher-level packages do that.
package format

const (
	// MagicHLP is the little-endian magic of the main header.
	//   0x00  3F 5F 03 00
	MagicHLP = 0x00035F3F

	// HeaderSize is the size of the main header at offset 0.
	HeaderSize = 16

	// Main header field offsets.
	HeaderMagicOffset     = 0x00
	HeaderDirectoryOffset = 0x04
	HeaderFreeListOffset  = 0x08
	HeaderFileSizeOffset  = 0x0C

	// FileHeaderSize is the size of the FILEHEADER preceding every internal
	// file, the directory included.
	FileHeaderSize = 9

	FileHeaderReservedOffset = 0x00
	FileHeaderUsedOffset     = 0x04
	FileHeaderFlagsOffset    = 0x08
)

const (
	// BTreeMagic opens every B+tree header.
	BTreeMagic = 0x293B

	// BTreeHeaderSize is the size of the B+tree header. Pages follow it.
	BTreeHeaderSize = 38

	BTreeMagicOffset        = 0x00
	BTreeFlagsOffset        = 0x02
	BTreePageSizeOffset     = 0x04
	BTreeStructureOffset    = 0x06
	BTreeStructureSize      = 16
	BTreeMustBeZeroOffset   = 0x16
	BTreePageSplitsOffset   = 0x18
	BTreeRootPageOffset     = 0x1A
	BTreeMustBeNegOneOffset = 0x1C
	BTreeTotalPagesOffset   = 0x1E
	BTreeNLevelsOffset      = 0x20
	BTreeTotalEntriesOffset = 0x22

	// BTreeLeafHeaderSize is the header of a leaf page:
	//   0x00 u16 unused bytes, 0x02 i16 entries, 0x04 i16 previous page, 0x06 i16 next page
	BTreeLeafHeaderSize = 8

	// BTreeIndexHeaderSize is the header of an index page:
	//   0x00 u16 unused bytes, 0x02 i16 entries, 0x04 i16 leftmost child page
	BTreeIndexHeaderSize = 6

	// BTreeNoPage terminates leaf chains.
	BTreeNoPage = -1

	// BTreeMaxLevels bounds descent; real files never exceed a handful.
	BTreeMaxLevels = 16
)

const (
	// TopicBlockHeaderSize is the uncompressed header at the start of each
	// |TOPIC block.
	TopicBlockHeaderSize = 12

	// TopicBlockSize30 is the block size used by every 3.0 file and by 3.1
	// files that set the 2K flag.
	TopicBlockSize30 = 2048
	// TopicBlockSize31 is the default 3.1 block size.
	TopicBlockSize31 = 4096

	// TopicDecompressedSize is the size a compressed topic block expands to
	// at most, header included. TOPICPOS values of compressed files use it as
	// their block stride.
	TopicDecompressedSize = 0x4000

	// TopicOffsetBlockShift splits a TOPICOFFSET into block and character
	// count.
	TopicOffsetBlockShift = 15

	// TopicLinkSize is the size of the fixed part of a TOPICLINK.
	TopicLinkSize = 21

	// TopicHeaderSize30 and TopicHeaderSize31 are the TOPICHEADER sizes of
	// the two format generations.
	TopicHeaderSize30 = 12
	TopicHeaderSize31 = 28

	// TopicNone marks absent TOPICPOS/TOPICOFFSET fields.
	TopicNone = 0xFFFFFFFF
)

// Record types carried by a TOPICLINK.
const (
	RecordDisplay30   = 0x01
	RecordTopicHeader = 0x02
	RecordDisplay     = 0x20
	RecordTable       = 0x23
)

const (
	// PhraseMagic is the second word of a |PHRASE file.
	PhraseMagic = 0x0100

	// PhraseHeaderSize30 covers NumPhrases and the magic.
	PhraseHeaderSize30 = 4
	// PhraseHeaderSize31 adds the u32 decompressed size.
	PhraseHeaderSize31 = 8

	// PhrIndexMagic opens a |PhrIndex file.
	PhrIndexMagic = 0x4A01
	// PhrIndexHeaderSize is where the phrase length bitstream starts.
	PhrIndexHeaderSize = 30
)

const (
	// SystemMagic opens the |SYSTEM file.
	SystemMagic = 0x036C
	// SystemHeaderSize covers magic, minor, major, generation date and flags.
	SystemHeaderSize = 12
	// SystemMinor30 is the highest minor version written by the 3.0 compiler.
	SystemMinor30 = 16
	// SystemMinor40 is the minor version written by the 4.0 compiler.
	SystemMinor40 = 33
)
