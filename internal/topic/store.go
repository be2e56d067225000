// Package topic decodes the |TOPIC internal file: fixed-size topic blocks,
// optionally LZ77 compressed, carrying a chain of TOPICLINK records whose
// command and text streams are interleaved into types.ParsedTopic values.
package topic

import (
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/compress"
	"github.com/joshuapare/hlpkit/internal/directory"
	"github.com/joshuapare/hlpkit/internal/format"
	"github.com/joshuapare/hlpkit/internal/metrics"
	"github.com/joshuapare/hlpkit/pkg/types"
)

// DefaultCacheSize is the number of decompressed blocks kept when Options
// does not supply a cache.
const DefaultCacheSize = 64

// FileSet answers whether a name exists in the session directory.
type FileSet interface {
	LookupFold(name string) (directory.Entry, bool)
}

// Options configures a Decoder.
type Options struct {
	Config types.Config
	// Phrases returns the session phrase table. It is called only when a
	// record needs expansion; nil means the file has none.
	Phrases func() (*compress.PhraseTable, error)
	// Files resolves external file and bitmap names. Nil treats every name
	// as missing.
	Files FileSet
	// Cache holds decompressed block payloads. Nil allocates one of
	// CacheSize entries.
	Cache     *lru.Cache[int, []byte]
	CacheSize int
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Decoder reads records from one |TOPIC payload. It is safe for concurrent
// use; iterators are not.
type Decoder struct {
	data      []byte
	cfg       types.Config
	blockSize int
	stride    int // TOPICPOS distance between blocks
	lz        bool
	nblocks   int

	cache   *lru.Cache[int, []byte]
	phrases func() (*compress.PhraseTable, error)
	files   FileSet
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New prepares a decoder over data, the |TOPIC payload after its
// FILEHEADER.
func New(data []byte, opts Options) (*Decoder, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		data:      data,
		cfg:       opts.Config,
		blockSize: opts.Config.BlockSize(),
		lz:        opts.Config.Compression.Has(types.CompressLZ77),
		phrases:   opts.Phrases,
		files:     opts.Files,
		log:       opts.Logger,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}
	d.stride = d.blockSize
	if d.lz {
		d.stride = format.TopicDecompressedSize
	}
	d.nblocks = (len(data) + d.blockSize - 1) / d.blockSize
	if d.lz && d.cache == nil {
		size := opts.CacheSize
		if size <= 0 {
			size = DefaultCacheSize
		}
		c, err := lru.New[int, []byte](size)
		if err != nil {
			return nil, fmt.Errorf("topic: block cache: %w", err)
		}
		d.cache = c
	}
	return d, nil
}

// Blocks is the number of topic blocks.
func (d *Decoder) Blocks() int { return d.nblocks }

// blockErr ties a failure to the block it happened in, so the iterator
// knows where to resynchronise.
type blockErr struct {
	block int
	err   error
}

func (e *blockErr) Error() string { return fmt.Sprintf("block %d: %v", e.block, e.err) }
func (e *blockErr) Unwrap() error { return e.err }

// failedBlock returns the block an error is attributed to, or fallback.
func failedBlock(err error, fallback int) int {
	var be *blockErr
	if errors.As(err, &be) {
		return max(be.block, fallback)
	}
	return fallback
}

// BlockHeader returns the uncompressed header of block n.
func (d *Decoder) BlockHeader(n int) (format.TopicBlockHeader, error) {
	if n < 0 || n >= d.nblocks {
		return format.TopicBlockHeader{}, fmt.Errorf("topic block %d of %d: %w", n, d.nblocks, format.ErrCorruptHeader)
	}
	b, _ := buf.Slice(d.data, n*d.blockSize, min(d.blockSize, len(d.data)-n*d.blockSize))
	return format.ParseTopicBlockHeader(b)
}

// payload returns the decompressed bytes of block n after its header.
func (d *Decoder) payload(n int) ([]byte, error) {
	if n < 0 || n >= d.nblocks {
		return nil, &blockErr{n, fmt.Errorf("topic block %d of %d: %w", n, d.nblocks, format.ErrCorruptHeader)}
	}
	start := n * d.blockSize
	end := min(start+d.blockSize, len(d.data))
	if end-start < format.TopicBlockHeaderSize {
		return nil, &blockErr{n, fmt.Errorf("topic block %d: %w", n, format.ErrTruncated)}
	}
	raw := d.data[start+format.TopicBlockHeaderSize : end : end]
	if !d.lz {
		return raw, nil
	}
	if p, ok := d.cache.Get(n); ok {
		d.metrics.BlockCache(true)
		return p, nil
	}
	d.metrics.BlockCache(false)
	p, err := compress.LZ77Bounded(raw, format.TopicDecompressedSize-format.TopicBlockHeaderSize)
	if err != nil {
		return nil, &blockErr{n, fmt.Errorf("topic block %d: %w", n, err)}
	}
	d.metrics.Decompressed(len(p))
	d.cache.Add(n, p)
	return p, nil
}

// split turns a TOPICPOS into block number and payload offset.
func (d *Decoder) split(pos uint32) (block, off int) {
	return int(pos) / d.stride, int(pos)%d.stride - format.TopicBlockHeaderSize
}

func (d *Decoder) join(block, off int) uint32 {
	return uint32(block*d.stride + format.TopicBlockHeaderSize + off)
}

// readAt returns n bytes of the decompressed topic stream starting at pos.
// Reads that cross a block boundary continue after the next block header
// and return a copy.
func (d *Decoder) readAt(pos uint32, n int) ([]byte, error) {
	block, off := d.split(pos)
	if off < 0 {
		return nil, &blockErr{block, fmt.Errorf("TOPICPOS 0x%X inside block header: %w", pos, format.ErrCorruptHeader)}
	}
	p, err := d.payload(block)
	if err != nil {
		return nil, err
	}
	if off >= len(p) {
		return nil, &blockErr{block, fmt.Errorf("TOPICPOS 0x%X past block payload of %d bytes: %w", pos, len(p), format.ErrCorruptHeader)}
	}
	if off+n <= len(p) {
		return p[off : off+n : off+n], nil
	}
	out := make([]byte, 0, n)
	out = append(out, p[off:]...)
	for len(out) < n {
		block++
		if block >= d.nblocks {
			return nil, &blockErr{block - 1, fmt.Errorf("record at 0x%X runs past |TOPIC: %w", pos, format.ErrCorruptHeader)}
		}
		p, err = d.payload(block)
		if err != nil {
			return nil, err
		}
		out = append(out, p[:min(len(p), n-len(out))]...)
	}
	return out, nil
}

// payloadLen is the stored payload size of an uncompressed block.
func (d *Decoder) payloadLen(block int) int {
	if block == d.nblocks-1 {
		return len(d.data) - block*d.blockSize - format.TopicBlockHeaderSize
	}
	return d.blockSize - format.TopicBlockHeaderSize
}

// advance moves pos forward by n stored bytes, skipping block headers. It
// serves the relative links of 3.0 files, which are never compressed.
func (d *Decoder) advance(pos uint32, n int) uint32 {
	block, off := d.split(pos)
	off += n
	step := d.blockSize - format.TopicBlockHeaderSize
	block += off / step
	off %= step
	return d.join(block, off)
}

// retreat is advance backwards.
func (d *Decoder) retreat(pos uint32, n int) (uint32, bool) {
	block, off := d.split(pos)
	step := d.blockSize - format.TopicBlockHeaderSize
	abs := block*step + off - n
	if abs < 0 {
		return 0, false
	}
	return d.join(abs/step, abs%step), true
}

// atEnd reports whether pos is the first position after the stored topic
// stream of an uncompressed file.
func (d *Decoder) atEnd(pos uint32) bool {
	if d.lz || d.nblocks == 0 {
		return false
	}
	block, off := d.split(pos)
	last := d.nblocks - 1
	return (block == last && off == d.payloadLen(last)) || (block == d.nblocks && off == 0)
}

// start returns the TOPICPOS of the first record.
func (d *Decoder) start() (uint32, bool) {
	if d.nblocks == 0 {
		return 0, false
	}
	if h, err := d.BlockHeader(0); err == nil {
		if b, off := d.split(h.FirstTopicLink); h.FirstTopicLink != format.TopicNone && b == 0 && off >= 0 {
			return h.FirstTopicLink, true
		}
	}
	return d.join(0, 0), len(d.data) > format.TopicBlockHeaderSize
}

// resync finds the first record starting in a block after block.
func (d *Decoder) resync(block int) (uint32, bool) {
	for b := block + 1; b < d.nblocks; b++ {
		h, err := d.BlockHeader(b)
		if err != nil {
			continue
		}
		if fb, off := d.split(h.FirstTopicLink); h.FirstTopicLink != format.TopicNone && fb == b && off >= 0 {
			d.log.Debug("topic resync", "from_block", block, "to_block", b, "pos", h.FirstTopicLink)
			return h.FirstTopicLink, true
		}
	}
	return 0, false
}
