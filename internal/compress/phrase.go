package compress

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
)

// Generation identifies the phrase substitution scheme of a table.
type Generation uint8

const (
	// Legacy tables come from |PHRASE (3.0 and 3.1 compilers).
	Legacy Generation = iota + 1
	// Hashed tables come from |PhrIndex and |PhrImage (Hall compression).
	Hashed
)

func (g Generation) String() string {
	switch g {
	case Legacy:
		return "legacy"
	case Hashed:
		return "hashed"
	default:
		return "unknown"
	}
}

// PhraseTable is an immutable list of phrases. Phrases are views into a
// buffer owned by the table.
type PhraseTable struct {
	gen     Generation
	phrases [][]byte
	longest int
}

// Generation reports which substitution scheme Expand applies.
func (t *PhraseTable) Generation() Generation { return t.gen }

// Len is the number of phrases.
func (t *PhraseTable) Len() int { return len(t.phrases) }

// Phrase returns phrase i.
func (t *PhraseTable) Phrase(i int) ([]byte, bool) {
	if i < 0 || i >= len(t.phrases) {
		return nil, false
	}
	return t.phrases[i], true
}

// LoadLegacy parses a |PHRASE file. compressed selects the 3.1 layout, whose
// phrase text is LZ77 compressed and preceded by its decompressed size.
func LoadLegacy(data []byte, compressed bool) (*PhraseTable, error) {
	h, err := format.ParsePhraseHeader(data, compressed)
	if err != nil {
		return nil, err
	}
	n := int(h.NumPhrases)
	offEnd, err := buf.CheckListBounds(len(data), h.Size, n+1, 2)
	if err != nil {
		return nil, fmt.Errorf("phrase offsets: %v: %w", err, format.ErrCorruptData)
	}
	offs := make([]int, n+1)
	for i := range offs {
		offs[i] = int(buf.U16LE(data[h.Size+2*i:]))
	}
	base := offs[0]
	textSize := offs[n] - base
	if textSize < 0 {
		return nil, fmt.Errorf("phrase offsets: last offset %d before first %d: %w", offs[n], base, format.ErrCorruptData)
	}

	text := data[offEnd:]
	if compressed {
		if int(h.DecompressedSize) < textSize {
			return nil, fmt.Errorf("phrase text: declared %d bytes, offsets need %d: %w",
				h.DecompressedSize, textSize, format.ErrCorruptData)
		}
		text, err = LZ77(text, int(h.DecompressedSize))
		if err != nil {
			return nil, fmt.Errorf("phrase text: %w", err)
		}
	}
	if len(text) < textSize {
		return nil, fmt.Errorf("phrase text: %d bytes, offsets need %d: %w", len(text), textSize, format.ErrCorruptData)
	}

	t := &PhraseTable{gen: Legacy, phrases: make([][]byte, n)}
	for i := range n {
		start, end := offs[i]-base, offs[i+1]-base
		if start > end {
			return nil, fmt.Errorf("phrase %d: offsets %d..%d decrease: %w", i, offs[i], offs[i+1], format.ErrCorruptData)
		}
		t.phrases[i] = text[start:end:end]
		t.longest = max(t.longest, end-start)
	}
	return t, nil
}

// LoadHashed parses a |PhrIndex file and its |PhrImage companion.
func LoadHashed(index, image []byte) (*PhraseTable, error) {
	h, err := format.ParsePhrIndexHeader(index)
	if err != nil {
		return nil, err
	}
	if h.ImageSize != h.ImageCompressedSize {
		image, err = LZ77(image, int(h.ImageSize))
		if err != nil {
			return nil, fmt.Errorf("phrase image: %w", err)
		}
	} else if len(image) < int(h.ImageSize) {
		return nil, fmt.Errorf("phrase image: %d bytes, header declares %d: %w", len(image), h.ImageSize, format.ErrCorruptData)
	}

	// Every length takes at least two bits.
	if stream := len(index) - format.PhrIndexHeaderSize; int64(h.Entries) > int64(stream)*8/2 {
		return nil, fmt.Errorf("phrase index: %d phrases cannot fit %d bytes of lengths: %w", h.Entries, stream, format.ErrDecompression)
	}
	bits := newBitReader(index[format.PhrIndexHeaderSize:])
	t := &PhraseTable{gen: Hashed, phrases: make([][]byte, int(h.Entries))}
	off := 0
	for i := range t.phrases {
		n, err := bits.phraseLength(int(h.Bits))
		if err != nil {
			return nil, fmt.Errorf("phrase %d length: %w", i, err)
		}
		end := off + n
		if end > int(h.ImageSize) {
			return nil, fmt.Errorf("phrase %d: ends at %d beyond image of %d bytes: %w", i, end, h.ImageSize, format.ErrCorruptData)
		}
		t.phrases[i] = image[off:end:end]
		t.longest = max(t.longest, n)
		off = end
	}
	return t, nil
}

// bitReader yields bits from little-endian dwords, least significant first.
type bitReader struct {
	b    []byte
	off  int
	word uint32
	mask uint32
}

func newBitReader(b []byte) *bitReader { return &bitReader{b: b} }

func (r *bitReader) bit() (bool, error) {
	r.mask <<= 1
	if r.mask == 0 {
		if r.off+4 > len(r.b) {
			return false, fmt.Errorf("phrase index bitstream exhausted: %w", format.ErrCorruptData)
		}
		r.word = buf.U32LE(r.b[r.off:])
		r.off += 4
		r.mask = 1
	}
	return r.word&r.mask != 0, nil
}

// phraseLength decodes one length: a unary count of 1<<bits units followed
// by up to five remainder bits, lowest first.
func (r *bitReader) phraseLength(bits int) (int, error) {
	n := 1
	for {
		set, err := r.bit()
		if err != nil {
			return 0, err
		}
		if !set {
			break
		}
		n += 1 << bits
	}
	for k := 0; k < 5 && (k == 0 || bits > k); k++ {
		set, err := r.bit()
		if err != nil {
			return 0, err
		}
		if set {
			n += 1 << k
		}
	}
	return n, nil
}

// maxExpansion bounds the bytes one source byte can produce: a phrase and
// its trailing space, or a run of 16 spaces or NULs.
func (t *PhraseTable) maxExpansion() int { return max(t.longest+1, 16) }

// Expand replaces phrase tokens in src and requires the result to be exactly
// size bytes.
func (t *PhraseTable) Expand(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("phrase expand: negative size %d: %w", size, format.ErrDecompression)
	}
	if int64(size) > int64(len(src))*int64(t.maxExpansion()) {
		return nil, fmt.Errorf("phrase expand: %d bytes cannot expand to %d: %w", len(src), size, format.ErrDecompression)
	}
	var (
		out []byte
		err error
	)
	hint := min(size, 4*len(src))
	switch t.gen {
	case Legacy:
		out, err = t.expandLegacy(make([]byte, 0, hint), src)
	case Hashed:
		out, err = t.expandHashed(make([]byte, 0, hint), src)
	default:
		return nil, fmt.Errorf("phrase expand: generation %d: %w", t.gen, format.ErrUnsupported)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("phrase expand: produced %d bytes, want %d: %w", len(out), size, format.ErrDecompression)
	}
	return out, nil
}

// expandLegacy: a byte in 1..15 and the byte after it select phrase n/2 of
// n = (c-1)*256 + next, followed by a space when n is odd.
func (t *PhraseTable) expandLegacy(out, src []byte) ([]byte, error) {
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == 0 || c >= 0x10 {
			out = append(out, c)
			continue
		}
		if i+1 >= len(src) {
			return nil, fmt.Errorf("phrase token at %d truncated: %w", i, format.ErrDecompression)
		}
		i++
		n := (int(c)-1)*256 + int(src[i])
		p, ok := t.Phrase(n >> 1)
		if !ok {
			return nil, fmt.Errorf("phrase %d of %d: %w", n>>1, t.Len(), format.ErrDecompression)
		}
		out = append(out, p...)
		if n&1 == 1 {
			out = append(out, ' ')
		}
	}
	return out, nil
}

// expandHashed decodes Hall tokens:
//
//	xxxxxxx0          phrase x
//	xxxxxx01 yyyyyyyy phrase 128 + x*256 + y
//	xxxxx011          x+1 literal bytes follow
//	xxxx0111          x+1 spaces
//	xxxx1111          x+1 NUL bytes
func (t *PhraseTable) expandHashed(out, src []byte) ([]byte, error) {
	for i := 0; i < len(src); {
		c := src[i]
		i++
		switch {
		case c&1 == 0:
			p, ok := t.Phrase(int(c >> 1))
			if !ok {
				return nil, fmt.Errorf("phrase %d of %d: %w", c>>1, t.Len(), format.ErrDecompression)
			}
			out = append(out, p...)
		case c&3 == 1:
			if i >= len(src) {
				return nil, fmt.Errorf("phrase token at %d truncated: %w", i-1, format.ErrDecompression)
			}
			n := 128 + int(c>>2)*256 + int(src[i])
			i++
			p, ok := t.Phrase(n)
			if !ok {
				return nil, fmt.Errorf("phrase %d of %d: %w", n, t.Len(), format.ErrDecompression)
			}
			out = append(out, p...)
		case c&7 == 3:
			n := int(c>>3) + 1
			if i+n > len(src) {
				return nil, fmt.Errorf("literal run of %d at %d truncated: %w", n, i-1, format.ErrDecompression)
			}
			out = append(out, src[i:i+n]...)
			i += n
		case c&15 == 7:
			for range int(c>>4) + 1 {
				out = append(out, ' ')
			}
		default:
			for range int(c>>4) + 1 {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}
