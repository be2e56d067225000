// Package compress implements the two compression schemes of WinHelp files:
// the LZ77 variant used for topic blocks and phrase images, and phrase
// substitution (legacy |PHRASE and Hall |PhrIndex/|PhrImage tables).
//
// Callers choose the primitive from the file's configuration; nothing here
// inspects internal file names.
package compress

import (
	"fmt"

	"github.com/joshuapare/hlpkit/internal/format"
)

// LZ77 token layout: a flag byte governs the next eight tokens, least
// significant bit first. A clear bit is a literal byte; a set bit is a
// little-endian word holding a back-reference:
//
//	bits 0..11  distance - 1
//	bits 12..15 length - 3
const (
	lz77MinMatch    = 3
	lz77MaxDistance = 0x1000

	// A flag byte and eight back-references of 18 bytes: 17 bytes in, 144
	// out. No stream expands by more.
	lz77MaxExpansion = 9
)

// LZ77 expands src and requires the result to be exactly size bytes.
func LZ77(src []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("lz77: negative size %d: %w", size, format.ErrDecompression)
	}
	if size > lz77MaxExpansion*len(src) {
		return nil, fmt.Errorf("lz77: %d bytes cannot expand to %d: %w", len(src), size, format.ErrDecompression)
	}
	out, err := lz77(make([]byte, 0, size), src, size)
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("lz77: produced %d bytes, want %d: %w", len(out), size, format.ErrDecompression)
	}
	return out, nil
}

// LZ77Bounded expands all of src, failing if more than limit bytes would be
// produced. Topic blocks carry no decompressed length; limit is the largest
// payload a block may expand to.
func LZ77Bounded(src []byte, limit int) ([]byte, error) {
	return lz77(make([]byte, 0, min(limit, 4*len(src))), src, limit)
}

func lz77(out, src []byte, limit int) ([]byte, error) {
	i := 0
	for i < len(src) {
		flags := src[i]
		i++
		for bit := 0; bit < 8 && i < len(src); bit++ {
			if flags&(1<<bit) == 0 {
				if len(out) >= limit {
					return nil, fmt.Errorf("lz77: output exceeds %d bytes: %w", limit, format.ErrDecompression)
				}
				out = append(out, src[i])
				i++
				continue
			}
			if i+1 >= len(src) {
				return nil, fmt.Errorf("lz77: truncated back-reference at %d: %w", i, format.ErrDecompression)
			}
			w := int(src[i]) | int(src[i+1])<<8
			i += 2
			dist := w&(lz77MaxDistance-1) + 1
			n := w>>12 + lz77MinMatch
			if dist > len(out) {
				return nil, fmt.Errorf("lz77: back-reference distance %d exceeds %d bytes produced: %w",
					dist, len(out), format.ErrDecompression)
			}
			if len(out)+n > limit {
				return nil, fmt.Errorf("lz77: output exceeds %d bytes: %w", limit, format.ErrDecompression)
			}
			// Byte by byte: the source may overlap the bytes being produced.
			start := len(out) - dist
			for k := 0; k < n; k++ {
				out = append(out, out[start+k])
			}
		}
	}
	return out, nil
}
