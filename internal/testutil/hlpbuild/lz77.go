// Package hlpbuild assembles synthetic WinHelp images for tests: LZ77
// streams, phrase tables, B+trees, topic files and complete containers.
// The output follows the on-disk layouts byte for byte so the decoders can
// be exercised without shipping real help files.
package hlpbuild

// LZ77 compresses src with a greedy longest-match search over a 4 KiB
// window. Matches of 3..18 bytes become back-references; everything else is
// emitted literally.
func LZ77(src []byte) []byte {
	const (
		window   = 0x1000
		minMatch = 3
		maxMatch = 18
	)
	var out []byte
	for i := 0; i < len(src); {
		flagPos := len(out)
		out = append(out, 0)
		for bit := 0; bit < 8 && i < len(src); bit++ {
			bestLen, bestDist := 0, 0
			lo := max(0, i-window)
			for j := i - 1; j >= lo; j-- {
				n := 0
				for n < maxMatch && i+n < len(src) && src[j+n] == src[i+n] {
					n++
				}
				if n > bestLen {
					bestLen, bestDist = n, i-j
					if n == maxMatch {
						break
					}
				}
			}
			if bestLen < minMatch {
				out = append(out, src[i])
				i++
				continue
			}
			w := (bestLen-minMatch)<<12 | (bestDist - 1)
			out = append(out, byte(w), byte(w>>8))
			out[flagPos] |= 1 << bit
			i += bestLen
		}
	}
	return out
}

// LZ77Literal encodes src using literal tokens only.
func LZ77Literal(src []byte) []byte {
	var out []byte
	for i := 0; i < len(src); i += 8 {
		out = append(out, 0)
		out = append(out, src[i:min(i+8, len(src))]...)
	}
	return out
}
