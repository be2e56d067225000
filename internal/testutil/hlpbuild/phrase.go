package hlpbuild

import "encoding/binary"

// LegacyPhrases builds a |PHRASE file. compressed selects the 3.1 layout with
// an LZ77 compressed phrase text.
func LegacyPhrases(phrases []string, compressed bool) []byte {
	n := len(phrases)
	var text []byte
	offs := make([]uint16, n+1)
	offs[0] = uint16(2 * (n + 1))
	for i, p := range phrases {
		text = append(text, p...)
		offs[i+1] = offs[i] + uint16(len(p))
	}

	out := binary.LittleEndian.AppendUint16(nil, uint16(n))
	out = binary.LittleEndian.AppendUint16(out, 0x0100)
	if compressed {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(text)))
	}
	for _, o := range offs {
		out = binary.LittleEndian.AppendUint16(out, o)
	}
	if compressed {
		return append(out, LZ77(text)...)
	}
	return append(out, text...)
}

// LegacyToken encodes a reference to phrase i, optionally followed by a
// space.
func LegacyToken(i int, space bool) []byte {
	n := i * 2
	if space {
		n++
	}
	return []byte{byte(n/256 + 1), byte(n % 256)}
}

// HallPhrases builds the |PhrIndex and |PhrImage pair. The image is LZ77
// compressed when compress is set.
func HallPhrases(phrases []string, bits int, compress bool) (index, image []byte) {
	var raw []byte
	for _, p := range phrases {
		raw = append(raw, p...)
	}
	image = raw
	if compress {
		image = LZ77(raw)
	}

	var w bitWriter
	for _, p := range phrases {
		rem := len(p) - 1
		for range rem >> bits {
			w.put(true)
		}
		w.put(false)
		r := rem & (1<<bits - 1)
		for k := 0; k < 5 && (k == 0 || bits > k); k++ {
			w.put(r&(1<<k) != 0)
		}
	}
	stream := w.bytes()

	hdr := make([]byte, 30)
	binary.LittleEndian.PutUint32(hdr[0x00:], 0x4A01)
	binary.LittleEndian.PutUint32(hdr[0x04:], uint32(len(phrases)))
	binary.LittleEndian.PutUint32(hdr[0x08:], uint32(30+len(stream)))
	binary.LittleEndian.PutUint32(hdr[0x0C:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(hdr[0x10:], uint32(len(image)))
	binary.LittleEndian.PutUint16(hdr[0x18:], uint16(bits))
	binary.LittleEndian.PutUint16(hdr[0x1A:], 0x4A00)
	return append(hdr, stream...), image
}

type bitWriter struct {
	words []uint32
	n     int
}

func (w *bitWriter) put(set bool) {
	if w.n%32 == 0 {
		w.words = append(w.words, 0)
	}
	if set {
		w.words[len(w.words)-1] |= 1 << (w.n % 32)
	}
	w.n++
}

func (w *bitWriter) bytes() []byte {
	var out []byte
	for _, v := range w.words {
		out = binary.LittleEndian.AppendUint32(out, v)
	}
	return out
}

// HallPhrase encodes a reference to phrase i in Hall token form.
func HallPhrase(i int) []byte {
	if i < 128 {
		return []byte{byte(i << 1)}
	}
	i -= 128
	return []byte{byte((i/256)<<2 | 1), byte(i % 256)}
}

// HallLiteral encodes up to 32 literal bytes.
func HallLiteral(b []byte) []byte {
	return append([]byte{byte((len(b)-1)<<3 | 3)}, b...)
}

// HallSpaces encodes n (1..16) spaces.
func HallSpaces(n int) []byte { return []byte{byte((n-1)<<4 | 7)} }

// HallNULs encodes n (1..16) NUL bytes.
func HallNULs(n int) []byte { return []byte{byte((n-1)<<4 | 15)} }
