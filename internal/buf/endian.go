// Package buf contains the bounds-checked byte helpers every HLP decoder is
// built on: little-endian field readers, a forward-only Cursor and the
// WinHelp compressed integer encodings.
package buf

import "encoding/binary"

// U16LE reads a little-endian uint16 from b. Returns 0 when b is too short.
func U16LE(b []byte) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// I16LE reads a little-endian int16 from b. Returns 0 when b is too short.
func I16LE(b []byte) int16 {
	return int16(U16LE(b))
}

// U32LE reads a little-endian uint32 from b. Returns 0 when b is too short.
func U32LE(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// I32LE reads a little-endian int32 from b. Returns 0 when b is too short.
func I32LE(b []byte) int32 {
	return int32(U32LE(b))
}
