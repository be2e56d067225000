package buf

import "fmt"

// WinHelp stores many integers in a variable-width form whose width is
// selected by the low bit of the first byte (or word). Signed variants are
// biased by half the range of the chosen width.
//
//	form            low bit 0              low bit 1
//	------------    -------------------    -----------------------
//	unsigned short  1 byte,  value = b>>1  2 bytes, value = w>>1
//	signed short    1 byte,  (b>>1)-0x40   2 bytes, (w>>1)-0x4000
//	unsigned long   2 bytes, value = w>>1  4 bytes, value = d>>1
//	signed long     2 bytes, (w>>1)-0x4000 4 bytes, (d>>1)-0x40000000
//
// Each decoder returns the value and the number of bytes it consumed, and
// advances the cursor by exactly that amount. On error the cursor does not
// move.

// CompressedU16 decodes a compressed unsigned short.
func (c *Cursor) CompressedU16() (uint16, int, error) {
	b, err := c.Peek(1)
	if err != nil {
		return 0, 0, fmt.Errorf("compressed u16: %w", err)
	}
	if b[0]&1 == 0 {
		c.off++
		return uint16(b[0] >> 1), 1, nil
	}
	w, err := c.U16()
	if err != nil {
		return 0, 0, fmt.Errorf("compressed u16: %w", err)
	}
	return w >> 1, 2, nil
}

// CompressedI16 decodes a compressed signed short.
func (c *Cursor) CompressedI16() (int16, int, error) {
	b, err := c.Peek(1)
	if err != nil {
		return 0, 0, fmt.Errorf("compressed i16: %w", err)
	}
	if b[0]&1 == 0 {
		c.off++
		return int16(b[0]>>1) - 0x40, 1, nil
	}
	w, err := c.U16()
	if err != nil {
		return 0, 0, fmt.Errorf("compressed i16: %w", err)
	}
	return int16(w>>1) - 0x4000, 2, nil
}

// CompressedU32 decodes a compressed unsigned long.
func (c *Cursor) CompressedU32() (uint32, int, error) {
	b, err := c.Peek(1)
	if err != nil {
		return 0, 0, fmt.Errorf("compressed u32: %w", err)
	}
	if b[0]&1 == 0 {
		w, err := c.U16()
		if err != nil {
			return 0, 0, fmt.Errorf("compressed u32: %w", err)
		}
		return uint32(w >> 1), 2, nil
	}
	d, err := c.U32()
	if err != nil {
		return 0, 0, fmt.Errorf("compressed u32: %w", err)
	}
	return d >> 1, 4, nil
}

// CompressedI32 decodes a compressed signed long.
func (c *Cursor) CompressedI32() (int32, int, error) {
	b, err := c.Peek(1)
	if err != nil {
		return 0, 0, fmt.Errorf("compressed i32: %w", err)
	}
	if b[0]&1 == 0 {
		w, err := c.U16()
		if err != nil {
			return 0, 0, fmt.Errorf("compressed i32: %w", err)
		}
		return int32(w>>1) - 0x4000, 2, nil
	}
	d, err := c.U32()
	if err != nil {
		return 0, 0, fmt.Errorf("compressed i32: %w", err)
	}
	return int32(d>>1) - 0x40000000, 4, nil
}

// AppendCompressedU16 appends the shortest encoding of v. Values must be
// below 0x8000.
func AppendCompressedU16(dst []byte, v uint16) []byte {
	if v < 0x80 {
		return append(dst, byte(v<<1))
	}
	w := v<<1 | 1
	return append(dst, byte(w), byte(w>>8))
}

// AppendCompressedI16 appends the shortest encoding of v. Values must lie in
// [-0x4000, 0x4000).
func AppendCompressedI16(dst []byte, v int16) []byte {
	if v >= -0x40 && v < 0x40 {
		return append(dst, byte((v+0x40)<<1))
	}
	w := uint16(v+0x4000)<<1 | 1
	return append(dst, byte(w), byte(w>>8))
}

// AppendCompressedU32 appends the shortest encoding of v. Values must be
// below 0x80000000.
func AppendCompressedU32(dst []byte, v uint32) []byte {
	if v < 0x8000 {
		w := uint16(v << 1)
		return append(dst, byte(w), byte(w>>8))
	}
	d := v<<1 | 1
	return append(dst, byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
}

// AppendCompressedI32 appends the shortest encoding of v. Values must lie in
// [-0x40000000, 0x40000000).
func AppendCompressedI32(dst []byte, v int32) []byte {
	if v >= -0x4000 && v < 0x4000 {
		w := uint16(v+0x4000) << 1
		return append(dst, byte(w), byte(w>>8))
	}
	d := uint32(v+0x40000000)<<1 | 1
	return append(dst, byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
}
