package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedU16(t *testing.T) {
	tests := []struct {
		name  string
		in    []byte
		want  uint16
		bytes int
	}{
		{"one byte zero", []byte{0x00}, 0, 1},
		{"one byte max", []byte{0xFE}, 0x7F, 1},
		{"two bytes", []byte{0x01, 0x01}, 0x80, 2},
		{"two bytes max", []byte{0xFF, 0xFF}, 0x7FFF, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.in)
			v, n, err := c.CompressedU16()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.bytes, n)
			assert.Equal(t, tt.bytes, c.Offset())
		})
	}
}

func TestCompressedSigned(t *testing.T) {
	c := NewCursor([]byte{0x80})
	v, n, err := c.CompressedI16()
	require.NoError(t, err)
	assert.Equal(t, int16(0), v)
	assert.Equal(t, 1, n)

	c = NewCursor([]byte{0x00})
	v, _, err = c.CompressedI16()
	require.NoError(t, err)
	assert.Equal(t, int16(-0x40), v)

	c = NewCursor([]byte{0x00, 0x80})
	l, n, err := c.CompressedI32()
	require.NoError(t, err)
	assert.Equal(t, int32(0), l)
	assert.Equal(t, 2, n)

	c = NewCursor([]byte{0x01, 0x00, 0x00, 0x00})
	l, n, err = c.CompressedI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-0x40000000), l)
	assert.Equal(t, 4, n)
}

func TestCompressedU32(t *testing.T) {
	c := NewCursor([]byte{0x10, 0x00, 0x03, 0x00, 0x02, 0x00})
	v, n, err := c.CompressedU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(8), v)
	assert.Equal(t, 2, n)

	v, n, err = c.CompressedU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00010001), v)
	assert.Equal(t, 4, n)
}

func TestCompressedTruncated(t *testing.T) {
	for name, read := range map[string]func(*Cursor) error{
		"u16": func(c *Cursor) error { _, _, err := c.CompressedU16(); return err },
		"i16": func(c *Cursor) error { _, _, err := c.CompressedI16(); return err },
		"u32": func(c *Cursor) error { _, _, err := c.CompressedU32(); return err },
		"i32": func(c *Cursor) error { _, _, err := c.CompressedI32(); return err },
	} {
		t.Run(name, func(t *testing.T) {
			c := NewCursor([]byte{0x01})
			require.ErrorIs(t, read(c), ErrShortBuffer)
			assert.Equal(t, 0, c.Offset())

			require.ErrorIs(t, read(NewCursor(nil)), ErrShortBuffer)
		})
	}
}

func TestCompressedRoundTrip(t *testing.T) {
	var enc []byte
	u16s := []uint16{0, 1, 0x7F, 0x80, 0x1234, 0x7FFF}
	i16s := []int16{0, -1, -0x40, 0x3F, 0x40, -0x41, -0x4000, 0x3FFF}
	u32s := []uint32{0, 0x7FFF, 0x8000, 0x12345678, 0x7FFFFFFF}
	i32s := []int32{0, -0x4000, 0x3FFF, 0x4000, -0x4001, -0x40000000, 0x3FFFFFFF}
	for _, v := range u16s {
		enc = AppendCompressedU16(enc, v)
	}
	for _, v := range i16s {
		enc = AppendCompressedI16(enc, v)
	}
	for _, v := range u32s {
		enc = AppendCompressedU32(enc, v)
	}
	for _, v := range i32s {
		enc = AppendCompressedI32(enc, v)
	}

	c := NewCursor(enc)
	total := 0
	for _, want := range u16s {
		got, n, err := c.CompressedU16()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		total += n
	}
	for _, want := range i16s {
		got, n, err := c.CompressedI16()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		total += n
	}
	for _, want := range u32s {
		got, n, err := c.CompressedU32()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		total += n
	}
	for _, want := range i32s {
		got, n, err := c.CompressedI32()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		total += n
	}
	assert.Equal(t, len(enc), total)
	assert.Equal(t, 0, c.Remaining())
}
