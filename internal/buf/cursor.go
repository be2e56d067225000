package buf

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when a read would run past the end of the
// cursor's buffer. Callers map it onto the error kind of the structure being
// decoded.
var ErrShortBuffer = errors.New("buf: short buffer")

// Cursor is a forward-only reader over an immutable byte slice. Reads never
// panic: every accessor checks bounds and returns ErrShortBuffer instead.
// The zero value reads from an empty buffer.
type Cursor struct {
	b   []byte
	off int
}

// NewCursor returns a cursor positioned at the start of b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Offset is the current read position.
func (c *Cursor) Offset() int { return c.off }

// Len is the size of the underlying buffer.
func (c *Cursor) Len() int { return len(c.b) }

// Remaining is the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.b) - c.off }

// Rest returns the unread bytes without advancing.
func (c *Cursor) Rest() []byte { return c.b[c.off:] }

// Seek moves to an absolute offset. Seeking to Len() is allowed.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.b) {
		return fmt.Errorf("seek to %d of %d: %w", off, len(c.b), ErrShortBuffer)
	}
	c.off = off
	return nil
}

// Skip advances n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.Next(n)
	return err
}

// Next returns the next n bytes as a view into the buffer and advances.
func (c *Cursor) Next(n int) ([]byte, error) {
	b, ok := Slice(c.b, c.off, n)
	if !ok {
		return nil, fmt.Errorf("read %d bytes at %d of %d: %w", n, c.off, len(c.b), ErrShortBuffer)
	}
	c.off += n
	return b, nil
}

// Peek returns the next n bytes without advancing.
func (c *Cursor) Peek(n int) ([]byte, error) {
	b, ok := Slice(c.b, c.off, n)
	if !ok {
		return nil, fmt.Errorf("peek %d bytes at %d of %d: %w", n, c.off, len(c.b), ErrShortBuffer)
	}
	return b, nil
}

func (c *Cursor) U8() (uint8, error) {
	b, err := c.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) U16() (uint16, error) {
	b, err := c.Next(2)
	if err != nil {
		return 0, err
	}
	return U16LE(b), nil
}

func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

func (c *Cursor) U32() (uint32, error) {
	b, err := c.Next(4)
	if err != nil {
		return 0, err
	}
	return U32LE(b), nil
}

func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// CString reads a NUL-terminated string and returns it without the
// terminator. A missing terminator is an error and leaves the cursor where it
// was.
func (c *Cursor) CString() ([]byte, error) {
	s, n, ok := CString(c.b, c.off)
	if !ok {
		return nil, fmt.Errorf("unterminated string at %d: %w", c.off, ErrShortBuffer)
	}
	c.off += n
	return s, nil
}
