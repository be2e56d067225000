package format

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrCorruptPage indicates a B+tree page whose entries overrun the page,
	// are out of order, or point at pages that do not exist.
	ErrCorruptPage = errors.New("format: corrupt b+tree page")
	// ErrNotFound indicates a requested internal file, key or context was missing.
	ErrNotFound = errors.New("format: not found")
	// ErrDecompression indicates LZ77 or phrase expansion failed.
	ErrDecompression = errors.New("format: decompression failed")
	// ErrCorruptData indicates a record whose contents do not match its
	// declared structure (bad command byte, oversized link data).
	ErrCorruptData = errors.New("format: corrupt record data")
	// ErrCorruptHeader indicates a topic link header pointing outside the
	// topic file or backwards.
	ErrCorruptHeader = errors.New("format: corrupt topic link header")
	// ErrUnsupported indicates the structure or feature is not supported.
	ErrUnsupported = errors.New("format: unsupported feature")
)
