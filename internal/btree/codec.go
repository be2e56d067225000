package btree

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/joshuapare/hlpkit/internal/buf"
	"github.com/joshuapare/hlpkit/internal/format"
)

// Codec describes the key and value layout of one kind of tree.
type Codec[K any] struct {
	// DecodeKey decodes the key at the start of b and reports its encoded size.
	DecodeKey func(b []byte) (K, int, error)
	// Compare orders keys the way the tree was built.
	Compare func(a, b K) int
	// ValueSize reports the size of the leaf value starting at b.
	ValueSize func(b []byte) (int, error)
}

// StringKeys decodes STRINGZ keys compared byte by byte. Used by the
// directory.
func StringKeys(value func([]byte) (int, error)) Codec[string] {
	return Codec[string]{
		DecodeKey: func(b []byte) (string, int, error) {
			s, n, ok := buf.CString(b, 0)
			if !ok {
				return "", 0, fmt.Errorf("unterminated string key: %w", format.ErrCorruptPage)
			}
			return string(s), n, nil
		},
		Compare: func(a, b string) int {
			return bytes.Compare([]byte(a), []byte(b))
		},
		ValueSize: value,
	}
}

// Int32Keys decodes signed long keys. Used by |CONTEXT (hash values) and
// |TTLBTREE (topic offsets).
func Int32Keys(value func([]byte) (int, error)) Codec[int32] {
	return Codec[int32]{
		DecodeKey: func(b []byte) (int32, int, error) {
			if len(b) < 4 {
				return 0, 0, fmt.Errorf("long key: %w", format.ErrCorruptPage)
			}
			return buf.I32LE(b), 4, nil
		},
		Compare:   cmp.Compare[int32],
		ValueSize: value,
	}
}

// FixedValue sizes values of n bytes.
func FixedValue(n int) func([]byte) (int, error) {
	return func(b []byte) (int, error) {
		if len(b) < n {
			return 0, fmt.Errorf("%d-byte value: %w", n, format.ErrCorruptPage)
		}
		return n, nil
	}
}

// CStringValue sizes NUL-terminated values, terminator included.
func CStringValue(b []byte) (int, error) {
	_, n, ok := buf.CString(b, 0)
	if !ok {
		return 0, fmt.Errorf("unterminated string value: %w", format.ErrCorruptPage)
	}
	return n, nil
}
