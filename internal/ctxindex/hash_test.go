package ctxindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKnownValues(t *testing.T) {
	tests := map[string]uint32{
		"":         1,
		"A":        0x11,
		"B":        0x12,
		"HELP":     0x001DBA49,
		"INDEX":    0x053D24A6,
		"CONTENTS": 0x25F4558A,
		"TEST":     0x002C4A5E,
	}
	for name, want := range tests {
		assert.Equal(t, want, Hash(name), "Hash(%q)", name)
	}
}

func TestHashIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"help", "Contents", "index_topic", "IDH_FILE_OPEN"} {
		upper := []byte(name)
		for i, c := range upper {
			if c >= 'a' && c <= 'z' {
				upper[i] = c - 'a' + 'A'
			}
		}
		assert.Equal(t, Hash(string(upper)), Hash(name), name)
	}
}

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, Hash("main_window"), Hash("main_window"))
	assert.NotEqual(t, Hash("main_window"), Hash("main_windows"))
}
