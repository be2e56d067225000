package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := &Error{Kind: ErrKindNotFound, Msg: "context IDH_X", Offset: -1}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrCorruptData))

	wrapped := fmt.Errorf("lookup: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)

	te := &TopicError{Pos: 0x100C, Block: 0, Err: &Error{Kind: ErrKindDecompression, Msg: "lz77", Offset: 0x100C}}
	assert.ErrorIs(t, te, ErrDecompression)
	assert.Contains(t, te.Error(), "0x0000100C")
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("short")
	err := &Error{Kind: ErrKindCorruptPage, Msg: "directory", Offset: 0x40, Err: cause}
	assert.Equal(t, "directory at 0x40: short", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Equal(t, "not found", ErrNotFound.Error())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{Version: Version30}.Validate())
	require.NoError(t, Config{Version: Version31, Compression: CompressLZ77 | CompressPhrase, TopicBlockSize: 4096}.Validate())

	assert.ErrorIs(t, Config{}.Validate(), ErrUnsupported)
	assert.ErrorIs(t, Config{Version: Version31, TopicBlockSize: 1000}.Validate(), ErrUnsupported)
	assert.ErrorIs(t, Config{Version: Version40, Compression: CompressPhrase | CompressHall}.Validate(), ErrUnsupported)
	assert.ErrorIs(t, Config{Version: Version30, Compression: CompressLZ77}.Validate(), ErrUnsupported)
}

func TestConfigBlockSize(t *testing.T) {
	assert.Equal(t, 2048, Config{Version: Version30}.BlockSize())
	assert.Equal(t, 4096, Config{Version: Version31}.BlockSize())
	assert.Equal(t, 2048, Config{Version: Version40, TopicBlockSize: 2048}.BlockSize())
}

func TestDiagnosticReport(t *testing.T) {
	r := NewDiagnosticReport()
	r.Add(Diagnostic{Severity: SevWarning, Category: DiagData, Offset: 0x200, Structure: "TOPICLINK", Issue: "skipped"})
	r.Add(Diagnostic{Severity: SevError, Category: DiagStructure, Offset: 0x10, Structure: "DIRECTORY", Issue: "bad entry", File: "|FOO"})
	r.Finalize()

	assert.True(t, r.HasErrors())
	assert.Equal(t, uint64(0x10), r.ByOffset[0].Offset)
	assert.Len(t, r.ByStructure["TOPICLINK"], 1)
	assert.Contains(t, r.FormatText(), "File:     |FOO")
	assert.Contains(t, r.FormatTextCompact(), "0x00000200 [WARNING/TOPICLINK/DATA] skipped")

	js, err := r.FormatJSON()
	require.NoError(t, err)
	assert.Contains(t, js, `"structure": "DIRECTORY"`)
}
