//go:build unix

package mmfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.hlp")
	want := []byte{0x3F, 0x5F, 0x03, 0x00, 0x42}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	data, release, err := Map(path)
	require.NoError(t, err)
	require.Equal(t, want, data)
	require.NoError(t, release())
	require.NoError(t, release(), "release is idempotent")
}

func TestMapZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.hlp")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	data, release, err := Map(path)
	require.NoError(t, err)
	require.Empty(t, data)
	require.NotNil(t, release)
	require.NoError(t, release())
}

func TestMapMissing(t *testing.T) {
	_, _, err := Map(filepath.Join(t.TempDir(), "absent.hlp"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
