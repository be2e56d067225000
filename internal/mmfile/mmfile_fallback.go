//go:build !unix && !windows

package mmfile

import (
	"fmt"
	"os"
)

// Map reads the whole file into memory on platforms without a mapping
// call. Release is a no-op; the slice is left to the garbage collector.
func Map(path string) ([]byte, func() error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("mmfile: %s is not a regular file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return nil }, nil
}
