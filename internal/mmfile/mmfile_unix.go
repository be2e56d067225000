//go:build unix

package mmfile

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Map maps the help file at path read-only and returns its contents with a
// release function. Release is idempotent.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // the mapping outlives the descriptor

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	if size > int64(^uint(0)>>1) {
		return nil, nil, fmt.Errorf("mmfile: %s too large to map (%d bytes)", path, size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: mmap %s: %w", path, err)
	}
	var once sync.Once
	var unmapErr error
	release := func() error {
		once.Do(func() {
			unmapErr = unix.Munmap(data)
			if errors.Is(unmapErr, unix.EINVAL) {
				unmapErr = nil
			}
		})
		return unmapErr
	}
	return data, release, nil
}
