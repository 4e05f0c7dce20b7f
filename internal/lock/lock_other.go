//go:build !unix && !windows

package lock

import (
	"fmt"
	"os"
)

// Acquire opens the lock file without any OS-level locking; exclusivity is
// not enforced on this platform.
func Acquire(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}
	return f, nil
}

// Release closes the lock file.
func Release(f *os.File) error {
	return f.Close()
}
