//go:build unix

package lock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Acquire takes an exclusive, non-blocking advisory lock on the file at path,
// creating it if needed.
//
// On Unix systems this uses flock(2). The returned file must stay open for as
// long as the lock is held.
func Acquire(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, fmt.Errorf("%s: %w", path, ErrLocked)
		}
		return nil, fmt.Errorf("unable to lock %s: %w", path, err)
	}

	return f, nil
}

// Release drops a lock taken by Acquire and closes the file.
func Release(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
