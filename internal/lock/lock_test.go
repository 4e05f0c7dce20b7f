//go:build unix

package lock

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLock(t *testing.T) {
	t.Run("second acquire fails while the lock is held", func(t *testing.T) {
		path := PathFor(filepath.Join(t.TempDir(), "kvstore.log"))

		f, err := Acquire(path)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		defer Release(f)

		if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
			t.Fatalf("expected ErrLocked, got %v", err)
		}
	})

	t.Run("acquire succeeds after release", func(t *testing.T) {
		path := PathFor(filepath.Join(t.TempDir(), "kvstore.log"))

		f, err := Acquire(path)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := Release(f); err != nil {
			t.Fatalf("Release failed: %v", err)
		}

		f, err = Acquire(path)
		if err != nil {
			t.Fatalf("Acquire after release failed: %v", err)
		}
		Release(f)
	})
}
