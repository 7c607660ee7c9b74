// Package lock provides the advisory execution lock that keeps at most
// one check-and-forward cycle running at a time, across goroutines and
// across processes sharing the same state directory.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock is a non-blocking advisory lock backed by flock(2) on a
// marker file. Acquisition fails closed: if the lock is already held the
// caller is told so immediately, it never queues.
type FileLock struct {
	fl *flock.Flock
}

// New creates a file lock at the given path, creating the parent
// directory if needed
func New(path string) (*FileLock, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}
	}

	return &FileLock{fl: flock.New(path)}, nil
}

// TryAcquire attempts to take the lock without blocking. It returns
// false when another holder already has it; that is the expected outcome
// of overlapping scheduled runs, not an error.
func (l *FileLock) TryAcquire() (bool, error) {
	locked, err := l.fl.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire execution lock: %w", err)
	}
	return locked, nil
}

// Release drops the lock. Safe to call when the lock is not held.
func (l *FileLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release execution lock: %w", err)
	}
	return nil
}

// Path returns the marker file path
func (l *FileLock) Path() string {
	return l.fl.Path()
}
