package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock guards the data directory with a cross-process file lock so that
// two concurrent ingestion runs cannot corrupt the indexes. Works on all
// platforms (Unix, Linux, macOS, Windows).
type RunLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewRunLock creates a lock backed by the file at path. The file is created
// on first acquisition.
func NewRunLock(path string) *RunLock {
	return &RunLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Acquire attempts to take the lock without blocking. It returns an error
// when another process already holds it.
func (l *RunLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("another ingestion run is already in progress (lock held at %s)", l.path)
	}

	l.locked = true
	return nil
}

// Release releases the lock. Safe to call multiple times or on an
// unacquired lock.
func (l *RunLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *RunLock) Path() string {
	return l.path
}
