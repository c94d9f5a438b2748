// Package applock enforces single-instance execution with a lock file.
package applock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyLocked is returned when another process holds the lock.
var ErrAlreadyLocked = errors.New("another instance is already running")

// Lock guards against concurrent application instances.
type Lock struct {
	path string
	lock *flock.Flock
}

// New prepares a lock at path without acquiring it.
func New(path string) *Lock {
	return &Lock{
		path: path,
		lock: flock.New(path),
	}
}

// Acquire takes the lock without blocking. A held lock fails fast with
// ErrAlreadyLocked rather than queueing behind the other instance.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("prepare lock directory: %w", err)
	}

	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyLocked
	}
	return nil
}

// Release drops the lock; safe to call when not held.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }
