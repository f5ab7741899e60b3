package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrSessionActive is returned when another process holds the session lock.
var ErrSessionActive = errors.New("another cdfinder session is already running")

// Lock is a held single-session lock.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes the exclusive session lock at path without blocking.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrSessionActive
	}
	return &Lock{lock: fl}, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
