//go:build !unix

package lifecycle

import "errors"

// ErrLocked is returned when another process holds the start lock.
var ErrLocked = errors.New("lock is held by another process")

// FileLock is a no-op where flock is unavailable.
type FileLock struct{}

// AcquireLock always succeeds on platforms without flock.
func AcquireLock(path string) (*FileLock, error) {
	return &FileLock{}, nil
}

// Release is a no-op.
func (l *FileLock) Release() error {
	return nil
}
