package fs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"golang.org/x/sys/unix"
)

// LockTimeout is the timeout for acquiring a file lock.
const LockTimeout = 5 * time.Second

const (
	lockRetryInterval = 10 * time.Millisecond
	lockPerms         = 0o644
)

// Lock errors.
var (
	ErrLockTimeout  = errors.New("lock timeout")
	ErrLockFileOpen = errors.New("failed to open lock file")
)

// Real implements [FS] using the real filesystem.
//
// All methods are passthroughs to the [os] package except
// [Real.WriteFileAtomic], which commits via temp-file-plus-rename, and
// [Real.Lock], which holds an flock on a sidecar .lock file.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// A passthrough wrapper for [os.ReadFile].
func (r *Real) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) //nolint:gosec // path is from caller
}

func (r *Real) WriteFileAtomic(path string, data []byte, _ os.FileMode) error {
	return atomic.WriteFile(path, bytes.NewReader(data))
}

// A passthrough wrapper for [os.Rename].
func (r *Real) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// A passthrough wrapper for [os.Remove].
func (r *Real) Remove(path string) error {
	return os.Remove(path)
}

// A passthrough wrapper for [os.Stat].
func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Exists checks if a file exists using [os.Stat].
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// A passthrough wrapper for [os.MkdirAll].
func (r *Real) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// realLock holds an exclusive flock on a sidecar lock file.
type realLock struct {
	file *os.File
}

func (l *realLock) Close() error {
	if l.file == nil {
		return nil
	}

	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil

	return err
}

// Lock acquires an exclusive lock on path + ".lock".
// Uses a separate lock file to avoid interfering with atomic renames
// of the main file.
func (r *Real) Lock(path string) (Locker, error) {
	lockPath := path + ".lock"

	file, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockPerms) //nolint:gosec // path is from caller
	if openErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockFileOpen, openErr)
	}

	deadline := time.Now().Add(LockTimeout)

	for {
		flockErr := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if flockErr == nil {
			return &realLock{file: file}, nil
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}

		time.Sleep(lockRetryInterval)
	}
}

// Compile-time interface check.
var _ FS = (*Real)(nil)
