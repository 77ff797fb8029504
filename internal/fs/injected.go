package fs

import (
	"errors"
	"os"
)

// InjectedError marks an error as intentionally injected by [Injected].
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Err error
}

// Error returns the underlying error's message.
func (e *InjectedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected.
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Injected implements [FS] by delegating to an inner filesystem while
// injecting failures into selected operations. Each hook receives the
// target path and returns a non-nil error to fail the operation before
// it reaches the inner filesystem.
type Injected struct {
	Inner FS

	ReadFileErr        func(path string) error
	WriteFileAtomicErr func(path string) error
	RenameErr          func(oldpath, newpath string) error
	LockErr            func(path string) error
}

// NewInjected wraps inner with no failures configured.
func NewInjected(inner FS) *Injected {
	return &Injected{Inner: inner}
}

func (i *Injected) ReadFile(path string) ([]byte, error) {
	if i.ReadFileErr != nil {
		if err := i.ReadFileErr(path); err != nil {
			return nil, &InjectedError{Err: err}
		}
	}

	return i.Inner.ReadFile(path)
}

func (i *Injected) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if i.WriteFileAtomicErr != nil {
		if err := i.WriteFileAtomicErr(path); err != nil {
			return &InjectedError{Err: err}
		}
	}

	return i.Inner.WriteFileAtomic(path, data, perm)
}

func (i *Injected) Rename(oldpath, newpath string) error {
	if i.RenameErr != nil {
		if err := i.RenameErr(oldpath, newpath); err != nil {
			return &InjectedError{Err: err}
		}
	}

	return i.Inner.Rename(oldpath, newpath)
}

func (i *Injected) Remove(path string) error {
	return i.Inner.Remove(path)
}

func (i *Injected) Stat(path string) (os.FileInfo, error) {
	return i.Inner.Stat(path)
}

func (i *Injected) Exists(path string) (bool, error) {
	return i.Inner.Exists(path)
}

func (i *Injected) MkdirAll(path string, perm os.FileMode) error {
	return i.Inner.MkdirAll(path, perm)
}

func (i *Injected) Lock(path string) (Locker, error) {
	if i.LockErr != nil {
		if err := i.LockErr(path); err != nil {
			return nil, &InjectedError{Err: err}
		}
	}

	return i.Inner.Lock(path)
}

// Compile-time interface check.
var _ FS = (*Injected)(nil)
