// Package fs provides the filesystem abstraction used by the
// documentation store.
//
// Two implementations are provided:
//   - [Real]: production implementation over the [os] package, with
//     atomic writes and flock-based file locking
//   - [Injected]: testing implementation that injects failures into
//     selected operations
package fs

import (
	"io"
	"os"
)

// Locker represents a held file lock. Call [Locker.Close] to release.
type Locker interface {
	io.Closer
}

// FS defines the filesystem operations the store needs.
//
// All methods mirror their [os] package equivalents but can be
// intercepted for fault injection in tests.
type FS interface {
	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to path via a temp file in the same
	// directory followed by an atomic rename. A crash mid-write leaves
	// the previous committed file untouched; a partial write is never
	// observable at path. The stray temp file is removed on failure.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// Rename moves a file. See [os.Rename]. Atomic on the same
	// filesystem.
	Rename(oldpath, newpath string) error

	// Remove deletes a file. See [os.Remove].
	Remove(path string) error

	// Stat returns file info. See [os.Stat].
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file exists.
	// Returns (false, nil) if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Lock acquires an exclusive advisory lock on a dedicated lock
	// file next to path. Blocks until acquired or times out.
	Lock(path string) (Locker, error)
}
