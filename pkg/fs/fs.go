// Package fs provides a small filesystem abstraction for the registry's
// ambient file use: the initializer daemon's ready marker (spec §4.3a)
// and advisory locking for the optional reaper (spec §5).
//
// Only the surface those callers actually need is exposed here -- this is
// not a general-purpose os.* facade.
package fs

import (
	"io"
	"os"
)

// File represents an open file descriptor, satisfied by [os.File].
type File interface {
	io.ReadCloser

	// Fd returns the file descriptor, used for syscall.Flock in Real.Lock.
	Fd() uintptr

	// Stat returns the os.FileInfo for this file.
	Stat() (os.FileInfo, error)
}

// Locker represents a held advisory file lock. Call Close to release it.
type Locker interface {
	io.Closer
}

// FS defines the filesystem operations the registry's ambient code
// needs. Only [Real] is provided here -- the registry's only on-disk use
// is the ready marker and the lock file, both best-effort and
// non-durable, so there is no crash-consistency invariant for a
// fault-injecting fake to validate (see DESIGN.md).
type FS interface {
	// Open opens a file for reading. See [os.Open].
	Open(path string) (File, error)

	// ReadFile reads an entire file into memory. See [os.ReadFile].
	ReadFile(path string) ([]byte, error)

	// WriteFileAtomic writes data to path via a temp file + rename so
	// concurrent readers never observe a partial write.
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// Remove deletes a file. See [os.Remove].
	Remove(path string) error

	// MkdirAll creates a directory and all parents. See [os.MkdirAll].
	MkdirAll(path string, perm os.FileMode) error

	// Lock acquires an exclusive advisory lock associated with path,
	// verified against the lock file's inode to detect lock-file
	// replacement races. Blocks until acquired or a timeout elapses.
	Lock(path string) (Locker, error)
}

var _ File = (*os.File)(nil)
