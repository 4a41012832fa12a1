package filesystems

import (
	"io/fs"
)

// FileSystem abstracts the file operations sloop performs on configuration
// files and installed units, so both can be exercised in memory.
type FileSystem interface {
	// ReadFile reads the named file and returns its contents
	ReadFile(name string) ([]byte, error)

	// WriteFile replaces the named file with data. The parent directory
	// must already exist.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Remove deletes the named file. Errors wrap fs.ErrNotExist when the
	// file is absent.
	Remove(name string) error

	// Join joins path elements into a single path
	Join(elem ...string) string

	// Dir returns all but the last element of path
	Dir(path string) string

	// IsAbs reports whether path is absolute
	IsAbs(path string) bool
}
