package filesystems

import (
	"io/fs"
	"path"
	"sort"
	"sync"
)

// MemoryFS implements FileSystem for in-memory filesystem operations
type MemoryFS struct {
	mu    sync.Mutex
	files map[string]memoryFile
	dirs  map[string]bool
}

type memoryFile struct {
	content []byte
	perm    fs.FileMode
}

// NewMemoryFS creates a new MemoryFS instance
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: make(map[string]memoryFile),
		dirs:  map[string]bool{".": true, "/": true},
	}
}

// AddFile adds a file to the memory filesystem, creating parent directories.
func (mfs *MemoryFS) AddFile(name string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	name = path.Clean(name)
	mfs.files[name] = memoryFile{content: content, perm: 0644}
	mfs.addParents(name)
}

// AddDir adds a directory to the memory filesystem
func (mfs *MemoryFS) AddDir(name string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	name = path.Clean(name)
	mfs.dirs[name] = true
	mfs.addParents(name)
}

func (mfs *MemoryFS) addParents(name string) {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		mfs.dirs[dir] = true
	}
}

// Mode returns the permission bits a file was written with.
func (mfs *MemoryFS) Mode(name string) (fs.FileMode, bool) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	f, ok := mfs.files[path.Clean(name)]
	return f.perm, ok
}

// Files returns the sorted names of all files.
func (mfs *MemoryFS) Files() []string {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	names := make([]string, 0, len(mfs.files))
	for name := range mfs.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (mfs *MemoryFS) ReadFile(name string) ([]byte, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	f, ok := mfs.files[path.Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), f.content...), nil
}

func (mfs *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	clean := path.Clean(name)
	if !mfs.dirs[path.Dir(clean)] {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if mfs.dirs[clean] {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	mfs.files[clean] = memoryFile{content: append([]byte(nil), data...), perm: perm}
	return nil
}

func (mfs *MemoryFS) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	clean := path.Clean(name)
	if _, ok := mfs.files[clean]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(mfs.files, clean)
	return nil
}

func (mfs *MemoryFS) Join(elem ...string) string {
	return path.Join(elem...)
}

func (mfs *MemoryFS) Dir(p string) string {
	return path.Dir(p)
}

func (mfs *MemoryFS) IsAbs(p string) bool {
	return path.IsAbs(p)
}
