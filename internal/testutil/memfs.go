package testutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
)

// MemFS is an in-memory fsys.FS. Paths are used as given after cleaning;
// there are no symlinks, so Canonical only checks existence.
type MemFS struct {
	mu     sync.Mutex
	files  map[string][]byte
	reads  map[string]int
	writes int

	// WriteErr, when set, is returned by every WriteFile call.
	WriteErr error
}

// NewMemFS creates a MemFS holding files (absolute path -> content).
func NewMemFS(files map[string]string) *MemFS {
	m := &MemFS{files: make(map[string][]byte), reads: make(map[string]int)}
	for p, c := range files {
		m.files[filepath.Clean(p)] = []byte(c)
	}
	return m
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.reads[path]++
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFS) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.writes++
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	return nil
}

func (m *MemFS) ResolveRelative(base, spec string) (string, error) {
	if filepath.IsAbs(spec) {
		return filepath.Clean(spec), nil
	}
	if !filepath.IsAbs(base) {
		return "", errors.New("memfs: base must be absolute: " + base)
	}
	return filepath.Join(base, filepath.FromSlash(spec)), nil
}

func (m *MemFS) Canonical(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if _, ok := m.files[path]; !ok {
		return "", &fs.PathError{Op: "lstat", Path: path, Err: fs.ErrNotExist}
	}
	return path, nil
}

// Reads returns how many times path was read.
func (m *MemFS) Reads(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[filepath.Clean(path)]
}

// File returns the stored contents of path.
func (m *MemFS) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

// Writes returns the number of successful WriteFile calls.
func (m *MemFS) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
