// Package fsys is the file-system seam of the bundler: reading sources,
// resolving relative import paths and persisting the finished bundle.
package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS is the set of file-system operations the build depends on.
type FS interface {
	// ReadFile returns the full contents of the named file.
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces path with data. Readers observe either the old
	// contents or the complete new contents, never a partial write.
	WriteFile(path string, data []byte) error
	// ResolveRelative joins spec onto the directory base and returns a clean
	// absolute path. It does not check that the result exists.
	ResolveRelative(base, spec string) (string, error)
	// Canonical returns the identity key for an existing file: absolute,
	// cleaned and with symlinks evaluated.
	Canonical(path string) (string, error)
}

// OS implements FS on the host file system.
type OS struct{}

// New returns the host file system.
func New() *OS {
	return &OS{}
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes to a temporary file in the target directory and renames
// it over path once the data is flushed. Missing parent directories are
// created.
func (OS) WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file in %s: %w", dir, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (OS) ResolveRelative(base, spec string) (string, error) {
	if filepath.IsAbs(spec) {
		return filepath.Clean(spec), nil
	}
	return filepath.Abs(filepath.Join(base, filepath.FromSlash(spec)))
}

func (OS) Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// IsRelativeSpecifier reports whether an import specifier is a path the
// bundler can resolve on its own ("./x", "../x" or "/x"). Bare package
// names like "react" are not.
func IsRelativeSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") ||
		strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/") ||
		spec == "." || spec == ".."
}

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
