package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/ascii-star/internal/apperr"
)

// Library implements Provider backed by a local directory.
type Library struct {
	root string // absolute path to the library directory
}

// NewLibrary creates a Library rooted at dir. The directory does not have to
// exist yet; listing a missing root fails and callers treat that as empty.
func NewLibrary(dir string) (*Library, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &Library{root: abs}, nil
}

// Root returns the absolute library directory.
func (l *Library) Root() string {
	return l.root
}

// RoutePath joins a route prefix and a library-relative path into the
// slash-separated form served over HTTP, e.g. RoutePath("song", "a.txt") is
// "song/a.txt". The static handlers resolve requests with the same cleaning
// rules, so every path built here can be fetched back.
func RoutePath(route, rel string) (string, error) {
	cleaned, err := cleanRel(rel)
	if err != nil {
		return "", err
	}
	return path.Join(route, cleaned), nil
}

// cleanRel normalises a slash-separated relative path and rejects absolute
// paths and anything that climbs above the root.
func cleanRel(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("storage: empty path: %w", apperr.ErrNotFound)
	}
	if strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("storage: absolute path %q: %w", rel, apperr.ErrOutsideRoot)
	}
	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("storage: %q: %w", rel, apperr.ErrOutsideRoot)
	}
	return cleaned, nil
}

// Resolve maps a library-relative path to an absolute file system path.
func (l *Library) Resolve(rel string) (string, error) {
	cleaned, err := cleanRel(rel)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(l.root, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(abs, l.root+string(os.PathSeparator)) && abs != l.root {
		return "", fmt.Errorf("storage: %q: %w", rel, apperr.ErrOutsideRoot)
	}
	return abs, nil
}

// List returns the entries directly under the root, sorted by name.
func (l *Library) List() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", l.root, err)
	}
	return entries, nil
}

// Read returns the raw bytes of a library file.
func (l *Library) Read(rel string) ([]byte, error) {
	abs, err := l.Resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Open opens a regular file for streaming. Missing files and directories
// are reported as apperr.ErrNotFound. The caller closes the file.
func (l *Library) Open(rel string) (*os.File, fs.FileInfo, error) {
	abs, err := l.Resolve(rel)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("storage: open %s: %w", rel, apperr.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("storage: open %s: %w", rel, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("storage: %s is a directory: %w", rel, apperr.ErrNotFound)
	}
	return f, info, nil
}
