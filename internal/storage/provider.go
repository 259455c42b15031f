// Package storage resolves and reads files under a song or audio library root.
package storage

import (
	"io/fs"
	"os"
)

// Provider is the interface for read-only library access.
type Provider interface {
	// List returns the entries directly under the library root.
	List() ([]fs.DirEntry, error)
	// Read returns the raw bytes of the file at rel (relative to the root).
	Read(rel string) ([]byte, error)
	// Open opens the regular file at rel for streaming.
	Open(rel string) (*os.File, fs.FileInfo, error)
}

var _ Provider = (*Library)(nil)
