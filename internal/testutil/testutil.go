// Package testutil provides shared test helpers for setting up song libraries.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ascii-star/internal/storage"
)

// TestLibrary creates a temporary library directory with a storage.Library.
func TestLibrary(t *testing.T) (string, *storage.Library) {
	t.Helper()
	dir := t.TempDir()
	lib, err := storage.NewLibrary(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, lib
}

// WriteFile writes content to name inside dir.
func WriteFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// SongTxt renders a minimal UltraStar document. An empty genre omits the
// #GENRE tag entirely.
func SongTxt(title, artist, genre string) []byte {
	s := "#TITLE:" + title + "\n#ARTIST:" + artist + "\n#MP3:song.mp3\n#BPM:300\n"
	if genre != "" {
		s += "#GENRE:" + genre + "\n"
	}
	s += ": 0 4 60 La\n: 4 4 62 la\nE\n"
	return []byte(s)
}

// WriteSong writes an UltraStar document built by SongTxt into dir.
func WriteSong(t *testing.T, dir, name, title, artist, genre string) {
	t.Helper()
	WriteFile(t, dir, name, SongTxt(title, artist, genre))
}
