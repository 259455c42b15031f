// Package watcher reports changes to the files of a song library.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ascii-star/internal/checksum"
	"github.com/starford/ascii-star/internal/storage"
)

// Change kinds passed to EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// EventCallback is called after a file change is observed. path is the
// route path of the file (e.g. "song/a.txt").
type EventCallback func(kind string, path string)

// Watch watches the top level of the library root until ctx is cancelled,
// matching the one-level scan done by search. Writes that leave a file's
// content unchanged are not reported. A missing root is logged and Watch
// returns nil.
func Watch(ctx context.Context, lib *storage.Library, route string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(lib.Root()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("watcher: library root missing, not watching", slog.String("root", lib.Root()))
			return nil
		}
		return err
	}

	known := snapshot(lib)
	logger.Info("watcher: started", slog.String("root", lib.Root()), slog.Int("files", len(known.sums)))

	emit := func(kind, name string) {
		p, err := storage.RoutePath(route, name)
		if err != nil {
			return
		}
		logger.Debug("watcher: change", slog.String("path", p), slog.String("op", kind))
		if cb != nil {
			cb(kind, p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != lib.Root() {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := lib.Read(name)
				if readErr != nil {
					// Directories and files that vanished again land here.
					continue
				}
				if kind, changed := known.observe(name, data); changed {
					emit(kind, name)
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify reports renames on the old name; the new name
				// arrives as a Create.
				if known.forget(name) {
					emit(KindDeleted, name)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// tracker remembers the last seen content checksum per file name.
type tracker struct {
	sums map[string]string
}

// observe records data for name and reports whether that is a change.
func (t *tracker) observe(name string, data []byte) (kind string, changed bool) {
	sum := checksum.Sum(data)
	prev, seen := t.sums[name]
	if seen && prev == sum {
		return "", false
	}
	t.sums[name] = sum
	if seen {
		return KindUpdated, true
	}
	return KindCreated, true
}

// forget drops name and reports whether it was known.
func (t *tracker) forget(name string) bool {
	if _, seen := t.sums[name]; !seen {
		return false
	}
	delete(t.sums, name)
	return true
}

// snapshot records the checksum of every readable file under the root.
func snapshot(lib *storage.Library) *tracker {
	t := &tracker{sums: make(map[string]string)}
	entries, err := lib.List()
	if err != nil {
		return t
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := lib.Read(e.Name())
		if err != nil {
			continue
		}
		t.sums[e.Name()] = checksum.Sum(data)
	}
	return t
}
