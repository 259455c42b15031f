// Package search matches keyword queries against the headers of song files.
package search

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/starford/ascii-star/internal/models"
	"github.com/starford/ascii-star/internal/parser"
	"github.com/starford/ascii-star/internal/storage"
)

// SongRoute is the HTTP route prefix under which song files are served.
const SongRoute = "song"

// Engine scans a song library on every call. It keeps no state between
// searches and is safe for concurrent use.
type Engine struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewEngine creates a search engine over the given song library.
func NewEngine(store storage.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Tokenize lowercases a query and splits it on runs of whitespace.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Search returns every parseable song whose header contains all query tokens.
// Unreadable entries, unparseable headers and an unreadable library are
// skipped rather than reported, so the result is empty in the worst case and
// never nil. The scan stops early if ctx is cancelled.
func (e *Engine) Search(ctx context.Context, query string) []models.SearchResult {
	tokens := Tokenize(query)
	results := []models.SearchResult{}

	entries, err := e.store.List()
	if err != nil {
		e.logger.Debug("search: list failed", slog.String("error", err.Error()))
		return results
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if res, ok := e.evaluate(entry.Name(), tokens); ok {
			results = append(results, res)
		}
	}
	return results
}

func (e *Engine) evaluate(name string, tokens []string) (models.SearchResult, bool) {
	if !utf8.ValidString(name) {
		return models.SearchResult{}, false
	}
	data, err := e.store.Read(name)
	if err != nil {
		e.logger.Debug("search: skip unreadable", slog.String("name", name), slog.String("error", err.Error()))
		return models.SearchResult{}, false
	}
	header, err := parser.Parse(data)
	if err != nil {
		e.logger.Debug("search: skip unparseable", slog.String("name", name), slog.String("error", err.Error()))
		return models.SearchResult{}, false
	}
	if !normalize(header).matchesAll(tokens) {
		return models.SearchResult{}, false
	}
	p, err := storage.RoutePath(SongRoute, name)
	if err != nil {
		return models.SearchResult{}, false
	}
	return models.SearchResult{
		Path:   p,
		Title:  header.Title,
		Artist: header.Artist,
		Genre:  header.Genre,
	}, true
}
