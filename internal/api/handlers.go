package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ascii-star/internal/apperr"
	"github.com/starford/ascii-star/internal/search"
	"github.com/starford/ascii-star/internal/storage"
)

// Handler holds API route handlers.
type Handler struct {
	engine *search.Engine
	songs  storage.Provider
	audio  storage.Provider
	logger *slog.Logger
}

// NewHandler creates a new Handler. songs backs /song and /search, audio backs /mp3.
func NewHandler(engine *search.Engine, songs, audio storage.Provider, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, songs: songs, audio: audio, logger: logger}
}

// wildcardPath extracts the file path matched by a trailing "/*" route.
// chi matches on r.URL.RawPath when the request carried escapes that the
// default encoding would not produce (album%2Ftrack.mp3), and on the already
// decoded r.URL.Path otherwise. Only the first case needs unescaping; doing it
// in the second would decode a literal '%' in a file name twice.
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" || r.URL.RawPath == "" {
		return raw
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// GetMP3 handles GET /mp3/*.
//
//	@Summary		Stream an audio file
//	@Tags			files
//	@Produce		octet-stream
//	@Param			path	path	string	true	"Path relative to the audio root"
//	@Success		200		"File bytes"
//	@Failure		404		"Not found"
//	@Router			/mp3/{path} [get]
func (h *Handler) GetMP3(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.audio)
}

// GetSong handles GET /song/*.
//
//	@Summary		Fetch a song text file
//	@Tags			files
//	@Produce		plain
//	@Param			path	path	string	true	"Path relative to the song root"
//	@Success		200		"File bytes"
//	@Failure		404		"Not found"
//	@Router			/song/{path} [get]
func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.songs)
}

// serveFile streams a library file untouched. Every resolution failure is a
// 404, including paths that escape the root.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, store storage.Provider) {
	rel := wildcardPath(r)
	f, info, err := store.Open(rel)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrOutsideRoot) {
			h.logger.Warn("open file failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// Search handles GET /search.
//
//	@Summary		Keyword search over song headers
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Whitespace-separated keywords; empty matches every song"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("q") {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	results := h.engine.Search(r.Context(), query.Get("q"))
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
