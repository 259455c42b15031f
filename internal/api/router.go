// Package api implements the song server's HTTP surface using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the file and search routes mounted.
// eventsHandler, if non-nil, is mounted at GET /events.
func NewRouter(h *Handler, eventsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	// Static files.
	r.Get("/mp3/*", h.GetMP3)
	r.Get("/song/*", h.GetSong)

	// Search.
	r.Get("/search", h.Search)

	// Library change stream.
	if eventsHandler != nil {
		r.Get("/events", eventsHandler.ServeHTTP)
	}

	return r
}
