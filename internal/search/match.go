package search

import (
	"strings"

	"github.com/starford/ascii-star/internal/parser"
)

// folded is the lowercased view of the searchable header fields.
type folded struct {
	title    string
	artist   string
	genre    string
	hasGenre bool
}

func normalize(h *parser.Header) folded {
	f := folded{
		title:  strings.ToLower(h.Title),
		artist: strings.ToLower(h.Artist),
	}
	if h.Genre != nil {
		f.genre = strings.ToLower(*h.Genre)
		f.hasGenre = true
	}
	return f
}

// matches reports whether token is a substring of artist, title or genre.
func (f folded) matches(token string) bool {
	return strings.Contains(f.artist, token) ||
		strings.Contains(f.title, token) ||
		(f.hasGenre && strings.Contains(f.genre, token))
}

// matchesAll is true for zero tokens.
func (f folded) matchesAll(tokens []string) bool {
	for _, tok := range tokens {
		if !f.matches(tok) {
			return false
		}
	}
	return true
}
