// Package models defines the domain types shared by the search and transport layers.
package models

// SearchResult is one matching song document. Title, Artist and Genre carry
// the header values exactly as written in the file; Path is fetchable under
// the /song route.
type SearchResult struct {
	Path   string  `json:"path"`
	Title  string  `json:"title"`
	Artist string  `json:"artist"`
	Genre  *string `json:"genre"`
}
