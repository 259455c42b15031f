package api

import "github.com/starford/ascii-star/internal/models"

// SearchResult is a single search hit in the API response.
type SearchResult = models.SearchResult

// SearchResponse wraps search results. Results is never null.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
