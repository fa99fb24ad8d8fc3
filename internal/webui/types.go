package webui

import (
	"github.com/ca-srg/minisearch/internal/render"
	"github.com/ca-srg/minisearch/internal/search"
)

// SearchRequest is the body of POST /api/search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the success body of POST /api/search.
// ResultURL is present for single results (possibly empty) and absent for multiple results.
type SearchResponse struct {
	ResultText      string      `json:"resultText"`
	MultipleResults bool        `json:"multipleResults"`
	ResultURL       *string     `json:"resultURL,omitempty"`
	Kind            search.Kind `json:"kind"`
}

// NewSearchResponse converts a decoded result to the wire shape the page expects
func NewSearchResponse(result *search.SearchResult) *SearchResponse {
	resp := &SearchResponse{
		ResultText: result.Text,
		Kind:       result.Kind,
	}
	if result.Kind == search.KindMultipleResults {
		resp.MultipleResults = true
		return resp
	}
	url := result.URL
	resp.ResultURL = &url
	return resp
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// IndexPageData represents data for the search page
type IndexPageData struct {
	Title          string
	MaxQueryLength int
}

// ResultsPartialData represents data for the results partial
type ResultsPartialData struct {
	Query string
	State render.DisplayState
	Error string
}
