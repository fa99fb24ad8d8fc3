package webui

import (
	"net/http"

	"github.com/ca-srg/minisearch/internal/render"
)

// handleIndex serves the search page for / and any unmatched GET path
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := &IndexPageData{
		Title:          "Mini Search Engine",
		MaxQueryLength: s.config.MaxQueryLength,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.Render(w, "index.html", data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render search page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handlePartialResults runs a search and returns the rendered results fragment for HTMX
func (s *Server) handlePartialResults(w http.ResponseWriter, r *http.Request) {
	data := &ResultsPartialData{}
	status := http.StatusOK

	query, err := readQuery(w, r)
	if err != nil {
		status, data.Error = http.StatusBadRequest, msgInvalidBody
	} else {
		data.Query = query
		result, err := s.searcher.Search(r.Context(), query)
		if err != nil {
			status, data.Error = statusFor(err)
			if status == 0 {
				return
			}
			s.logSearchError(r.Context(), err, status)
		} else {
			data.State = render.Render(result)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.Render(w, "results.html", data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render results partial")
	}
}
