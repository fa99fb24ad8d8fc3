package webui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ca-srg/minisearch/internal/search"
)

const maxRequestBodyBytes = 64 << 10

// Client-facing error messages. They never carry engine output or error detail.
const (
	msgEmptyQuery    = "Query cannot be empty"
	msgQueryTooLong  = "Query is too long"
	msgInvalidBody   = "Invalid request body"
	msgEngineFailed  = "Error executing search engine"
	msgEmptyResponse = "Empty response from search engine"
	msgTooLarge      = "Search engine response too large"
	msgBusy          = "Search engine is busy, please retry"
	msgTimeout       = "Search engine timed out"
	msgRateLimited   = "Too many requests"
	msgInternal      = "Internal server error"
)

var errInvalidBody = errors.New("webui: invalid request body")

// handleSearch handles POST /api/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, err := readQuery(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := s.searcher.Search(r.Context(), query)
	if err != nil {
		status, msg := statusFor(err)
		if status == 0 {
			// Client went away; nobody reads the response.
			return
		}
		s.logSearchError(r.Context(), err, status)
		s.writeError(w, status, msg)
		return
	}

	s.writeJSON(w, http.StatusOK, NewSearchResponse(result))
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, &HealthResponse{
		Status:  "OK",
		Message: "Mini Search Engine is running!",
	})
}

// statusFor maps a search error to an HTTP status and a generic message.
// A zero status means the request context ended and nothing should be written.
func statusFor(err error) (int, string) {
	var execErr *search.EngineExecutionError
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest, msgEmptyQuery
	case errors.Is(err, search.ErrQueryTooLong):
		return http.StatusBadRequest, msgQueryTooLong
	case errors.Is(err, search.ErrEngineTimeout):
		return http.StatusGatewayTimeout, msgTimeout
	case errors.Is(err, search.ErrEngineBusy):
		return http.StatusServiceUnavailable, msgBusy
	case errors.Is(err, search.ErrOutputTooLarge):
		return http.StatusInternalServerError, msgTooLarge
	case errors.Is(err, search.ErrEmptyEngineOutput):
		return http.StatusInternalServerError, msgEmptyResponse
	case errors.As(err, &execErr):
		return http.StatusInternalServerError, msgEngineFailed
	case errors.Is(err, context.Canceled):
		return 0, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) logSearchError(ctx context.Context, err error, status int) {
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &s.logger
	}
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Msg("search failed")
}

// readQuery accepts a JSON body {"query": "..."} or a form-encoded query field.
// A missing query is returned as "" so the dispatcher reports it as empty.
func readQuery(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", errInvalidBody
		}
		return r.PostForm.Get("query"), nil
	default:
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return "", nil
			}
			return "", errInvalidBody
		}
		return req.Query, nil
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode JSON")
	}
}

// writeError writes {"error": msg}
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, &ErrorResponse{Error: msg})
}
