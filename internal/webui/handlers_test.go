package webui

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/minisearch/internal/engine"
	"github.com/ca-srg/minisearch/internal/search"
)

// fakeRunner stands in for the external engine process
type fakeRunner struct {
	mu      sync.Mutex
	out     *engine.Output
	err     error
	queries []string
}

func (f *fakeRunner) Run(_ context.Context, query string) (*engine.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.out, f.err
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func engineStdout(s string) *fakeRunner {
	return &fakeRunner{out: &engine.Output{Command: `"search_engine" "q"`, Stdout: s}}
}

type panicSearcher struct{}

func (panicSearcher) Search(context.Context, string) (*search.SearchResult, error) {
	panic("boom")
}

func newTestServer(t *testing.T, searcher Searcher, mutate ...func(*ServerConfig)) http.Handler {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.RateLimitPerMinute = 0
	for _, m := range mutate {
		m(cfg)
	}
	s, err := NewServer(cfg, searcher, zerolog.Nop())
	require.NoError(t, err)
	return s.Handler()
}

func newDispatcherServer(t *testing.T, runner engine.Runner, mutate ...func(*ServerConfig)) http.Handler {
	t.Helper()
	return newTestServer(t, search.NewDispatcher(runner, search.WithMaxQueryLength(32)), mutate...)
}

func postJSON(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("unused|"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"status": "OK", "message": "Mini Search Engine is running!"}, decodeBody(t, rec))
}

func TestSearchSingleResult(t *testing.T) {
	runner := engineStdout("Use a hash map|https://leetcode.com/problems/two-sum\n")
	h := newDispatcherServer(t, runner)

	rec := postJSON(t, h, `{"query":"  two sum  "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{
		"resultText":      "Use a hash map",
		"resultURL":       "https://leetcode.com/problems/two-sum",
		"multipleResults": false,
		"kind":            "single",
	}, decodeBody(t, rec))
	assert.Equal(t, []string{"two sum"}, runner.queries)
}

func TestSearchMultipleResults(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("Match score: 1/1 words\nLine 1: Two Sum|MULTIPLE_RESULTS"))

	rec := postJSON(t, h, `{"query":"sum"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Match score: 1/1 words\nLine 1: Two Sum", body["resultText"])
	assert.Equal(t, true, body["multipleResults"])
	assert.NotContains(t, body, "resultURL")
}

func TestSearchNoMatches(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("No matches found. Your query has been added to our database.|"))

	rec := postJSON(t, h, `{"query":"zzz"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "no_matches", body["kind"])
	assert.Equal(t, false, body["multipleResults"])
	assert.True(t, strings.HasPrefix(body["resultText"].(string), "No matches found"))
}

func TestSearchFormEncoded(t *testing.T) {
	runner := engineStdout("X|")
	h := newDispatcherServer(t, runner)

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(url.Values{"query": {"graph"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"graph"}, runner.queries)
}

func TestSearchRejectsEmptyQueryWithoutRunningEngine(t *testing.T) {
	for _, body := range []string{`{"query":""}`, `{"query":"   "}`, `{}`, ``} {
		runner := engineStdout("unused|")
		h := newDispatcherServer(t, runner)

		rec := postJSON(t, h, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Equal(t, map[string]any{"error": "Query cannot be empty"}, decodeBody(t, rec))
		assert.Zero(t, runner.calls(), "engine invoked for body %q", body)
	}
}

func TestSearchBadRequests(t *testing.T) {
	testcases := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"query":`, want: msgInvalidBody},
		{name: "wrong type", body: `{"query":42}`, want: msgInvalidBody},
		{name: "too long", body: `{"query":"` + strings.Repeat("a", 33) + `"}`, want: msgQueryTooLong},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			runner := engineStdout("unused|")
			rec := postJSON(t, newDispatcherServer(t, runner), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeBody(t, rec)["error"])
			assert.Zero(t, runner.calls())
		})
	}
}

func TestSearchEngineFailuresAreGeneric(t *testing.T) {
	const secret = "Error: cannot open /srv/data/problems.txt"

	testcases := []struct {
		name   string
		runner *fakeRunner
		status int
		msg    string
	}{
		{
			name:   "non-zero exit",
			runner: &fakeRunner{out: &engine.Output{ExitCode: 1, Stderr: secret}},
			status: http.StatusInternalServerError,
			msg:    msgEngineFailed,
		},
		{
			name:   "start failure",
			runner: &fakeRunner{out: &engine.Output{ExitCode: -1, Stderr: secret}, err: io.ErrUnexpectedEOF},
			status: http.StatusInternalServerError,
			msg:    msgEngineFailed,
		},
		{
			name:   "empty output",
			runner: &fakeRunner{out: &engine.Output{Stdout: "\n", Stderr: secret}},
			status: http.StatusInternalServerError,
			msg:    msgEmptyResponse,
		},
		{
			name:   "output too large",
			runner: &fakeRunner{err: engine.ErrOutputTooLarge},
			status: http.StatusInternalServerError,
			msg:    msgTooLarge,
		},
		{
			name:   "timeout",
			runner: &fakeRunner{err: engine.ErrTimeout},
			status: http.StatusGatewayTimeout,
			msg:    msgTimeout,
		},
		{
			name:   "busy",
			runner: &fakeRunner{err: engine.ErrBusy},
			status: http.StatusServiceUnavailable,
			msg:    msgBusy,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, newDispatcherServer(t, tt.runner), `{"query":"graph"}`)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, map[string]any{"error": tt.msg}, decodeBody(t, rec))
			assert.NotContains(t, rec.Body.String(), "problems.txt")
		})
	}
}

func TestStatusFor(t *testing.T) {
	status, msg := statusFor(context.Canceled)
	assert.Zero(t, status)
	assert.Empty(t, msg)

	status, _ = statusFor(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, status)

	status, msg = statusFor(io.EOF)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, msgInternal, msg)
}

func TestSearchMethodNotAllowed(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("unused|"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/search", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSearchRateLimited(t *testing.T) {
	runner := engineStdout("X|")
	h := newDispatcherServer(t, runner, func(c *ServerConfig) { c.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, postJSON(t, h, `{"query":"a"}`).Code)
	}
	rec := postJSON(t, h, `{"query":"a"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, msgRateLimited, decodeBody(t, rec)["error"])
	assert.Equal(t, 2, runner.calls())

	// Health checks are never limited.
	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestServer(t, panicSearcher{})

	rec := postJSON(t, h, `{"query":"a"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, decodeBody(t, rec)["error"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("X|"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	const incoming = "7f1c1a52-4d7e-4b8e-9a51-0c3f0e3c2b10"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\r\n")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not a uuid\r\n", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	t.Run("preflight", func(t *testing.T) {
		h := newDispatcherServer(t, engineStdout("X|"))

		req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("restricted origins", func(t *testing.T) {
		h := newDispatcherServer(t, engineStdout("X|"), func(c *ServerConfig) {
			c.AllowedOrigins = splitOrigins("https://a.example, https://b.example")
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://b.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "https://b.example", rec.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestIndexAndFallback(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("X|"))

	for _, path := range []string{"/", "/problems/two-sum"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		doc, err := goquery.NewDocumentFromReader(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, 1, doc.Find("form#search-form").Length(), path)
		assert.Equal(t, "/partials/results", doc.Find("form#search-form").AttrOr("hx-post", ""))
		assert.Equal(t, "1024", doc.Find("#search-input").AttrOr("maxlength", ""))
	}
}

func TestStaticFiles(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("X|"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newDispatcherServer(t, engineStdout("X|"))
	postJSON(t, h, `{"query":"a"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `minisearch_http_requests_total{method="POST",route="POST /api/search",status="2xx"}`)
}

func TestNewServerRequiresSearcher(t *testing.T) {
	_, err := NewServer(nil, nil, zerolog.Nop())
	assert.Error(t, err)
}
