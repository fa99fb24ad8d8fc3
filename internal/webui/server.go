package webui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ca-srg/minisearch/internal/logging"
	"github.com/ca-srg/minisearch/internal/metrics"
	"github.com/ca-srg/minisearch/internal/search"
	"github.com/ca-srg/minisearch/internal/types"
)

// Searcher runs one search. *search.Dispatcher implements it.
type Searcher interface {
	Search(ctx context.Context, query string) (*search.SearchResult, error)
}

// ServerConfig holds the web server configuration
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int
	MaxQueryLength     int
	TrustProxyHeaders  bool
	AllowedOrigins     []string
	MetricsEnabled     bool
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:               "0.0.0.0",
		Port:               3000,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       60 * time.Second,
		IdleTimeout:        120 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		RateLimitPerMinute: 120,
		MaxQueryLength:     search.DefaultMaxQueryLength,
		AllowedOrigins:     []string{"*"},
		MetricsEnabled:     true,
	}
}

// ServerConfigFromApp derives the server configuration from the application config.
func ServerConfigFromApp(cfg *types.Config) *ServerConfig {
	sc := DefaultServerConfig()
	if cfg == nil {
		return sc
	}
	sc.Host = cfg.Host
	sc.Port = cfg.Port
	sc.ReadTimeout = cfg.ServerReadTimeout
	sc.WriteTimeout = cfg.ServerWriteTimeout
	sc.IdleTimeout = cfg.ServerIdleTimeout
	sc.ShutdownTimeout = cfg.ServerShutdownTimeout
	sc.RateLimitPerMinute = cfg.RateLimitPerMinute
	sc.MaxQueryLength = cfg.MaxQueryLength
	sc.TrustProxyHeaders = cfg.TrustProxyHeaders
	sc.AllowedOrigins = splitOrigins(cfg.CORSAllowedOrigins)
	return sc
}

func (c *ServerConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server serves the search page, the JSON API and the HTMX partials
type Server struct {
	config       *ServerConfig
	searcher     Searcher
	templates    *TemplateManager
	limiter      *clientLimiter
	logger       zerolog.Logger
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// NewServer creates a new web server backed by searcher
func NewServer(serverConfig *ServerConfig, searcher Searcher, logger zerolog.Logger) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("webui: searcher is required")
	}
	if serverConfig == nil {
		serverConfig = DefaultServerConfig()
	}

	templates, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	s := &Server{
		config:    serverConfig,
		searcher:  searcher,
		templates: templates,
		logger:    logging.Component(logger, "webui"),
	}
	if serverConfig.RateLimitPerMinute > 0 {
		s.limiter = newClientLimiter(serverConfig.RateLimitPerMinute)
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.setupRoutes()
	if s.config.MetricsEnabled {
		h = metrics.Middleware(h)
	}
	h = s.corsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

// Run starts the server and blocks until ctx is cancelled or the listener fails
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.addr(),
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.logger.WithContext(context.Background()) },
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msgf("Starting Mini Search Engine at http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return group.Wait()
}

// shutdown performs graceful shutdown
func (s *Server) shutdown() error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	})
	return shutdownErr
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to setup static files")
	} else {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /api/search", s.rateLimitMiddleware(http.HandlerFunc(s.handleSearch)))
	mux.Handle("POST /partials/results", s.rateLimitMiddleware(http.HandlerFunc(s.handlePartialResults)))
	if s.config.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Every other GET serves the search page so client-side routes survive a reload.
	mux.HandleFunc("GET /", s.handleIndex)

	return mux
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
