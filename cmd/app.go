package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ca-srg/minisearch/internal/config"
	"github.com/ca-srg/minisearch/internal/engine"
	"github.com/ca-srg/minisearch/internal/logging"
	"github.com/ca-srg/minisearch/internal/metrics"
	"github.com/ca-srg/minisearch/internal/observability"
	"github.com/ca-srg/minisearch/internal/search"
)

// newRunner builds the engine runner; tests replace it with a fake.
var newRunner = func(cfg *config.Config) (engine.Runner, error) {
	return engine.NewExecRunner(engine.Config{
		Path:           cfg.EnginePath,
		WorkDir:        cfg.EngineWorkDir,
		MaxOutputBytes: cfg.EngineMaxOutputBytes,
		Timeout:        cfg.EngineTimeout,
	})
}

// app wires configuration, telemetry, the engine pool and the dispatcher
// shared by the serve and query commands.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	pool       *engine.Pool
	dispatcher *search.Dispatcher
	closers    []func(context.Context) error
}

func loadConfig(logOut io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, logOut)
	logging.SetGlobal(logger)
	return cfg, logger, nil
}

func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, logger, err := loadConfig(logOut)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	shutdownTelemetry, err := observability.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.closers = append(a.closers, shutdownTelemetry)

	if cfg.StatsEnabled {
		if err := metrics.Init(cfg.StatsDBPath); err != nil {
			// Stats are optional; searches still work without them.
			logger.Warn().Err(err).Msg("search statistics disabled")
		} else {
			a.closers = append(a.closers, func(context.Context) error { return metrics.Close() })
		}
	}
	if err := metrics.InitOTelMetrics(); err != nil {
		logger.Warn().Err(err).Msg("failed to register search totals gauge")
	}

	recorder, err := metrics.NewSearchRecorder()
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	runner, err := newRunner(cfg)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("failed to configure search engine: %w", err)
	}

	a.pool, err = engine.NewPool(runner, cfg.EngineMaxConcurrency, cfg.EngineMaxQueued, logging.Component(logger, "engine"))
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	metrics.RegisterPoolGauges(a.pool)
	a.closers = append(a.closers, func(context.Context) error {
		metrics.RegisterPoolGauges(nil)
		return a.pool.Close(cfg.ServerShutdownTimeout)
	})

	a.dispatcher = search.NewDispatcher(a.pool,
		search.WithMaxQueryLength(cfg.MaxQueryLength),
		search.WithRecorder(recorder),
		search.WithLogger(logging.Component(logger, "search")),
	)

	if r, ok := runner.(*engine.ExecRunner); ok {
		logger.Info().
			Str("engine", r.Path()).
			Str("workdir", r.WorkDir()).
			Dur("timeout", cfg.EngineTimeout).
			Int("max_concurrency", cfg.EngineMaxConcurrency).
			Msg("Search engine configured")
		if _, err := os.Stat(r.Path()); err != nil {
			logger.Warn().Err(err).Msg("search engine executable not found; searches will fail until it exists")
		}
	}

	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
