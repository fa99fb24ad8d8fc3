package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/unicode/norm"

	"github.com/ca-srg/minisearch/internal/engine"
)

var (
	searchTracer = otel.Tracer("minisearch/search")
)

// DefaultMaxQueryLength bounds the query size in bytes when no limit is configured.
const DefaultMaxQueryLength = 1024

// Recorder observes every finished search. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordSearch(ctx context.Context, outcome Outcome, duration time.Duration)
}

// Dispatcher validates queries, invokes the engine and decodes its output.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	runner         engine.Runner
	maxQueryLength int
	recorders      []Recorder
	logger         zerolog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithMaxQueryLength sets the maximum query length in bytes
func WithMaxQueryLength(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxQueryLength = n
		}
	}
}

// WithRecorder registers a recorder notified after every search
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorders = append(d.recorders, r)
		}
	}
}

// WithLogger sets the logger used for invocation diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher backed by runner
func NewDispatcher(runner engine.Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner:         runner,
		maxQueryLength: DefaultMaxQueryLength,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NormalizeQuery applies Unicode NFC normalization and trims surrounding whitespace.
func NormalizeQuery(query string) string {
	return strings.TrimSpace(norm.NFC.String(query))
}

// Search runs the engine for query and decodes the result.
func (d *Dispatcher) Search(ctx context.Context, query string) (result *SearchResult, err error) {
	ctx, span := searchTracer.Start(ctx, "search.dispatch")
	defer span.End()

	start := time.Now()
	defer func() {
		outcome := OutcomeOf(result, err)
		span.SetAttributes(attribute.String("search.outcome", string(outcome)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(outcome))
		}
		for _, r := range d.recorders {
			r.RecordSearch(ctx, outcome, time.Since(start))
		}
	}()

	query = NormalizeQuery(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if len(query) > d.maxQueryLength {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrQueryTooLong, len(query), d.maxQueryLength)
	}
	span.SetAttributes(attribute.Int("search.query_length", len(query)))

	out, runErr := d.runner.Run(ctx, query)
	d.logInvocation(ctx, out, runErr)

	if runErr != nil {
		return nil, translateRunError(out, runErr)
	}

	span.SetAttributes(
		attribute.Int("engine.exit_code", out.ExitCode),
		attribute.Int("engine.stdout_length", len(out.Stdout)),
	)

	if out.ExitCode != 0 {
		return nil, &EngineExecutionError{ExitCode: out.ExitCode, Stderr: out.Stderr}
	}

	result, err = Decode(out.Stdout)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("search.kind", string(result.Kind)),
		attribute.Int("search.entries", len(result.Entries)),
	)
	return result, nil
}

func translateRunError(out *engine.Output, err error) error {
	switch {
	case errors.Is(err, engine.ErrTimeout):
		return ErrEngineTimeout
	case errors.Is(err, engine.ErrOutputTooLarge):
		return ErrOutputTooLarge
	case errors.Is(err, engine.ErrBusy), errors.Is(err, engine.ErrClosed):
		return ErrEngineBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	exitCode := -1
	stderr := ""
	if out != nil {
		exitCode = out.ExitCode
		stderr = out.Stderr
	}
	return &EngineExecutionError{ExitCode: exitCode, Stderr: stderr, Err: err}
}

// logInvocation records the command, exit code and output sizes. Stderr is
// logged for operators only and never returned to callers.
func (d *Dispatcher) logInvocation(ctx context.Context, out *engine.Output, err error) {
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &d.logger
	}

	if out == nil {
		log.Warn().Err(err).Msg("Search engine invocation did not complete")
		return
	}

	var event *zerolog.Event
	if err != nil || out.ExitCode != 0 {
		event = log.Error().Err(err).Str("stderr", out.Stderr)
	} else {
		event = log.Info()
		if out.Stderr != "" {
			log.Debug().Str("stderr", out.Stderr).Msg("Search engine debug output")
		}
	}

	event.
		Str("command", out.Command).
		Int("exit_code", out.ExitCode).
		Int("stdout_len", len(out.Stdout)).
		Int("stderr_len", len(out.Stderr)).
		Dur("duration", out.Duration).
		Msg("Search engine execution")
}
