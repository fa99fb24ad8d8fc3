package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/ca-srg/minisearch/internal/engine"
)

var (
	// ErrEmptyQuery is returned when the query is empty after trimming.
	ErrEmptyQuery = errors.New("search: query cannot be empty")
	// ErrQueryTooLong is returned when the query exceeds the configured length.
	ErrQueryTooLong = errors.New("search: query too long")
	// ErrEmptyEngineOutput is returned when the engine exits cleanly but prints nothing.
	ErrEmptyEngineOutput = errors.New("search: empty response from search engine")
	// ErrEngineTimeout is returned when the engine exceeds its execution timeout.
	ErrEngineTimeout = fmt.Errorf("search: %w", engine.ErrTimeout)
	// ErrOutputTooLarge is returned when the engine output exceeds the capture limit.
	ErrOutputTooLarge = fmt.Errorf("search: %w", engine.ErrOutputTooLarge)
	// ErrEngineBusy is returned when no engine worker is available.
	ErrEngineBusy = fmt.Errorf("search: %w", engine.ErrBusy)
)

// EngineExecutionError reports an engine that could not run or exited with a non-zero status.
// Stderr is kept for server-side diagnostics only and never leaves the process.
type EngineExecutionError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *EngineExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search: engine execution failed (exit code %d): %v", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("search: engine execution failed (exit code %d)", e.ExitCode)
}

func (e *EngineExecutionError) Unwrap() error {
	return e.Err
}

// Outcome classifies a finished search for logging and statistics.
type Outcome string

const (
	OutcomeSingle         Outcome = "single"
	OutcomeMultiple       Outcome = "multiple"
	OutcomeNoMatches      Outcome = "no_matches"
	OutcomeEmptyQuery     Outcome = "empty_query"
	OutcomeQueryTooLong   Outcome = "query_too_long"
	OutcomeEngineError    Outcome = "engine_error"
	OutcomeEmptyOutput    Outcome = "empty_output"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeOutputTooLarge Outcome = "output_too_large"
	OutcomeBusy           Outcome = "busy"
	OutcomeCanceled       Outcome = "canceled"
)

// AllOutcomes lists every outcome in display order
var AllOutcomes = []Outcome{
	OutcomeSingle,
	OutcomeMultiple,
	OutcomeNoMatches,
	OutcomeEmptyQuery,
	OutcomeQueryTooLong,
	OutcomeEngineError,
	OutcomeEmptyOutput,
	OutcomeTimeout,
	OutcomeOutputTooLarge,
	OutcomeBusy,
	OutcomeCanceled,
}

// OutcomeOf classifies a search result or error.
func OutcomeOf(result *SearchResult, err error) Outcome {
	if err == nil {
		if result == nil {
			return OutcomeEmptyOutput
		}
		switch result.Kind {
		case KindMultipleResults:
			return OutcomeMultiple
		case KindNoMatches:
			return OutcomeNoMatches
		default:
			return OutcomeSingle
		}
	}

	var execErr *EngineExecutionError
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return OutcomeEmptyQuery
	case errors.Is(err, ErrQueryTooLong):
		return OutcomeQueryTooLong
	case errors.Is(err, ErrEmptyEngineOutput):
		return OutcomeEmptyOutput
	case errors.Is(err, engine.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, engine.ErrOutputTooLarge):
		return OutcomeOutputTooLarge
	case errors.Is(err, engine.ErrBusy), errors.Is(err, engine.ErrClosed):
		return OutcomeBusy
	case errors.As(err, &execErr):
		return OutcomeEngineError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeEngineError
	}
}
