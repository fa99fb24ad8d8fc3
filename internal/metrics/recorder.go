package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ca-srg/minisearch/internal/search"
)

// SearchRecorder fans every finished search out to the stats store, the
// OpenTelemetry instruments and the Prometheus collectors.
type SearchRecorder struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

var _ search.Recorder = (*SearchRecorder)(nil)

// NewSearchRecorder creates the OpenTelemetry instruments on the global meter provider.
func NewSearchRecorder() (*SearchRecorder, error) {
	meter := otel.Meter(meterName)

	invocations, err := meter.Int64Counter(
		"minisearch.engine.invocations",
		metric.WithDescription("Searches handled by outcome"),
		metric.WithUnit("{searches}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invocation counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"minisearch.engine.duration",
		metric.WithDescription("Search duration including engine execution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &SearchRecorder{invocations: invocations, duration: duration}, nil
}

// RecordSearch implements search.Recorder.
func (r *SearchRecorder) RecordSearch(ctx context.Context, outcome search.Outcome, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", string(outcome)))
	r.invocations.Add(ctx, 1, attrs)
	r.duration.Record(ctx, duration.Seconds(), attrs)

	EngineInvocationsTotal.WithLabelValues(string(outcome)).Inc()
	EngineDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())

	RecordOutcome(outcome)
}
