package metrics

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ca-srg/minisearch/internal/search"
)

const meterName = "minisearch/metrics"

var (
	otelMetricsOnce       sync.Once
	otelRegistrationError error
)

// InitOTelMetrics registers an observable gauge that reports cumulative search
// totals from SQLite. Call it after observability.Init.
func InitOTelMetrics() error {
	otelMetricsOnce.Do(func() {
		meter := otel.Meter(meterName)

		_, err := meter.Int64ObservableGauge(
			"minisearch.searches.total",
			metric.WithDescription("Cumulative total searches by outcome"),
			metric.WithUnit("{searches}"),
			metric.WithInt64Callback(searchTotalsCallback),
		)
		if err != nil {
			log.Warn().Err(err).Msg("metrics: failed to create search gauge")
			otelRegistrationError = err
		}
	})
	return otelRegistrationError
}

// searchTotalsCallback reads cumulative totals from SQLite on every collection.
func searchTotalsCallback(_ context.Context, observer metric.Int64Observer) error {
	stats := GetStats()
	for _, outcome := range search.AllOutcomes {
		observer.Observe(stats[outcome], metric.WithAttributes(
			attribute.String("outcome", string(outcome)),
		))
	}
	return nil
}

// ResetOTelForTesting resets the OTel initialization state for testing purposes.
func ResetOTelForTesting() {
	otelMetricsOnce = sync.Once{}
	otelRegistrationError = nil
}
