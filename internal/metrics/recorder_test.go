package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ca-srg/minisearch/internal/search"
)

func TestSearchRecorder(t *testing.T) {
	ResetForTesting()
	defer ResetForTesting()
	store := newTestStore(t)
	SetStoreForTesting(store)

	reader := setupMeterProvider(t)
	recorder, err := NewSearchRecorder()
	require.NoError(t, err)

	promBefore := testutil.ToFloat64(EngineInvocationsTotal.WithLabelValues(string(search.OutcomeMultiple)))

	recorder.RecordSearch(context.Background(), search.OutcomeMultiple, 120*time.Millisecond)
	recorder.RecordSearch(context.Background(), search.OutcomeMultiple, 80*time.Millisecond)

	rm := collect(t, reader)

	counter, ok := findMetric(rm, "minisearch.engine.invocations")
	require.True(t, ok)
	sum, ok := counter.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	duration, ok := findMetric(rm, "minisearch.engine.duration")
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.2, hist.DataPoints[0].Sum, 1e-9)

	assert.Equal(t, promBefore+2, testutil.ToFloat64(EngineInvocationsTotal.WithLabelValues(string(search.OutcomeMultiple))))

	total, err := store.GetTotalByOutcome(search.OutcomeMultiple)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSearchRecorderWithoutStore(t *testing.T) {
	ResetForTesting()
	setupMeterProvider(t)

	recorder, err := NewSearchRecorder()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		recorder.RecordSearch(context.Background(), search.OutcomeEmptyQuery, 0)
	})
}
