package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineBuckets covers engine runs from a few milliseconds up to the default timeout.
var EngineBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minisearch_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minisearch_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// EngineInvocationsTotal counts searches by outcome.
	EngineInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "minisearch_engine_invocations_total",
			Help: "Searches by outcome",
		},
		[]string{"outcome"},
	)

	// EngineDuration records search duration in seconds by outcome.
	EngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "minisearch_engine_duration_seconds",
			Help:    "Search duration",
			Buckets: EngineBuckets,
		},
		[]string{"outcome"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "minisearch_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)
)

var (
	poolMu      sync.RWMutex
	currentPool PoolStats
)

func poolGauge(name, help string, read func(PoolStats) int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
		poolMu.RLock()
		defer poolMu.RUnlock()
		if currentPool == nil {
			return 0
		}
		return float64(read(currentPool))
	})
}

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		EngineInvocationsTotal,
		EngineDuration,
		RateLimitRejectedTotal,
		poolGauge("minisearch_engine_workers_running", "Engine processes currently running", PoolStats.Running),
		poolGauge("minisearch_engine_workers_waiting", "Searches waiting for an engine worker", PoolStats.Waiting),
		poolGauge("minisearch_engine_workers_capacity", "Maximum concurrent engine processes", PoolStats.Cap),
	)
}

// PoolStats is implemented by the engine worker pool.
type PoolStats interface {
	Running() int
	Waiting() int
	Cap() int
}

// RegisterPoolGauges points the minisearch_engine_workers_* gauges at pool.
// The last registered pool wins; nil reports zeros.
func RegisterPoolGauges(pool PoolStats) {
	poolMu.Lock()
	defer poolMu.Unlock()
	currentPool = pool
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
