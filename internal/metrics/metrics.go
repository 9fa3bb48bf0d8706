// Package metrics exposes Prometheus collectors for the ingest pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal                 *prometheus.CounterVec
	fetchAttemptFailuresTotal  prometheus.Counter
	activeWorkers              prometheus.Gauge
	rateLimitDelaySeconds      prometheus.Histogram
	writePhaseSeconds          *prometheus.HistogramVec
	rowsWrittenTotal           *prometheus.CounterVec
	runsTotal                  *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdex_fetch_total",
				Help: "Entity fetches by final outcome (after retries).",
			},
			[]string{"outcome"},
		)

		fetchAttemptFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "termdex_fetch_attempt_failures_total",
				Help: "Individual fetch attempts that failed, including ones later retried.",
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "termdex_active_workers",
				Help: "Number of workers currently processing a job.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "termdex_rate_limit_delay_seconds",
				Help:    "Time spent waiting on the global request cap.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		)

		writePhaseSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termdex_write_phase_seconds",
				Help:    "Duration of each ingestion write phase.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"phase"},
		)

		rowsWrittenTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdex_rows_written_total",
				Help: "Rows inserted by the ingestion writer, labeled by table.",
			},
			[]string{"table"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termdex_runs_total",
				Help: "Ingest runs, labeled by final status.",
			},
			[]string{"status"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch counts one entity fetch by outcome ("success" or "failure").
func ObserveFetch(outcome string) {
	Init()
	fetchTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchAttemptFailure counts one failed attempt inside the retry loop.
func ObserveFetchAttemptFailure() {
	Init()
	fetchAttemptFailuresTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(duration time.Duration) {
	Init()
	rateLimitDelaySeconds.Observe(duration.Seconds())
}

// ObserveWritePhase records how long a writer phase took and how many rows it wrote.
func ObserveWritePhase(phase, table string, rows int, duration time.Duration) {
	Init()
	writePhaseSeconds.WithLabelValues(phase).Observe(duration.Seconds())
	if rows > 0 {
		rowsWrittenTotal.WithLabelValues(table).Add(float64(rows))
	}
}

// ObserveRun counts one finished run.
func ObserveRun(status string) {
	Init()
	runsTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
