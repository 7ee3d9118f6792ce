// Package metrics constructs the metrics the application will track.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "milkchain"

// registry holds every collector this package owns so the /metrics output
// is not polluted by collectors registered elsewhere in the process.
var registry = prometheus.NewRegistry()

var (
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 90},
		},
		[]string{"method"},
	)

	errorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "errors_total",
		Help:      "Total number of requests that ended in an error.",
	})

	panics = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Total number of recovered panics.",
	})

	goroutines = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Number of goroutines sampled when scraped.",
		},
		func() float64 { return float64(runtime.NumGoroutine()) },
	)

	relayOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "outcomes_total",
			Help:      "Relay submissions by operation and outcome kind.",
		},
		[]string{"operation", "kind"},
	)

	receiptWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "receipt_wait_seconds",
			Help:      "Time spent waiting for a transaction receipt.",
			Buckets:   []float64{.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"operation"},
	)

	reconciliationGaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "reconciliation_gaps_total",
			Help:      "Broadcast transactions whose local bookkeeping failed or never ran.",
		},
		[]string{"operation"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests,
		requestDuration,
		errorsTotal,
		panics,
		goroutines,
		relayOutcomes,
		receiptWait,
		reconciliationGaps,
	)
}

// Handler returns the http handler that serves the collected metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// AddRequest records a completed request.
func AddRequest(method string, took time.Duration) {
	requests.WithLabelValues(method).Inc()
	requestDuration.WithLabelValues(method).Observe(took.Seconds())
}

// AddError increments the error count.
func AddError() {
	errorsTotal.Inc()
}

// AddPanic increments the panic count.
func AddPanic() {
	panics.Inc()
}

// AddRelayOutcome records how a relay submission ended.
func AddRelayOutcome(operation string, kind string) {
	relayOutcomes.WithLabelValues(operation, kind).Inc()
}

// ObserveReceiptWait records how long a receipt took to arrive.
func ObserveReceiptWait(operation string, took time.Duration) {
	receiptWait.WithLabelValues(operation).Observe(took.Seconds())
}

// AddReconciliationGap records bookkeeping that failed after a confirmed
// transaction.
func AddReconciliationGap(operation string) {
	reconciliationGaps.WithLabelValues(operation).Inc()
}
