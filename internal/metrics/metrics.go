package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	PurchaseAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_attempts_total",
			Help: "Purchase initiations by outcome",
		},
		[]string{"result"}, // ok|already_reserved|payment_config_missing|error
	)
	PaymentsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_completed_total",
			Help: "Completed payments by method",
		},
		[]string{"method"},
	)
	SweepReverted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_reverted_total",
			Help: "Pending transactions expired by the sweeper",
		},
	)
	SweepErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_errors_total",
			Help: "Sweep runs or reverts that failed",
		},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events accepted by the bus",
		},
		[]string{"type"},
	)
	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Domain events dropped because the queue was full or closed",
		},
		[]string{"type"},
	)
	EventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_queue_depth",
			Help: "Current event queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPLatency,
			PurchaseAttempts,
			PaymentsCompleted,
			SweepReverted,
			SweepErrors,
			EventsPublished,
			EventsDropped,
			EventQueueDepth,
		)
	})
}
