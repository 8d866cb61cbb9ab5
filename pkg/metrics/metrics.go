// Package metrics provides Prometheus metrics for the Aster service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRecordsTotal tracks processed dump records by outcome
	ImportRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "import",
			Name:      "records_total",
			Help:      "Total number of processed dump records by outcome",
		},
		[]string{"outcome"},
	)

	// ImportDuration tracks whole-dump import duration in seconds
	ImportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of dump imports in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	// HTTPRequestsTotal tracks handled HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of handled HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aster",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of handled HTTP requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// StorageOperationsTotal tracks file store operations by backend and result
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of file store operations by backend and result",
		},
		[]string{"backend", "operation", "result"},
	)

	// EventsPublishedTotal tracks published account lifecycle events
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aster",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of published account lifecycle events",
		},
		[]string{"type", "result"},
	)
)

// Import record outcomes.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)
