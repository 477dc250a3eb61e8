package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"orchard-service/pkg/config"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Entity ledger metrics
	EntityOperationsCounter prometheus.CounterVec

	// Mobile sync metrics
	SyncBatchSize     prometheus.HistogramVec
	SyncFailuresTotal prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	EntityOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of ledger operations per entity",
		},
		[]string{"entity", "operation"},
	)

	SyncBatchSize = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_sync_batch_size",
			Help:    "Number of records per bulk sync batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"entity"},
	)

	SyncFailuresTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_sync_failures_total",
			Help: "Total number of rejected bulk sync batches",
		},
		[]string{"entity"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordEntityOperation increments the counter for a ledger operation
func RecordEntityOperation(entity, operation string) {
	EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// ObserveSyncBatch records the size of an attempted sync batch
func ObserveSyncBatch(entity string, size int) {
	SyncBatchSize.WithLabelValues(entity).Observe(float64(size))
}

// RecordSyncFailure increments the counter for a rejected sync batch
func RecordSyncFailure(entity string) {
	SyncFailuresTotal.WithLabelValues(entity).Inc()
}
