// Package metrics provides Prometheus-compatible metrics collection for the
// download queue service. Metric names follow Prometheus naming conventions
// with the component name as a prefix.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the Metrics interface using the Prometheus
// client library. It provides pre-configured metrics for tracking queue
// operations, errors, durations, artifact sizes, and in-flight work.
type PrometheusMetrics struct {
	mu          sync.RWMutex
	serviceName string

	// processedTotal tracks the total number of processed items by status and type
	processedTotal *prometheus.CounterVec
	// errorsTotal tracks the total number of errors by error type and operation
	errorsTotal *prometheus.CounterVec
	// durationSeconds tracks operation duration using a histogram with default buckets
	durationSeconds *prometheus.HistogramVec
	// fileSizeBytes tracks artifact sizes using a histogram with exponential buckets
	fileSizeBytes *prometheus.HistogramVec
	// inProgress tracks the number of operations currently in progress
	inProgress *prometheus.GaugeVec
}

// New creates a new PrometheusMetrics instance with pre-configured metrics.
// All metrics are registered with the default Prometheus registry; the
// service name prefixes every metric name to ensure uniqueness.
//
// Pre-configured metrics:
//   - {serviceName}_processed_total: counter for successful and failed operations
//   - {serviceName}_errors_total: counter for errors by type and operation
//   - {serviceName}_duration_seconds: histogram for operation durations
//   - {serviceName}_file_size_bytes: histogram for artifact sizes
//   - {serviceName}_in_progress: gauge for concurrent operations
//
// Panics if metric registration fails (e.g., duplicate metric names).
func New(serviceName string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		serviceName: serviceName,
	}

	m.processedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_processed_total", serviceName),
			Help: fmt.Sprintf("Total processed items by %s", serviceName),
		},
		[]string{"status", "type"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", serviceName),
			Help: fmt.Sprintf("Total errors in %s", serviceName),
		},
		[]string{"error_type", "operation"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", serviceName),
			Help:    fmt.Sprintf("Operation duration in %s", serviceName),
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Buckets: 1KB, 10KB, 100KB, 1MB, 10MB, 100MB, 1GB
	m.fileSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_file_size_bytes", serviceName),
			Help: fmt.Sprintf("Artifact sizes handled by %s", serviceName),
			Buckets: []float64{
				1024,
				10240,
				102400,
				1048576,
				10485760,
				104857600,
				1073741824,
			},
		},
		[]string{"file_type"},
	)

	m.inProgress = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", serviceName),
			Help: fmt.Sprintf("Operations in progress in %s", serviceName),
		},
		[]string{"operation"},
	)

	// MustRegister panics if registration fails (e.g., duplicate names)
	prometheus.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.fileSizeBytes,
		m.inProgress,
	)

	return m
}

// RecordSuccess increments the success counter for a specific operation type.
// This updates the {serviceName}_processed_total metric with status="success".
func (m *PrometheusMetrics) RecordSuccess(operationType string) {
	m.processedTotal.WithLabelValues("success", operationType).Inc()
}

// RecordError increments both the processed counter (with status="error") and
// the detailed error counter. This provides both high-level failure rates
// and detailed error breakdowns for debugging.
func (m *PrometheusMetrics) RecordError(operationType string, errorType string) {
	m.processedTotal.WithLabelValues("error", operationType).Inc()
	m.errorsTotal.WithLabelValues(errorType, operationType).Inc()
}

// RecordDuration records the duration of an operation in seconds.
// Use time.Since(start).Seconds() for accuracy.
func (m *PrometheusMetrics) RecordDuration(operation string, duration float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordFileSize records the size of a transferred artifact in bytes.
func (m *PrometheusMetrics) RecordFileSize(fileType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(fileType).Observe(float64(bytes))
}

// StartOperation increments the in-progress gauge for an operation.
// Must be paired with EndOperation to maintain accurate counts.
func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

// EndOperation decrements the in-progress gauge for an operation.
// Typically called in a defer statement so it runs even on errors.
func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
