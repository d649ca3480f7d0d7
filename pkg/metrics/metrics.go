// Package metrics provides Prometheus collectors for the file store and the
// HTTP server that exposes them.
//
// All Metrics methods are nil-safe: a store constructed with nil metrics
// records nothing and pays no overhead.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// Prometheus Metrics for the File Store
// ============================================================================

// Label constants for metrics.
const (
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelResource  = "resource"
)

// Status label values for store operations.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics provides Prometheus metrics for store operations and state.
type Metrics struct {
	// Operation counters and timing
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec

	// Guard outcomes
	busyDeletesTotal prometheus.Counter
	limitHitsTotal   *prometheus.CounterVec

	// Store state gauges
	openHandles prometheus.Gauge
	files       prometheus.Gauge
	bytesStored prometheus.Gauge

	// Transfer counters
	bytesWritten prometheus.Counter
	bytesRead    prometheus.Counter

	registered bool
}

// NewMetrics creates and registers store metrics.
// If registry is nil, metrics will be created but not registered (useful for testing).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of store operations by outcome",
			},
			[]string{LabelOperation, LabelStatus},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Time spent executing store operations",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
			},
			[]string{LabelOperation},
		),

		busyDeletesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "busy_deletes_total",
				Help:      "Number of deletes rejected because the file had open handles",
			},
		),

		limitHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "limit_hits_total",
				Help:      "Number of times a capacity limit was hit",
			},
			[]string{LabelResource},
		),

		openHandles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "open_handles",
				Help:      "Number of currently live handles",
			},
		),

		files: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "files",
				Help:      "Number of files in the store",
			},
		),

		bytesStored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "bytes_stored",
				Help:      "Total size of all file contents in bytes",
			},
		),

		bytesWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "bytes_written_total",
				Help:      "Total bytes written through handles",
			},
		),

		bytesRead: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "guardfs",
				Subsystem: "store",
				Name:      "bytes_read_total",
				Help:      "Total bytes read through handles",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.operationsTotal,
			m.operationDuration,
			m.busyDeletesTotal,
			m.limitHitsTotal,
			m.openHandles,
			m.files,
			m.bytesStored,
			m.bytesWritten,
			m.bytesRead,
		)
		m.registered = true
	}

	return m
}

// ============================================================================
// Operation Metrics
// ============================================================================

// ObserveOperation records the outcome and duration of a store operation.
func (m *Metrics) ObserveOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveBusyDelete records a delete rejected by the open-handle guard.
func (m *Metrics) ObserveBusyDelete() {
	if m == nil {
		return
	}
	m.busyDeletesTotal.Inc()
}

// ObserveLimitHit records a capacity limit being hit.
// resource is one of "bytes", "files" or "handles".
func (m *Metrics) ObserveLimitHit(resource string) {
	if m == nil {
		return
	}
	m.limitHitsTotal.WithLabelValues(resource).Inc()
}

// ObserveBytesWritten records bytes written through a handle.
func (m *Metrics) ObserveBytesWritten(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesWritten.Add(float64(n))
}

// ObserveBytesRead records bytes read through a handle.
func (m *Metrics) ObserveBytesRead(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesRead.Add(float64(n))
}

// ============================================================================
// State Gauges
// ============================================================================

// SetOpenHandles sets the live handle gauge.
func (m *Metrics) SetOpenHandles(count int) {
	if m == nil {
		return
	}
	m.openHandles.Set(float64(count))
}

// SetFiles sets the file count gauge.
func (m *Metrics) SetFiles(count int) {
	if m == nil {
		return
	}
	m.files.Set(float64(count))
}

// SetBytesStored sets the stored bytes gauge.
func (m *Metrics) SetBytesStored(bytes uint64) {
	if m == nil {
		return
	}
	m.bytesStored.Set(float64(bytes))
}

// IsRegistered returns whether the metrics were registered with a registry.
func (m *Metrics) IsRegistered() bool {
	return m != nil && m.registered
}
