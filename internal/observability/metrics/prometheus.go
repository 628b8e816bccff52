// Package metrics implements the metrics contract for the ingest pipeline.
// The prometheus adapter is the default; cloudwatch and noop adapters cover
// AWS-native deployments and tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics records counters, histograms and gauges under the
// "autovisuals" namespace with the component as subsystem, so two components
// never collide on metric names.
type PrometheusMetrics struct {
	processedTotal  *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	payloadBytes    *prometheus.HistogramVec
	inProgress      *prometheus.GaugeVec
}

// NewPrometheus registers the metric set for one component. A nil registerer
// uses the default registry; tests pass their own to stay isolated.
// Registration panics on duplicate names, which the provider prevents by
// caching one instance per component.
func NewPrometheus(component string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		processedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "autovisuals",
				Subsystem: component,
				Name:      "processed_total",
				Help:      "Operations completed, by status and operation.",
			},
			[]string{"status", "operation"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "autovisuals",
				Subsystem: component,
				Name:      "errors_total",
				Help:      "Failures, by error type and operation.",
			},
			[]string{"error_type", "operation"},
		),
		durationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "autovisuals",
				Subsystem: component,
				Name:      "duration_seconds",
				Help:      "Operation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		payloadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "autovisuals",
				Subsystem: component,
				Name:      "payload_bytes",
				Help:      "Payload sizes, by kind.",
				// Attachment payloads are images: kilobytes up to the
				// configured fetch ceiling.
				Buckets: []float64{
					1 << 10,  // 1KiB
					64 << 10, // 64KiB
					1 << 20,  // 1MiB
					8 << 20,  // 8MiB
					32 << 20, // 32MiB
					128 << 20,
				},
			},
			[]string{"kind"},
		),
		inProgress: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "autovisuals",
				Subsystem: component,
				Name:      "in_progress",
				Help:      "Operations currently running.",
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(
		m.processedTotal,
		m.errorsTotal,
		m.durationSeconds,
		m.payloadBytes,
		m.inProgress,
	)
	return m
}

func (m *PrometheusMetrics) RecordSuccess(operation string) {
	m.processedTotal.WithLabelValues("success", operation).Inc()
}

// RecordError increments the processed counter with status "error" and the
// detailed error counter, so failure rate and failure breakdown stay in sync.
func (m *PrometheusMetrics) RecordError(operation string, errorType string) {
	m.processedTotal.WithLabelValues("error", operation).Inc()
	m.errorsTotal.WithLabelValues(errorType, operation).Inc()
}

func (m *PrometheusMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

func (m *PrometheusMetrics) RecordPayloadSize(kind string, bytes int64) {
	m.payloadBytes.WithLabelValues(kind).Observe(float64(bytes))
}

func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
