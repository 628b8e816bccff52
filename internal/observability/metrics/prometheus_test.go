package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMetrics_RecordSuccess(t *testing.T) {
	m := NewPrometheus("ingest", prometheus.NewRegistry())

	m.RecordSuccess("attachment_store")
	m.RecordSuccess("attachment_store")
	m.RecordSuccess("grid_split")

	stored := testutil.ToFloat64(m.processedTotal.WithLabelValues("success", "attachment_store"))
	split := testutil.ToFloat64(m.processedTotal.WithLabelValues("success", "grid_split"))

	assert.Equal(t, 2.0, stored)
	assert.Equal(t, 1.0, split)
}

func TestPrometheusMetrics_RecordError(t *testing.T) {
	m := NewPrometheus("ingest", prometheus.NewRegistry())

	m.RecordError("attachment_fetch", "timeout")
	m.RecordError("attachment_fetch", "timeout")
	m.RecordError("attachment_store", "write")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("error", "attachment_fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processedTotal.WithLabelValues("error", "attachment_store")))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("timeout", "attachment_fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("write", "attachment_store")))
}

func TestPrometheusMetrics_InProgressGauge(t *testing.T) {
	m := NewPrometheus("ingest", prometheus.NewRegistry())

	m.StartOperation("event_handle")
	m.StartOperation("event_handle")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inProgress.WithLabelValues("event_handle")))

	m.EndOperation("event_handle")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inProgress.WithLabelValues("event_handle")))
}

func TestPrometheusMetrics_Histograms(t *testing.T) {
	m := NewPrometheus("ingest", prometheus.NewRegistry())

	m.RecordDuration("event_handle", 0.25)
	m.RecordPayloadSize("attachment", 2048)

	// CollectAndCount proves the samples landed in the right series.
	assert.Equal(t, 1, testutil.CollectAndCount(m.durationSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(m.payloadBytes))
}

func TestNewPrometheus_NilRegistererUsesDefault(t *testing.T) {
	orig := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	defer func() { prometheus.DefaultRegisterer = orig }()

	assert.NotNil(t, NewPrometheus("once", nil))
}
