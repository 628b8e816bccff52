package metrics

// NoopMetrics discards everything. Used in tests and when no metrics
// backend is configured.
type NoopMetrics struct{}

func NewNoop() *NoopMetrics { return &NoopMetrics{} }

func (*NoopMetrics) RecordSuccess(string)            {}
func (*NoopMetrics) RecordError(string, string)      {}
func (*NoopMetrics) RecordDuration(string, float64)  {}
func (*NoopMetrics) RecordPayloadSize(string, int64) {}
func (*NoopMetrics) StartOperation(string)           {}
func (*NoopMetrics) EndOperation(string)             {}
