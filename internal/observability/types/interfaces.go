// Package types defines the logging and metrics contracts shared by every
// component of the ingest pipeline. Implementations live in the sibling
// logger and metrics packages; consumers depend only on these interfaces.
package types

import (
	"context"
	"io"
)

// Logger is the structured logging contract. Implementations emit one JSON
// object per entry so log aggregation systems can index the fields.
type Logger interface {
	// Debug logs fine-grained diagnostic detail, filtered out above debug level.
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs normal operational events.
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs recoverable conditions that deserve attention, such as a
	// malformed metadata file or a failed original-image delete.
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs failures together with the causing error.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a child logger that includes the given fields in
	// every entry it emits. Used to pin per-event context like the partition
	// date and category once instead of repeating it at each call site.
	WithFields(fields Fields) Logger
}

// Metrics is the metrics collection contract. Operation names are free-form
// lowercase identifiers such as "event_handle" or "attachment_store".
type Metrics interface {
	// RecordSuccess counts one successful completion of the operation.
	RecordSuccess(operation string)

	// RecordError counts one failure of the operation, keyed by error type
	// (for example "fetch", "decode", "write").
	RecordError(operation string, errorType string)

	// RecordDuration observes how long one run of the operation took,
	// in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordPayloadSize observes the byte size of a handled payload,
	// keyed by kind (for example "attachment", "tile").
	RecordPayloadSize(kind string, bytes int64)

	// StartOperation increments the in-progress gauge for the operation.
	// Pair with EndOperation, usually via defer.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for the operation.
	EndOperation(operation string)
}

// Fields carries structured log context as JSON-serializable key-value pairs.
type Fields map[string]interface{}

// Config holds the settings the provider applies to every Logger and
// Metrics instance it hands out.
type Config struct {
	// ServiceName identifies this process in logs and metric names.
	ServiceName string

	// Environment is the deployment environment, such as "development"
	// or "production".
	Environment string

	// LogLevel is the minimum level to emit: "debug", "info", "warn"
	// or "error". Unknown values fall back to "info".
	LogLevel string

	// LogOutput is where log entries are written. Defaults to os.Stdout.
	LogOutput io.Writer

	// MetricsAdapter selects the metrics backend: "prometheus",
	// "cloudwatch" or "noop". Defaults to "prometheus".
	MetricsAdapter string

	// CloudWatchNamespace and CloudWatchRegion configure the cloudwatch
	// adapter and are ignored by the others.
	CloudWatchNamespace string
	CloudWatchRegion    string

	// BaseFields are included in every log entry from every component.
	BaseFields Fields
}

// Provider hands out per-component Logger and Metrics instances. Repeated
// calls with the same component name return the same instance.
type Provider interface {
	Logger(component string) Logger
	Metrics(component string) Metrics

	// Close releases provider resources, flushing any buffered output.
	Close() error
}
