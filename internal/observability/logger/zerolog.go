// Package logger implements the structured logging contract on top of
// zerolog. Output is one JSON object per line with stable field names, so
// entries from every component aggregate cleanly.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// ZerologLogger adapts a zerolog.Logger to the types.Logger contract.
// Child loggers produced by WithFields share the underlying writer.
type ZerologLogger struct {
	log zerolog.Logger
}

// New builds a logger for one component.
//
// Every entry carries the service name, environment, hostname and the given
// persistent fields. The level string follows zerolog's names; unknown
// values fall back to info.
func New(serviceName, environment, level string, output io.Writer, fields types.Fields) *ZerologLogger {
	if output == nil {
		output = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(output).Level(lvl).With().
		Timestamp().
		Str("service", serviceName).
		Str("environment", environment)

	if hostname, herr := os.Hostname(); herr == nil {
		ctx = ctx.Str("host", hostname)
	}
	if len(fields) > 0 {
		ctx = ctx.Fields(map[string]interface{}(fields))
	}

	return &ZerologLogger{log: ctx.Logger()}
}

func (l *ZerologLogger) Debug(ctx context.Context, msg string, fields types.Fields) {
	l.emit(l.log.Debug(), fields, msg)
}

func (l *ZerologLogger) Info(ctx context.Context, msg string, fields types.Fields) {
	l.emit(l.log.Info(), fields, msg)
}

func (l *ZerologLogger) Warn(ctx context.Context, msg string, fields types.Fields) {
	l.emit(l.log.Warn(), fields, msg)
}

func (l *ZerologLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {
	l.emit(l.log.Error().Err(err), fields, msg)
}

// NewNop returns a logger that discards everything. Used by tests and by
// components that run before the provider exists.
func NewNop() *ZerologLogger {
	return &ZerologLogger{log: zerolog.Nop()}
}

// WithFields returns a child logger whose entries always include fields.
func (l *ZerologLogger) WithFields(fields types.Fields) types.Logger {
	if len(fields) == 0 {
		return l
	}
	child := l.log.With().Fields(map[string]interface{}(fields)).Logger()
	return &ZerologLogger{log: child}
}

func (l *ZerologLogger) emit(e *zerolog.Event, fields types.Fields, msg string) {
	if len(fields) > 0 {
		e = e.Fields(map[string]interface{}(fields))
	}
	e.Msg(msg)
}
