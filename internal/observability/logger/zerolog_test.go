package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_StandardFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("autovisuals-ingest", "test", "info", &buf, types.Fields{
		"component": "session",
	})

	l.Info(context.Background(), "listening", nil)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "autovisuals-ingest", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "listening", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logCall   func(types.Logger, context.Context)
		shouldLog bool
	}{
		{
			name:  "debug level emits debug",
			level: "debug",
			logCall: func(l types.Logger, ctx context.Context) {
				l.Debug(ctx, "probe", nil)
			},
			shouldLog: true,
		},
		{
			name:  "info level drops debug",
			level: "info",
			logCall: func(l types.Logger, ctx context.Context) {
				l.Debug(ctx, "probe", nil)
			},
			shouldLog: false,
		},
		{
			name:  "warn level drops info",
			level: "warn",
			logCall: func(l types.Logger, ctx context.Context) {
				l.Info(ctx, "probe", nil)
			},
			shouldLog: false,
		},
		{
			name:  "error level emits error",
			level: "error",
			logCall: func(l types.Logger, ctx context.Context) {
				l.Error(ctx, "probe", errors.New("boom"), nil)
			},
			shouldLog: true,
		},
		{
			name:  "unknown level defaults to info",
			level: "loud",
			logCall: func(l types.Logger, ctx context.Context) {
				l.Info(ctx, "probe", nil)
			},
			shouldLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New("svc", "test", tt.level, &buf, nil)

			tt.logCall(l, context.Background())

			if tt.shouldLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestZerologLogger_ErrorIncludesCause(t *testing.T) {
	var buf bytes.Buffer
	l := New("svc", "test", "info", &buf, nil)

	l.Error(context.Background(), "store failed", errors.New("disk full"), types.Fields{
		"path": "2024-01-01/nature/nature_0001.png",
	})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "store failed", entry["message"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "2024-01-01/nature/nature_0001.png", entry["path"])
}

func TestZerologLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	l := New("svc", "test", "info", &buf, nil)

	child := l.WithFields(types.Fields{"date": "2024-01-01", "category": "nature"})
	child.Info(context.Background(), "allocated", types.Fields{"index": 3})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "2024-01-01", entry["date"])
	assert.Equal(t, "nature", entry["category"])
	assert.Equal(t, float64(3), entry["index"])

	// The parent logger must not inherit the child's fields.
	buf.Reset()
	l.Info(context.Background(), "plain", nil)
	entry = decodeEntry(t, &buf)
	assert.NotContains(t, entry, "date")
}

func TestZerologLogger_WithFieldsEmptyReturnsSame(t *testing.T) {
	var buf bytes.Buffer
	l := New("svc", "test", "info", &buf, nil)
	assert.Equal(t, types.Logger(l), l.WithFields(nil))
}
