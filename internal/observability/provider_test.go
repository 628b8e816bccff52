package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(buf *bytes.Buffer) Provider {
	return NewProvider(&Config{
		ServiceName:    "autovisuals-ingest",
		Environment:    "test",
		LogLevel:       "debug",
		LogOutput:      buf,
		MetricsAdapter: MetricsAdapterNoop,
	})
}

func TestProvider_LoggerCachedPerComponent(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProvider(&buf)

	l1 := p.Logger("session")
	l2 := p.Logger("session")
	l3 := p.Logger("storage")

	assert.Same(t, l1, l2)
	assert.NotSame(t, l1, l3)
}

func TestProvider_LoggerCarriesComponentField(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProvider(&buf)

	p.Logger("catalog").Info(context.Background(), "index built", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "catalog", entry["component"])
	assert.Equal(t, "autovisuals-ingest", entry["service"])
}

func TestProvider_MetricsCachedPerComponent(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProvider(&buf)

	m1 := p.Metrics("session")
	m2 := p.Metrics("session")

	assert.Same(t, m1, m2)
	assert.NoError(t, p.Close())
}
