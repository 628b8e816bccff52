// Package observability wires structured logging and metrics for the ingest
// pipeline behind a single provider. Components ask the provider for their
// own Logger and Metrics instances instead of touching globals.
package observability

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/slothsintel/AutoVisuals/internal/observability/logger"
	"github.com/slothsintel/AutoVisuals/internal/observability/metrics"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// Aliases so consumers import one package.
type (
	Logger   = types.Logger
	Metrics  = types.Metrics
	Fields   = types.Fields
	Config   = types.Config
	Provider = types.Provider
)

// Metrics adapter names accepted in Config.MetricsAdapter.
const (
	MetricsAdapterPrometheus = "prometheus"
	MetricsAdapterCloudWatch = "cloudwatch"
	MetricsAdapterNoop       = "noop"
)

// DefaultProvider implements Provider with lazily created, cached
// per-component instances. Safe for concurrent use.
type DefaultProvider struct {
	config  *Config
	loggers map[string]Logger
	metrics map[string]Metrics
	mu      sync.RWMutex
}

// NewProvider returns a provider for the given configuration.
// A nil LogOutput defaults to os.Stdout.
func NewProvider(config *Config) Provider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}
	if config.MetricsAdapter == "" {
		config.MetricsAdapter = MetricsAdapterPrometheus
	}
	return &DefaultProvider{
		config:  config,
		loggers: make(map[string]Logger),
		metrics: make(map[string]Metrics),
	}
}

// Logger returns the logger for a component, creating it on first use.
// The logger carries the provider's base fields plus a "component" field.
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.RLock()
	if l, ok := p.loggers[component]; ok {
		p.mu.RUnlock()
		return l
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.loggers[component]; ok {
		return l
	}

	fields := make(Fields, len(p.config.BaseFields)+1)
	for k, v := range p.config.BaseFields {
		fields[k] = v
	}
	fields["component"] = component

	l := logger.New(
		p.config.ServiceName,
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)
	p.loggers[component] = l
	return l
}

// Metrics returns the metrics collector for a component, creating it on
// first use with the configured adapter. A cloudwatch adapter that fails to
// initialize degrades to noop so metrics never take the pipeline down.
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.RLock()
	if m, ok := p.metrics[component]; ok {
		p.mu.RUnlock()
		return m
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.metrics[component]; ok {
		return m
	}

	var m Metrics
	switch p.config.MetricsAdapter {
	case MetricsAdapterNoop:
		m = metrics.NewNoop()
	case MetricsAdapterCloudWatch:
		cw, err := metrics.NewCloudWatch(
			p.config.CloudWatchNamespace,
			p.config.CloudWatchRegion,
			component,
		)
		if err != nil {
			p.loggerLocked("observability").Error(context.Background(), "cloudwatch metrics unavailable, using noop", err, Fields{
				"component": component,
			})
			m = metrics.NewNoop()
		} else {
			m = cw
		}
	default:
		m = metrics.NewPrometheus(component, nil)
	}
	p.metrics[component] = m
	return m
}

// loggerLocked fetches or creates a logger while p.mu is already held.
func (p *DefaultProvider) loggerLocked(component string) Logger {
	if l, ok := p.loggers[component]; ok {
		return l
	}
	fields := make(Fields, len(p.config.BaseFields)+1)
	for k, v := range p.config.BaseFields {
		fields[k] = v
	}
	fields["component"] = component
	l := logger.New(
		p.config.ServiceName,
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)
	p.loggers[component] = l
	return l
}

// Close flushes metrics adapters that buffer and closes the log output when
// it is a closer other than stdout or stderr.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, m := range p.metrics {
		if c, ok := m.(io.Closer); ok {
			_ = c.Close()
		}
	}

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if p.config.LogOutput != os.Stdout && p.config.LogOutput != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}
