package journal

import (
	"context"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
)

// Noop is the journal used when no DSN is configured. It remembers nothing,
// so every attachment looks new and redelivered events are stored again.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Record(context.Context, ports.IngestRecord) error { return nil }

func (*Noop) Seen(context.Context, string, int) (bool, error) { return false, nil }

func (*Noop) Close() error { return nil }
