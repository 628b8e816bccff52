package journal

import (
	"context"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// New builds the journal. The journal is optional: without a DSN the
// pipeline runs with the no-op recorder and loses only dedup of redelivered
// events.
func New(ctx context.Context, cfg config.JournalConfig, logger types.Logger, metrics types.Metrics) (ports.Recorder, error) {
	if cfg.DSN == "" {
		logger.Info(ctx, "journal disabled, duplicate deliveries will be stored twice", nil)
		return NewNoop(), nil
	}
	return NewPostgres(ctx, cfg, logger, metrics)
}
