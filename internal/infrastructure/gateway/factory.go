package gateway

import (
	"context"
	"fmt"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// New builds the configured event source.
func New(ctx context.Context, cfg config.GatewayConfig, logger types.Logger, metrics types.Metrics) (ports.EventSource, error) {
	switch cfg.Adapter {
	case config.GatewayAdapterAMQP:
		return NewAMQP(cfg.AMQP, logger, metrics)
	case config.GatewayAdapterSQS:
		return NewSQS(ctx, cfg.SQS, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported gateway adapter: %s", cfg.Adapter)
	}
}
