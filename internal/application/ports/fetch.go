package ports

import (
	"context"

	"github.com/slothsintel/AutoVisuals/internal/domain/entity/asset"
)

// Fetcher downloads attachment bytes from a URL the gateway handed us.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*asset.Payload, error)
}
