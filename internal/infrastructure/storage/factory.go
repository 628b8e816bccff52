package storage

import (
	"context"
	"fmt"

	"github.com/slothsintel/AutoVisuals/internal/application/ports"
	"github.com/slothsintel/AutoVisuals/internal/config"
	"github.com/slothsintel/AutoVisuals/internal/observability/types"
)

// New builds an object store for one root from the configured adapter. The
// ingest pipeline calls it twice, once for the download root and once for
// the prompt root: with the fs adapter root is a directory, with s3 it is a
// key prefix inside the configured bucket.
func New(ctx context.Context, cfg config.StorageConfig, root string, logger types.Logger, metrics types.Metrics) (ports.ObjectStorage, error) {
	switch cfg.Adapter {
	case config.StorageAdapterFS:
		return NewFS(root, logger, metrics)
	case config.StorageAdapterS3:
		return NewS3(ctx, cfg.S3, root, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported storage adapter: %s", cfg.Adapter)
	}
}
