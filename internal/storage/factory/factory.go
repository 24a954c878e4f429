// Package factory constructs the ObjectStorage adapter selected by
// configuration.
package factory

import (
	"context"
	"fmt"

	"downloadqueue/config"
	"downloadqueue/internal/storage"
	"downloadqueue/internal/storage/fs"
	"downloadqueue/internal/storage/s3"
	"downloadqueue/observability/types"
)

// New builds the ObjectStorage selected by cfg.Provider.
func New(cfg config.StorageConfig, logger types.Logger, metrics types.Metrics) (storage.ObjectStorage, error) {
	ctx := context.Background()

	switch cfg.Provider {
	case "s3":
		logger.Info(ctx, "Creating S3 storage adapter", types.Fields{
			"bucket": cfg.Bucket,
			"region": cfg.S3.Region,
		})
		return s3.New(cfg, logger, metrics)

	case "fs":
		logger.Info(ctx, "Creating filesystem storage adapter", types.Fields{
			"path": cfg.BasePath,
		})
		return fs.New(cfg.BasePath, logger, metrics)

	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
