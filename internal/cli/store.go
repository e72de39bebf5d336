package cli

import (
	"context"
	"fmt"
	"log/slog"

	"donation-flow/internal/config"
	"donation-flow/internal/db"
	"donation-flow/internal/storage"
)

// openDurableStore opens the store that holds donation history. The returned
// func releases it.
func openDurableStore(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverDynamoDB:
		store, err := storage.OpenDynamoStore(ctx, cfg.DynamoRegion, cfg.DynamoTable)
		if err != nil {
			return nil, nil, fmt.Errorf("open dynamodb store: %w", err)
		}
		log.Info("history store ready",
			slog.String("driver", config.DriverDynamoDB),
			slog.String("table", cfg.DynamoTable),
			slog.String("region", cfg.DynamoRegion),
		)
		return store, func() {}, nil

	case config.DriverSQLite:
		repo, err := db.New(cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return repo, func() { repo.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
