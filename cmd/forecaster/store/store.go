// Package store selects the snapshot storage backend.
package store

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/HatiCode/hwcast/cmd/forecaster/config"
	"github.com/HatiCode/hwcast/pkg/storage"
)

// New returns the storage backend named by cfg.Storage.
func New(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Storage {
	case "", "memory":
		logger.Info("using in-memory storage", "ttl", cfg.SnapshotTTL)
		if cfg.SnapshotTTL <= 0 {
			return storage.NewMemoryStore(), nil
		}
		return storage.NewMemoryStoreWithTTL(cfg.SnapshotTTL, time.Minute), nil
	case "redis":
		logger.Info("using redis storage", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "ttl", cfg.SnapshotTTL)
		s, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SnapshotTTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (must be memory or redis)", cfg.Storage)
	}
}
