package cache

import (
	"fmt"
	"log/slog"

	"mealcart/internal/config"
)

func MakeCache(cfg config.StoreConfig) (ListCache, error) {
	switch cfg.Backend {
	case "memory":
		slog.Info("Using in-memory store; nothing will survive a restart")
		return NewInMemoryCache(), nil
	case "bolt":
		slog.Info("Using bolt store", "path", cfg.Path)
		return NewBoltCache(cfg.Path)
	case "sqlite":
		slog.Info("Using sqlite store", "path", cfg.Path)
		return NewSQLiteCache(cfg.Path)
	case "azure":
		slog.Info("Using Azure Blob Storage", "container", cfg.Container)
		return NewBlobCache(cfg.AccountName, cfg.AccountKey, cfg.Container)
	case "file", "":
		slog.Info("Using file store", "dir", cfg.Dir)
		return NewFileCache(cfg.Dir), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
