package store

import (
	"context"
	"fmt"
	"log"

	"reqsync/config"
)

// New creates the record store selected by cfg.Backend
func New(ctx context.Context, cfg config.StorageConfig, logger *log.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Println("Using in-memory record store (records are lost on restart)")
		return NewMemoryStore(cfg.MaxRecords), nil
	case config.BackendPebble:
		return OpenPebbleStore(cfg.Pebble.Dir, cfg.MaxRecords, logger)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.Database, cfg.MaxRecords, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
