package storage

import (
	"fmt"

	"github.com/dweezil78/sniper-app/internal/pkg/config"
)

// OpenSnapshotStore builds the configured SnapshotStore backend.
func OpenSnapshotStore(cfg *config.StorageConfig) (SnapshotStore, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileSnapshotStore(cfg.SnapshotPath), nil
	case "postgres":
		return NewPostgresSnapshotStore(cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// OpenHistoryStore builds the configured HistoryStore backend.
func OpenHistoryStore(cfg *config.StorageConfig) (HistoryStore, error) {
	switch cfg.Backend {
	case "", "file":
		return NewCSVHistoryStore(cfg.HistoryPath), nil
	case "postgres":
		return NewPostgresHistoryStore(cfg.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
