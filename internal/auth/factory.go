package auth

import (
	"fmt"
	"os"
	"path/filepath"

	"sealfs-go/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the auth
// config type.
func NewStoreFromConfig(cfg config.AuthConfig) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("sqlite auth store requires data_dir to be set")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating auth data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "auth.db"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown auth store type: %s", cfg.Type)
	}
}
