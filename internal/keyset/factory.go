package keyset

import (
	"context"
	"fmt"

	"sealfs-go/internal/config"
)

// NewBlobStoreFromConfig creates a BlobStore implementation based on the
// keyset config type.
func NewBlobStoreFromConfig(cfg config.KeysetConfig) (BlobStore, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.Path == "" {
			return nil, fmt.Errorf("filesystem keyset store requires path to be set")
		}
		return NewFilesystemStore(cfg.Path), nil
	case "memory":
		return NewMemoryStore(), nil
	case "s3":
		return NewS3Store(context.Background(), S3Options{
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3Key,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown keyset store type: %s", cfg.Type)
	}
}
