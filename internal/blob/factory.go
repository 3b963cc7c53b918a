package blob

import (
	"context"
	"fmt"

	"github.com/docpipe/docpipe/internal/config"
)

const (
	StorageTypeS3     = "s3"
	StorageTypeMemory = "memory"
)

// NewFromConfig builds the blob store selected by the configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Type {
	case StorageTypeMemory:
		return NewMemoryStore(), nil
	case StorageTypeS3:
		s, err := NewMinioStore(
			WithEndpoint(cfg.Storage.Endpoint),
			WithBucket(cfg.Storage.Bucket),
			WithAccessKey(cfg.Storage.AccessKey),
			WithSecretKey(cfg.Storage.SecretKey),
			WithSSL(cfg.Storage.UseSSL),
			WithRegion(cfg.Storage.Region),
		)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
