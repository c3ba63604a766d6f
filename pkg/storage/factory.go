package storage

import (
	"fmt"

	"github.com/noah-isme/symbohub-api/pkg/config"
)

// NewFromConfig builds the BlobStore for the configured driver.
func NewFromConfig(cfg config.StorageConfig) (*BlobStore, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Driver {
	case config.StorageDriverS3:
		backend, err = NewS3Backend(cfg.S3)
	case config.StorageDriverLocal, "":
		backend, err = NewLocalBackend(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return NewBlobStore(backend, Options{
		MaxSizeBytes:      cfg.MaxFileSizeBytes,
		AllowedExtensions: cfg.AllowedExtensions,
	}), nil
}
