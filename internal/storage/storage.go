// Package storage holds uploaded report files.
package storage

import (
	"context"
	"fmt"

	"github.com/BerylCAtieno/health-records-api/internal/config"
)

// Storage is an opaque blob store. Upload returns a stable URL for the object.
type Storage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New builds the blob store selected by BLOB_DRIVER.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.BlobDriver {
	case config.BlobMinio:
		return NewS3Storage(ctx, cfg)
	case config.BlobCloudinary:
		return NewCloudinaryStorage(cfg.CloudinaryURL)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
}

// ReportKey is the object key for an uploaded report file.
func ReportKey(patientID, reportID, filename string) string {
	return fmt.Sprintf("reports/%s/%s/%s", patientID, reportID, filename)
}
