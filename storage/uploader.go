// Package storage archives artifacts (roster fetch diagnostics) in
// S3-compatible object storage.
package storage

import (
	"context"
	"io"
)

// UploadResult describes a stored object. Location is the public URL
// when a public base URL is configured.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores and removes artifacts by key. Implementations are
// safe for concurrent use.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
