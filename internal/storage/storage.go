// Package storage provides temporary and published file storage capabilities.
// It defines the Storage interface (port) for hexagonal architecture and
// implementations for local disk and S3 storage.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for temporary and published file storage.
// Implementations must handle temporary media files during extraction and
// optionally support publishing archive documents to S3.
type Storage interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename; its extension
	// is preserved so decoders can recognize the format.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// OpenTemp opens a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	OpenTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// RemoveTemp removes a temporary file. Missing files are not an error.
	RemoveTemp(ctx context.Context, path string) error

	// Publish uploads data under the given key and returns the public URL.
	// Returns ErrPublishNotConfigured if no publishing backend is configured.
	Publish(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
}
