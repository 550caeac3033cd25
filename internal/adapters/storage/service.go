// Package storage provides S3-compatible object storage for the booking
// engine. Booking profile catalogs are archived here on every change so an
// operator can inspect or restore an earlier version.
package storage

import (
	"context"
	"io"
	"time"
)

// Object describes a stored object.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// ObjectStore defines the object storage operations the engine needs.
type ObjectStore interface {
	// Put writes reader under key. size is the exact byte length.
	Put(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// Get opens the object. The caller closes the returned reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// List returns the objects under prefix, newest first.
	List(ctx context.Context, bucket, prefix string, limit int) ([]Object, error)

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}
