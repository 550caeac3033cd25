package adapters

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"booking_engine/internal/adapters/storage"
	"booking_engine/internal/profiles/catalog"
	"booking_engine/internal/profiles/service"
)

const snapshotContentType = "application/yaml"

// CatalogSnapshotArchiver writes every published catalog to object storage
// as YAML. It implements the profiles service.Archiver interface.
type CatalogSnapshotArchiver struct {
	store  storage.ObjectStore
	bucket string
	now    func() time.Time
}

var _ service.Archiver = (*CatalogSnapshotArchiver)(nil)

// NewCatalogSnapshotArchiver creates an archiver writing to bucket.
// Returns nil if the store is nil (disabled).
func NewCatalogSnapshotArchiver(store storage.ObjectStore, bucket string) *CatalogSnapshotArchiver {
	if store == nil {
		return nil
	}
	return &CatalogSnapshotArchiver{store: store, bucket: bucket, now: time.Now}
}

// Archive stores the whole catalog under catalog/{changedKey}/{timestamp}.yaml
// and returns the object key.
func (a *CatalogSnapshotArchiver) Archive(ctx context.Context, c *catalog.Catalog, changedKey string) (string, error) {
	var buf bytes.Buffer
	if err := c.EncodeYAML(&buf); err != nil {
		return "", fmt.Errorf("encode catalog snapshot: %w", err)
	}

	key := fmt.Sprintf("catalog/%s/%s.yaml", changedKey, a.now().UTC().Format("20060102T150405.000Z"))
	if err := a.store.Put(ctx, a.bucket, key, snapshotContentType, bytes.NewReader(buf.Bytes()), int64(buf.Len())); err != nil {
		return "", err
	}
	return key, nil
}
