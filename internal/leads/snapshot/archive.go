package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ObjectPutter is the slice of object storage the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error
}

// Archiver writes every snapshot to object storage as an immutable JSON file.
type Archiver struct {
	store  ObjectPutter
	bucket string
}

func NewArchiver(store ObjectPutter, bucket string) *Archiver {
	return &Archiver{store: store, bucket: bucket}
}

// ArchiveKey is reports/<owner>/<UTC timestamp>.json.
func ArchiveKey(ownerID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s.json", ownerID, at.UTC().Format("20060102T150405Z"))
}

// Archive uploads snap and returns its object key.
func (a *Archiver) Archive(ctx context.Context, snap Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := ArchiveKey(snap.OwnerID, snap.StoredAt)
	if err := a.store.PutObject(ctx, a.bucket, key, "application/json", bytes.NewReader(data), int64(len(data))); err != nil {
		return "", fmt.Errorf("archive snapshot: %w", err)
	}
	return key, nil
}
