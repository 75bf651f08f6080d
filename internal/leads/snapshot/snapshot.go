// Package snapshot caches computed pipeline reports in Redis and archives
// them to object storage.
package snapshot

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"realty_pipeline_backend/internal/leads/analytics"
	"realty_pipeline_backend/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "pipeline:snapshot:"

// DefaultTTL applies when the configured TTL is not positive.
const DefaultTTL = 24 * time.Hour

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is a stored report for one owner.
type Snapshot struct {
	OwnerID    uuid.UUID        `json:"ownerId"`
	StoredAt   time.Time        `json:"storedAt"`
	ArchiveKey string           `json:"archiveKey,omitempty"`
	Report     analytics.Report `json:"report"`
}

// Store keeps the latest snapshot per owner under a TTL.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

// NewRedisClient builds a client from the configured URL. TLS verification
// can be switched off for managed Redis with self-signed certificates.
func NewRedisClient(cfg config.SnapshotConfig) (*redis.Client, error) {
	if !cfg.IsSnapshotEnabled() {
		return nil, fmt.Errorf("redis url not configured")
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return redis.NewClient(opt), nil
}

// Key is the Redis key holding an owner's snapshot.
func Key(ownerID uuid.UUID) string {
	return keyPrefix + ownerID.String()
}

// Save replaces the owner's snapshot.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.client.Set(ctx, Key(snap.OwnerID), data, s.ttl).Err()
}

// Load returns the owner's snapshot or ErrNotFound once it has expired.
func (s *Store) Load(ctx context.Context, ownerID uuid.UUID) (Snapshot, error) {
	data, err := s.client.Get(ctx, Key(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
