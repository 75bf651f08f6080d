package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"realty_pipeline_backend/internal/leads/snapshot"
	"realty_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type fakeBuilder struct {
	owners  []uuid.UUID
	failFor uuid.UUID

	mu       sync.Mutex
	stored   []uuid.UUID
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeBuilder) StoreSnapshot(_ context.Context, ownerID uuid.UUID) (snapshot.Snapshot, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if ownerID == f.failFor {
		return snapshot.Snapshot{}, errors.New("redis down")
	}
	f.mu.Lock()
	f.stored = append(f.stored, ownerID)
	f.mu.Unlock()
	return snapshot.Snapshot{OwnerID: ownerID}, nil
}

func (f *fakeBuilder) ListOwners(context.Context) ([]uuid.UUID, error) {
	return f.owners, nil
}

func TestSnapshotSweepBoundsParallelismAndKeepsGoing(t *testing.T) {
	builder := &fakeBuilder{}
	for range 6 {
		builder.owners = append(builder.owners, uuid.New())
	}
	builder.failFor = builder.owners[2]

	h := newSnapshotHandlers(builder, 2, logger.Discard())
	err := h.handlePipelineSnapshotAll(context.Background(), NewPipelineSnapshotAllTask())
	if err == nil {
		t.Fatal("expected the failed owner to surface")
	}
	if len(builder.stored) != 5 {
		t.Fatalf("expected 5 stored snapshots, got %d", len(builder.stored))
	}
	if builder.peak.Load() > 2 {
		t.Fatalf("expected at most 2 concurrent snapshots, saw %d", builder.peak.Load())
	}
}

func TestPipelineSnapshotTaskRejectsBadOwner(t *testing.T) {
	h := newSnapshotHandlers(&fakeBuilder{}, 1, logger.Discard())

	task, err := NewPipelineSnapshotTask(PipelineSnapshotPayload{OwnerID: "agent-7"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := h.handlePipelineSnapshot(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected skip retry, got %v", err)
	}

	owner := uuid.New()
	builder := &fakeBuilder{}
	h = newSnapshotHandlers(builder, 1, logger.Discard())
	task, _ = NewPipelineSnapshotTask(PipelineSnapshotPayload{OwnerID: owner.String()})
	if err := h.handlePipelineSnapshot(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(builder.stored) != 1 || builder.stored[0] != owner {
		t.Fatalf("expected snapshot for %s, got %v", owner, builder.stored)
	}
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:secret@cache.internal:6380/2", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "secret" || opt.DB != 2 || opt.TLSConfig != nil {
		t.Fatalf("unexpected options %+v", opt)
	}

	opt, err = redisClientOpt("rediss://cache.internal:6380", true)
	if err != nil {
		t.Fatalf("parse tls: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}

	if _, err := redisClientOpt("://nope", false); err == nil {
		t.Fatal("expected parse error")
	}
}
