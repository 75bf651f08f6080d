package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"realty_pipeline_backend/internal/leads/snapshot"
	"realty_pipeline_backend/platform/config"
	"realty_pipeline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// SnapshotBuilder computes and stores the pipeline report of an owner.
type SnapshotBuilder interface {
	StoreSnapshot(ctx context.Context, ownerID uuid.UUID) (snapshot.Snapshot, error)
	ListOwners(ctx context.Context) ([]uuid.UUID, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	handlers *snapshotHandlers
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, builder SnapshotBuilder, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	h := newSnapshotHandlers(builder, cfg.GetSnapshotConcurrency(), log)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPipelineSnapshot, h.handlePipelineSnapshot)
	mux.HandleFunc(TaskPipelineSnapshotAll, h.handlePipelineSnapshotAll)

	return &Worker{
		server:   server,
		mux:      mux,
		handlers: h,
		log:      log,
	}, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

type snapshotHandlers struct {
	builder     SnapshotBuilder
	concurrency int
	log         *logger.Logger
}

func newSnapshotHandlers(builder SnapshotBuilder, concurrency int, log *logger.Logger) *snapshotHandlers {
	if concurrency < 1 {
		concurrency = 1
	}
	return &snapshotHandlers{builder: builder, concurrency: concurrency, log: log}
}

func (h *snapshotHandlers) handlePipelineSnapshot(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePipelineSnapshotPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: invalid owner id %q", asynq.SkipRetry, payload.OwnerID)
	}

	_, err = h.builder.StoreSnapshot(ctx, ownerID)
	return err
}

// handlePipelineSnapshotAll refreshes every owner with bounded parallelism.
// One owner failing does not stop the others; the joined error makes asynq
// retry the whole sweep.
func (h *snapshotHandlers) handlePipelineSnapshotAll(ctx context.Context, _ *asynq.Task) error {
	owners, err := h.builder.ListOwners(ctx)
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for _, ownerID := range owners {
		g.Go(func() error {
			if _, err := h.builder.StoreSnapshot(gctx, ownerID); err != nil {
				h.log.Warn("pipeline snapshot failed", "ownerId", ownerID, "error", err)
				mu.Lock()
				failures = append(failures, fmt.Errorf("owner %s: %w", ownerID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	h.log.Info("pipeline snapshot sweep complete", "owners", len(owners), "failed", len(failures))
	return errors.Join(failures...)
}
