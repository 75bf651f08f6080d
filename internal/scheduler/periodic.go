package scheduler

import (
	"context"
	"fmt"

	"realty_pipeline_backend/platform/config"
	"realty_pipeline_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the snapshot sweep on the configured cron spec.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	spec := cfg.GetSnapshotCronSpec()
	if spec == "" {
		spec = "@every 15m"
	}

	scheduler := asynq.NewScheduler(opt, nil)
	entryID, err := scheduler.Register(spec, NewPipelineSnapshotAllTask(), asynq.Queue(queueName(cfg)), asynq.MaxRetry(1))
	if err != nil {
		return nil, fmt.Errorf("register snapshot sweep %q: %w", spec, err)
	}
	log.Info("pipeline snapshot sweep scheduled", "spec", spec, "entryId", entryID)

	return &Periodic{scheduler: scheduler, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	if err := p.scheduler.Start(); err != nil {
		p.log.Error("snapshot scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
