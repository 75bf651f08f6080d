// Package leads provides the lead pipeline bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"
	"fmt"

	"realty_pipeline_backend/internal/events"
	apphttp "realty_pipeline_backend/internal/http"
	"realty_pipeline_backend/internal/leads/handler"
	"realty_pipeline_backend/internal/leads/repository"
	"realty_pipeline_backend/internal/leads/service"
	"realty_pipeline_backend/internal/leads/transport"
	"realty_pipeline_backend/platform/config"
	"realty_pipeline_backend/platform/logger"
	"realty_pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	eventBus events.Bus
	log      *logger.Logger
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, fmt.Errorf("register lead validations: %w", err)
	}

	spend, err := config.LoadSourceSpend(cfg.GetSourceSpendFile())
	if err != nil {
		return nil, err
	}

	repo := repository.New(pool)
	svc := service.New(repo, eventBus, cfg, log)
	svc.SetSourceSpend(spend)

	return &Module{
		handler:  handler.New(svc, val),
		service:  svc,
		eventBus: eventBus,
		log:      log,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for the scheduler worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// EnableSnapshots turns on the cached report endpoints. The archiver may be
// nil when object storage is not configured.
func (m *Module) EnableSnapshots(store service.SnapshotStore, archiver service.ReportArchiver) {
	m.service.SetSnapshotStore(store)
	if archiver != nil {
		m.service.SetReportArchiver(archiver)
	}
}

// SetSnapshotEnqueuer wires the scheduler client. Every stage change then
// queues a refresh of the owner's cached report.
func (m *Module) SetSnapshotEnqueuer(enqueuer service.SnapshotEnqueuer) {
	m.service.SetSnapshotEnqueuer(enqueuer)

	m.eventBus.Subscribe(events.PipelineStageChanged{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.PipelineStageChanged)
		if !ok {
			return nil
		}
		if err := enqueuer.EnqueuePipelineSnapshot(ctx, e.OwnerID); err != nil {
			m.log.Warn("pipeline snapshot refresh not queued", "ownerId", e.OwnerID, "error", err)
		}
		return nil
	}))
}

// RegisterRoutes mounts leads and report routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All routes require authentication
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterReportRoutes(ctx.Protected.Group("/reports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
