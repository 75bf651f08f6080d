package repository

import (
	"context"
	"time"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides owner-scoped read access to leads.
type LeadReader interface {
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
}

// LeadWriter stores new leads and edits that leave the pipeline position alone.
type LeadWriter interface {
	Create(ctx context.Context, lead domain.Lead) error
	UpdateAttributes(ctx context.Context, ownerID, id uuid.UUID, attrs domain.Attributes, heatScore *int) (domain.Lead, error)
	UpdateHeatScore(ctx context.Context, ownerID, id uuid.UUID, heatScore int) (domain.Lead, error)
}

// StageWriter persists a stage move together with its audit row.
type StageWriter interface {
	UpdateStage(ctx context.Context, params UpdateStageParams) error
}

// TransitionReader provides the stage audit trail.
type TransitionReader interface {
	ListTransitions(ctx context.Context, ownerID, leadID uuid.UUID) ([]StageTransition, error)
}

// AnalyticsReader loads lead snapshots for reporting.
type AnalyticsReader interface {
	// ListForAnalytics returns the owner's leads in one statement. A non-nil
	// since keeps only leads created at or after it.
	ListForAnalytics(ctx context.Context, ownerID uuid.UUID, since *time.Time) ([]domain.Lead, error)
	ListOwners(ctx context.Context) ([]uuid.UUID, error)
}

// =====================================
// Composite Interface
// =====================================

// LeadsRepository is everything the leads service needs from storage.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	StageWriter
	TransitionReader
	AnalyticsReader
}

// Ensure Repository implements LeadsRepository
var _ LeadsRepository = (*Repository)(nil)
