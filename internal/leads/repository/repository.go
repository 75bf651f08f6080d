package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")
	// ErrStageConflict means the lead's stage or stage timestamp changed
	// between the read and the write.
	ErrStageConflict = errors.New("lead stage changed concurrently")
)

const leadColumns = `id, owner_id, source_id, attributes, heat_score, stage, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListParams filters the owner's lead list.
type ListParams struct {
	OwnerID uuid.UUID
	Stage   *domain.Stage
	Limit   int
	Offset  int
}

// UpdateStageParams is a stage move computed by domain.Advance, ready to be
// persisted. The write only succeeds if the stored stage and updated_at still
// match the values the move was computed from.
type UpdateStageParams struct {
	OwnerID           uuid.UUID
	ActorID           uuid.UUID
	LeadID            uuid.UUID
	ExpectedStage     domain.Stage
	ExpectedUpdatedAt time.Time
	Stage             domain.Stage
	UpdatedAt         time.Time
	Distance          int
}

// StageTransition is one row of the stage audit trail.
type StageTransition struct {
	ID         int64
	LeadID     uuid.UUID
	OwnerID    uuid.UUID
	ActorID    uuid.UUID
	From       domain.Stage
	To         domain.Stage
	Distance   int
	OccurredAt time.Time
}

func (r *Repository) Create(ctx context.Context, lead domain.Lead) error {
	attrs, err := json.Marshal(lead.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, lead.ID, lead.OwnerID, nullableUUID(lead.SourceID), attrs, lead.HeatScore, string(lead.Stage), lead.CreatedAt, lead.UpdatedAt)
	return err
}

func (r *Repository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	whereClauses := []string{"owner_id = $1"}
	args := []any{params.OwnerID}
	if params.Stage != nil {
		args = append(args, string(*params.Stage))
		whereClauses = append(whereClauses, fmt.Sprintf("stage = $%d", len(args)))
	}
	where := strings.Join(whereClauses, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY heat_score DESC, created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, leadColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// UpdateAttributes replaces the intake answers. heatScore is only written
// when non-nil. updated_at is never touched: it tracks stage entry.
func (r *Repository) UpdateAttributes(ctx context.Context, ownerID, id uuid.UUID, attrs domain.Attributes, heatScore *int) (domain.Lead, error) {
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("encode attributes: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET attributes = $3, heat_score = COALESCE($4, heat_score)
		WHERE id = $1 AND owner_id = $2
		RETURNING `+leadColumns,
		id, ownerID, encoded, heatScore)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateHeatScore stores a recomputed score without touching updated_at.
func (r *Repository) UpdateHeatScore(ctx context.Context, ownerID, id uuid.UUID, heatScore int) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET heat_score = $3
		WHERE id = $1 AND owner_id = $2
		RETURNING `+leadColumns,
		id, ownerID, heatScore)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return lead, err
}

// UpdateStage compares-and-swaps the stage and writes the audit row in one
// transaction. Zero affected rows means another writer got there first.
func (r *Repository) UpdateStage(ctx context.Context, params UpdateStageParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET stage = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4 AND stage = $5 AND updated_at = $6
	`, string(params.Stage), params.UpdatedAt, params.LeadID, params.OwnerID, string(params.ExpectedStage), params.ExpectedUpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStageConflict
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO lead_stage_transitions (lead_id, owner_id, actor_id, from_stage, to_stage, distance, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.LeadID, params.OwnerID, params.ActorID, string(params.ExpectedStage), string(params.Stage), params.Distance, params.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) ListTransitions(ctx context.Context, ownerID, leadID uuid.UUID) ([]StageTransition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, owner_id, actor_id, from_stage, to_stage, distance, occurred_at
		FROM lead_stage_transitions
		WHERE lead_id = $1 AND owner_id = $2
		ORDER BY occurred_at DESC, id DESC
	`, leadID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StageTransition, 0)
	for rows.Next() {
		var item StageTransition
		var from, to string
		if err := rows.Scan(&item.ID, &item.LeadID, &item.OwnerID, &item.ActorID, &from, &to, &item.Distance, &item.OccurredAt); err != nil {
			return nil, err
		}
		item.From = domain.Stage(from)
		item.To = domain.Stage(to)
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

func (r *Repository) ListForAnalytics(ctx context.Context, ownerID uuid.UUID, since *time.Time) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE owner_id = $1 AND ($2::timestamptz IS NULL OR created_at >= $2)
	`, ownerID, since)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT owner_id FROM leads ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		lead     domain.Lead
		sourceID *uuid.UUID
		attrs    []byte
		stage    string
	)
	if err := row.Scan(&lead.ID, &lead.OwnerID, &sourceID, &attrs, &lead.HeatScore, &stage, &lead.CreatedAt, &lead.UpdatedAt); err != nil {
		return domain.Lead{}, err
	}

	if sourceID != nil {
		lead.SourceID = *sourceID
	}
	lead.Stage = domain.Stage(stage)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &lead.Attributes); err != nil {
			return domain.Lead{}, fmt.Errorf("decode attributes for lead %s: %w", lead.ID, err)
		}
	}
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return lead, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
