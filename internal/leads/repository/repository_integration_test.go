//go:build integration

package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"realty_pipeline_backend/internal/leads/domain"
	"realty_pipeline_backend/internal/leads/repository"
	"realty_pipeline_backend/migrations"
	"realty_pipeline_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/leads/repository/
func newIntegrationRepo(t *testing.T) *repository.Repository {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.RunMigrations(ctx, pool, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.New(pool)
}

func TestUpdateStageCompareAndSwap(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	owner := uuid.New()
	created := time.Now().UTC().Truncate(time.Microsecond)
	lead := domain.NewLead(uuid.New(), owner, uuid.Nil, domain.Attributes{Name: "Dana Reyes"}, created)
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("create: %v", err)
	}

	first := created.Add(time.Second)
	err := repo.UpdateStage(ctx, repository.UpdateStageParams{
		OwnerID:           owner,
		ActorID:           owner,
		LeadID:            lead.ID,
		ExpectedStage:     domain.StageNewLead,
		ExpectedUpdatedAt: lead.UpdatedAt,
		Stage:             domain.StageInitialContact,
		UpdatedAt:         first,
		Distance:          1,
	})
	if err != nil {
		t.Fatalf("first move: %v", err)
	}

	stale := []struct {
		name      string
		stage     domain.Stage
		updatedAt time.Time
	}{
		{"stale stage", domain.StageNewLead, first},
		{"stale timestamp", domain.StageInitialContact, lead.UpdatedAt},
	}
	for _, tc := range stale {
		err := repo.UpdateStage(ctx, repository.UpdateStageParams{
			OwnerID:           owner,
			ActorID:           owner,
			LeadID:            lead.ID,
			ExpectedStage:     tc.stage,
			ExpectedUpdatedAt: tc.updatedAt,
			Stage:             domain.StageQualification,
			UpdatedAt:         first.Add(time.Second),
			Distance:          1,
		})
		if !errors.Is(err, repository.ErrStageConflict) {
			t.Fatalf("%s: expected ErrStageConflict, got %v", tc.name, err)
		}
	}

	got, err := repo.GetByID(ctx, owner, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != domain.StageInitialContact || !got.UpdatedAt.Equal(first) {
		t.Fatalf("unexpected stored lead stage=%s updatedAt=%s", got.Stage, got.UpdatedAt)
	}

	transitions, err := repo.ListTransitions(ctx, owner, lead.ID)
	if err != nil {
		t.Fatalf("list transitions: %v", err)
	}
	if len(transitions) != 1 {
		t.Fatalf("expected one audit row, got %d", len(transitions))
	}
	if tr := transitions[0]; tr.From != domain.StageNewLead || tr.To != domain.StageInitialContact || tr.Distance != 1 || tr.ActorID != owner {
		t.Fatalf("unexpected audit row %+v", tr)
	}
}

func TestUpdateStageIsOwnerScoped(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()

	owner := uuid.New()
	created := time.Now().UTC().Truncate(time.Microsecond)
	lead := domain.NewLead(uuid.New(), owner, uuid.Nil, domain.Attributes{}, created)
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("create: %v", err)
	}

	stranger := uuid.New()
	err := repo.UpdateStage(ctx, repository.UpdateStageParams{
		OwnerID:           stranger,
		ActorID:           stranger,
		LeadID:            lead.ID,
		ExpectedStage:     domain.StageNewLead,
		ExpectedUpdatedAt: lead.UpdatedAt,
		Stage:             domain.StageInitialContact,
		UpdatedAt:         created.Add(time.Second),
		Distance:          1,
	})
	if !errors.Is(err, repository.ErrStageConflict) {
		t.Fatalf("expected ErrStageConflict for another owner, got %v", err)
	}
}
