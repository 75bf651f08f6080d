// Package repositorytest provides an in-memory leads repository for tests of
// the packages above the storage layer.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"realty_pipeline_backend/internal/leads/domain"
	"realty_pipeline_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// Memory mirrors the postgres repository's semantics, including the stage
// compare-and-swap, over a map.
type Memory struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]domain.Lead
	transitions []repository.StageTransition
	nextID      int64

	// BeforeUpdateStage, when set, runs inside UpdateStage before the
	// compare-and-swap. Tests use it to simulate a concurrent writer.
	BeforeUpdateStage func(m *Memory, params repository.UpdateStageParams)
}

var _ repository.LeadsRepository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{leads: make(map[uuid.UUID]domain.Lead)}
}

// Put stores lead as-is, bypassing every rule.
func (m *Memory) Put(lead domain.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[lead.ID] = lead
}

// PutLocked is Put for use inside BeforeUpdateStage.
func (m *Memory) PutLocked(lead domain.Lead) {
	m.leads[lead.ID] = lead
}

func (m *Memory) Create(_ context.Context, lead domain.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[lead.ID] = lead
	return nil
}

func (m *Memory) GetByID(_ context.Context, ownerID, id uuid.UUID) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.OwnerID != ownerID {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *Memory) List(_ context.Context, params repository.ListParams) ([]domain.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := make([]domain.Lead, 0)
	for _, lead := range m.leads {
		if lead.OwnerID != params.OwnerID {
			continue
		}
		if params.Stage != nil && lead.Stage != *params.Stage {
			continue
		}
		matched = append(matched, lead)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].HeatScore != matched[j].HeatScore {
			return matched[i].HeatScore > matched[j].HeatScore
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := min(params.Offset, total)
	end := total
	if params.Limit > 0 {
		end = min(start+params.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *Memory) UpdateAttributes(_ context.Context, ownerID, id uuid.UUID, attrs domain.Attributes, heatScore *int) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.OwnerID != ownerID {
		return domain.Lead{}, repository.ErrNotFound
	}
	lead.Attributes = attrs
	if heatScore != nil {
		lead.HeatScore = *heatScore
	}
	m.leads[id] = lead
	return lead, nil
}

func (m *Memory) UpdateHeatScore(_ context.Context, ownerID, id uuid.UUID, heatScore int) (domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok || lead.OwnerID != ownerID {
		return domain.Lead{}, repository.ErrNotFound
	}
	lead.HeatScore = heatScore
	m.leads[id] = lead
	return lead, nil
}

func (m *Memory) UpdateStage(_ context.Context, params repository.UpdateStageParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.BeforeUpdateStage != nil {
		m.BeforeUpdateStage(m, params)
	}

	lead, ok := m.leads[params.LeadID]
	if !ok || lead.OwnerID != params.OwnerID ||
		lead.Stage != params.ExpectedStage || !lead.UpdatedAt.Equal(params.ExpectedUpdatedAt) {
		return repository.ErrStageConflict
	}

	lead.Stage = params.Stage
	lead.UpdatedAt = params.UpdatedAt
	m.leads[lead.ID] = lead

	m.nextID++
	m.transitions = append(m.transitions, repository.StageTransition{
		ID:         m.nextID,
		LeadID:     params.LeadID,
		OwnerID:    params.OwnerID,
		ActorID:    params.ActorID,
		From:       params.ExpectedStage,
		To:         params.Stage,
		Distance:   params.Distance,
		OccurredAt: params.UpdatedAt,
	})
	return nil
}

func (m *Memory) ListTransitions(_ context.Context, ownerID, leadID uuid.UUID) ([]repository.StageTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.StageTransition, 0)
	for i := len(m.transitions) - 1; i >= 0; i-- {
		tr := m.transitions[i]
		if tr.LeadID == leadID && tr.OwnerID == ownerID {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (m *Memory) ListForAnalytics(_ context.Context, ownerID uuid.UUID, since *time.Time) ([]domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, lead := range m.leads {
		if lead.OwnerID != ownerID {
			continue
		}
		if since != nil && lead.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, lead)
	}
	return out, nil
}

func (m *Memory) ListOwners(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	out := make([]uuid.UUID, 0)
	for _, lead := range m.leads {
		if _, ok := seen[lead.OwnerID]; ok {
			continue
		}
		seen[lead.OwnerID] = struct{}{}
		out = append(out, lead.OwnerID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
