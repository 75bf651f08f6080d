// Package service orchestrates lead intake, stage progression and reporting
// on top of the pure domain and analytics packages.
package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"realty_pipeline_backend/internal/events"
	"realty_pipeline_backend/internal/leads/domain"
	"realty_pipeline_backend/internal/leads/repository"
	"realty_pipeline_backend/internal/leads/snapshot"
	"realty_pipeline_backend/internal/leads/transport"
	"realty_pipeline_backend/platform/apperr"
	"realty_pipeline_backend/platform/config"
	"realty_pipeline_backend/platform/logger"
	"realty_pipeline_backend/platform/metrics"
	"realty_pipeline_backend/platform/phone"
	"realty_pipeline_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	msgLeadNotFound  = "lead not found"
	msgStorageFailed = "storage failure"
	msgStageConflict = "lead stage changed since it was loaded, reload and retry"

	defaultPageSize = 50
)

// Config is the slice of configuration the service reads.
type Config interface {
	config.IntakeConfig
	config.AnalyticsConfig
}

// SnapshotStore caches the latest report per owner.
type SnapshotStore interface {
	Save(ctx context.Context, snap snapshot.Snapshot) error
	Load(ctx context.Context, ownerID uuid.UUID) (snapshot.Snapshot, error)
}

// SnapshotEnqueuer schedules an asynchronous snapshot refresh.
type SnapshotEnqueuer interface {
	EnqueuePipelineSnapshot(ctx context.Context, ownerID uuid.UUID) error
}

// ReportArchiver keeps a durable copy of each snapshot.
type ReportArchiver interface {
	Archive(ctx context.Context, snap snapshot.Snapshot) (string, error)
}

type Service struct {
	repo      repository.LeadsRepository
	bus       events.Bus
	cfg       Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	spend     map[uuid.UUID]int64
	snapshots SnapshotStore
	enqueuer  SnapshotEnqueuer
	archiver  ReportArchiver
	now       func() time.Time
	newID     func() uuid.UUID
}

func New(repo repository.LeadsRepository, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		bus:     bus,
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		spend:   map[uuid.UUID]int64{},
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:   uuid.New,
	}
}

// SetSourceSpend installs the per-source marketing spend used for ROI columns.
func (s *Service) SetSourceSpend(spend map[uuid.UUID]int64) {
	if spend == nil {
		spend = map[uuid.UUID]int64{}
	}
	s.spend = spend
}

func (s *Service) SetSnapshotStore(store SnapshotStore)        { s.snapshots = store }
func (s *Service) SetSnapshotEnqueuer(enqueuer SnapshotEnqueuer) { s.enqueuer = enqueuer }
func (s *Service) SetReportArchiver(archiver ReportArchiver)    { s.archiver = archiver }

// SetClock replaces the wall clock; tests pin it.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create runs intake: clean the answers, score them once and store the lead
// at the first stage.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	attrs := domain.Attributes{
		Name:           sanitize.Text(req.Name),
		Email:          sanitize.Email(req.Email),
		Phone:          phone.NormalizeE164(req.Phone, s.cfg.GetPhoneDefaultRegion()),
		ConsentEmail:   req.ConsentEmail,
		ConsentSMS:     req.ConsentSMS,
		Representation: domain.Representation(strings.TrimSpace(req.Representation)),
		WantsOutreach:  req.WantsOutreach,
		Timeline:       domain.Timeline(strings.TrimSpace(req.Timeline)),
		Financing:      domain.Financing(strings.TrimSpace(req.Financing)),
		TargetAreas:    sanitize.Text(req.TargetAreas),
		MustHaves:      sanitize.Text(req.MustHaves),
	}

	sourceID := uuid.Nil
	if req.SourceID != nil {
		sourceID = *req.SourceID
	}

	lead := domain.NewLead(s.newID(), ownerID, sourceID, attrs, s.now())
	if err := s.repo.Create(ctx, lead); err != nil {
		return transport.LeadResponse{}, s.storageError("create lead", err)
	}

	s.metrics.ObserveHeatScore(lead.HeatScore)
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(lead.CreatedAt),
		LeadID:    lead.ID,
		OwnerID:   lead.OwnerID,
		SourceID:  lead.SourceID,
		HeatScore: lead.HeatScore,
		Heat:      string(domain.Classify(lead.HeatScore)),
	})

	return transport.ToLeadResponse(lead), nil
}

func (s *Service) GetByID(ctx context.Context, ownerID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return transport.LeadResponse{}, s.storageError("get lead", err)
	}
	return transport.ToLeadResponse(lead), nil
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := max(req.Page, 1)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		OwnerID: ownerID,
		Limit:   pageSize,
		Offset:  (page - 1) * pageSize,
	}
	if req.Stage != "" {
		stage := domain.Stage(req.Stage)
		params.Stage = &stage
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, s.storageError("list leads", err)
	}

	return transport.LeadListResponse{
		Items:      transport.ToLeadResponses(leads),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateAttributes applies a partial edit of the intake answers. The stage
// and its timestamp never change here; the stored score is recomputed only
// when the rescore-on-edit policy is on.
func (s *Service) UpdateAttributes(ctx context.Context, ownerID, id uuid.UUID, req transport.UpdateAttributesRequest) (transport.LeadResponse, error) {
	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return transport.LeadResponse{}, s.storageError("get lead", err)
	}

	attrs := s.mergeAttributes(current.Attributes, req)

	var heatScore *int
	if s.cfg.GetRescoreOnAttributeUpdate() {
		score := domain.Score(attrs)
		heatScore = &score
	}

	updated, err := s.repo.UpdateAttributes(ctx, ownerID, id, attrs, heatScore)
	if err != nil {
		return transport.LeadResponse{}, s.storageError("update lead attributes", err)
	}

	if heatScore != nil && *heatScore != current.HeatScore {
		s.publishRescored(ctx, current.HeatScore, updated)
	}

	return transport.ToLeadResponse(updated), nil
}

// Rescore recomputes the heat score from the stored attributes and returns
// the per-signal breakdown.
func (s *Service) Rescore(ctx context.Context, ownerID, id uuid.UUID) (transport.ScoreResponse, error) {
	lead, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return transport.ScoreResponse{}, s.storageError("get lead", err)
	}

	breakdown := domain.Breakdown(lead.Attributes)
	if breakdown.Score != lead.HeatScore {
		previous := lead.HeatScore
		lead, err = s.repo.UpdateHeatScore(ctx, ownerID, id, breakdown.Score)
		if err != nil {
			return transport.ScoreResponse{}, s.storageError("update heat score", err)
		}
		s.publishRescored(ctx, previous, lead)
	}
	s.metrics.ObserveHeatScore(breakdown.Score)

	return transport.ScoreResponse{Lead: transport.ToLeadResponse(lead), Breakdown: breakdown}, nil
}

// Advance moves a lead along the pipeline. The write is a compare-and-swap on
// the stage read here, so two agents moving the same lead cannot both win.
func (s *Service) Advance(ctx context.Context, ownerID, id uuid.UUID, req transport.AdvanceStageRequest) (transport.AdvanceStageResponse, error) {
	lead, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return transport.AdvanceStageResponse{}, s.storageError("get lead", err)
	}

	tr, err := domain.Advance(lead, domain.AdvanceRequest{
		Stage:     domain.Stage(req.Stage),
		Direction: domain.Direction(req.Direction),
	}, s.now())
	if err != nil {
		s.log.WithContext(ctx).StageRejected(id.String(), string(lead.Stage), err.Error())
		s.metrics.RecordRejection(rejectionReason(err))
		return transport.AdvanceStageResponse{}, apperr.Wrap(apperr.KindValidation, err.Error(), err)
	}

	err = s.repo.UpdateStage(ctx, repository.UpdateStageParams{
		OwnerID:           ownerID,
		ActorID:           ownerID,
		LeadID:            lead.ID,
		ExpectedStage:     lead.Stage,
		ExpectedUpdatedAt: lead.UpdatedAt,
		Stage:             tr.Current,
		UpdatedAt:         tr.Lead.UpdatedAt,
		Distance:          tr.Distance,
	})
	if errors.Is(err, repository.ErrStageConflict) {
		return transport.AdvanceStageResponse{}, apperr.Wrap(apperr.KindConflict, msgStageConflict, err)
	}
	if err != nil {
		return transport.AdvanceStageResponse{}, s.storageError("update lead stage", err)
	}

	s.log.WithContext(ctx).StageTransition(lead.ID.String(), ownerID.String(), string(tr.Previous), string(tr.Current), tr.Distance)
	s.metrics.RecordTransition(string(tr.Previous), string(tr.Current), tr.Distance)
	s.bus.Publish(ctx, events.PipelineStageChanged{
		BaseEvent: events.NewBaseEvent(tr.Lead.UpdatedAt),
		LeadID:    lead.ID,
		OwnerID:   ownerID,
		ActorID:   ownerID,
		From:      string(tr.Previous),
		To:        string(tr.Current),
		Distance:  tr.Distance,
	})

	return transport.AdvanceStageResponse{
		Lead:     transport.ToLeadResponse(tr.Lead),
		Previous: tr.Previous,
		Current:  tr.Current,
		Distance: tr.Distance,
	}, nil
}

// ListTransitions returns the lead's stage audit trail, newest first.
func (s *Service) ListTransitions(ctx context.Context, ownerID, id uuid.UUID) ([]transport.StageTransitionResponse, error) {
	if _, err := s.repo.GetByID(ctx, ownerID, id); err != nil {
		return nil, s.storageError("get lead", err)
	}

	items, err := s.repo.ListTransitions(ctx, ownerID, id)
	if err != nil {
		return nil, s.storageError("list stage transitions", err)
	}

	out := make([]transport.StageTransitionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, transport.StageTransitionResponse{
			From:       item.From,
			To:         item.To,
			Distance:   item.Distance,
			ActorID:    item.ActorID,
			OccurredAt: item.OccurredAt,
		})
	}
	return out, nil
}

func (s *Service) mergeAttributes(attrs domain.Attributes, req transport.UpdateAttributesRequest) domain.Attributes {
	if req.Name != nil {
		attrs.Name = sanitize.Text(*req.Name)
	}
	if req.Email != nil {
		attrs.Email = sanitize.Email(*req.Email)
	}
	if req.Phone != nil {
		attrs.Phone = phone.NormalizeE164(*req.Phone, s.cfg.GetPhoneDefaultRegion())
	}
	if req.ConsentEmail != nil {
		attrs.ConsentEmail = *req.ConsentEmail
	}
	if req.ConsentSMS != nil {
		attrs.ConsentSMS = *req.ConsentSMS
	}
	if req.Representation != nil {
		attrs.Representation = domain.Representation(strings.TrimSpace(*req.Representation))
	}
	if req.WantsOutreach != nil {
		attrs.WantsOutreach = *req.WantsOutreach
	}
	if req.Timeline != nil {
		attrs.Timeline = domain.Timeline(strings.TrimSpace(*req.Timeline))
	}
	if req.Financing != nil {
		attrs.Financing = domain.Financing(strings.TrimSpace(*req.Financing))
	}
	if req.TargetAreas != nil {
		attrs.TargetAreas = sanitize.Text(*req.TargetAreas)
	}
	if req.MustHaves != nil {
		attrs.MustHaves = sanitize.Text(*req.MustHaves)
	}
	return attrs
}

func (s *Service) publishRescored(ctx context.Context, previous int, lead domain.Lead) {
	s.bus.Publish(ctx, events.LeadRescored{
		BaseEvent: events.NewBaseEvent(s.now()),
		LeadID:    lead.ID,
		OwnerID:   lead.OwnerID,
		Previous:  previous,
		HeatScore: lead.HeatScore,
		Heat:      string(domain.Classify(lead.HeatScore)),
	})
}

func (s *Service) storageError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgLeadNotFound)
	}
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, msgStorageFailed, err).WithOp(op)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyAtFinalStage):
		return "already_at_final_stage"
	case errors.Is(err, domain.ErrAlreadyAtFirstStage):
		return "already_at_first_stage"
	case errors.Is(err, domain.ErrUnknownDirection):
		return "unknown_direction"
	case errors.Is(err, domain.ErrUnknownStage):
		return "unknown_stage"
	default:
		return "other"
	}
}
