package service

import (
	"context"
	"errors"
	"time"

	"realty_pipeline_backend/internal/events"
	"realty_pipeline_backend/internal/leads/analytics"
	"realty_pipeline_backend/internal/leads/snapshot"
	"realty_pipeline_backend/internal/leads/transport"
	"realty_pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	msgSnapshotsDisabled = "pipeline snapshots are not configured"
	msgSnapshotNotFound  = "no pipeline snapshot stored yet"
	msgSnapshotFailed    = "snapshot storage failure"
)

// Board returns the kanban view of the owner's pipeline.
func (s *Service) Board(ctx context.Context, ownerID uuid.UUID) (transport.BoardResponse, error) {
	leads, err := s.repo.ListForAnalytics(ctx, ownerID, nil)
	if err != nil {
		return transport.BoardResponse{}, s.storageError("list leads for board", err)
	}

	columns := analytics.Board(leads)
	out := transport.BoardResponse{Columns: make([]transport.BoardColumnResponse, 0, len(columns))}
	for _, col := range columns {
		out.Columns = append(out.Columns, transport.BoardColumnResponse{
			Stage: col.Stage,
			Label: col.Label,
			Count: len(col.Leads),
			Leads: transport.ToLeadResponses(col.Leads),
		})
	}
	return out, nil
}

// Report computes every pipeline view over the owner's leads as of now.
func (s *Service) Report(ctx context.Context, ownerID uuid.UUID) (analytics.Report, error) {
	started := time.Now()

	leads, err := s.repo.ListForAnalytics(ctx, ownerID, nil)
	if err != nil {
		return analytics.Report{}, s.storageError("list leads for analytics", err)
	}

	report := analytics.Analyze(leads, s.reportOptions())

	took := time.Since(started)
	s.metrics.ObserveAnalytics("report", took)
	s.log.WithContext(ctx).AnalyticsRun(ownerID.String(), len(leads), took)
	return report, nil
}

// StoreSnapshot computes the report and caches it. When an archiver is
// configured the snapshot is also written to object storage; a failed upload
// does not discard the cached copy.
func (s *Service) StoreSnapshot(ctx context.Context, ownerID uuid.UUID) (snapshot.Snapshot, error) {
	if s.snapshots == nil {
		return snapshot.Snapshot{}, apperr.Unavailable(msgSnapshotsDisabled)
	}

	report, err := s.Report(ctx, ownerID)
	if err != nil {
		s.metrics.RecordSnapshot("failed")
		return snapshot.Snapshot{}, err
	}

	snap := snapshot.Snapshot{
		OwnerID:  ownerID,
		StoredAt: report.GeneratedAt,
		Report:   report,
	}

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, snap)
		if err != nil {
			s.log.WithContext(ctx).Warn("pipeline snapshot archive failed", "ownerId", ownerID, "error", err)
		} else {
			snap.ArchiveKey = key
		}
	}

	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.metrics.RecordSnapshot("failed")
		return snapshot.Snapshot{}, apperr.Wrap(apperr.KindInternal, msgSnapshotFailed, err).WithOp("save snapshot")
	}

	s.metrics.RecordSnapshot("stored")
	s.bus.Publish(ctx, events.PipelineSnapshotStored{
		BaseEvent:  events.NewBaseEvent(snap.StoredAt),
		OwnerID:    ownerID,
		TotalLeads: report.TotalLeads,
		ArchiveKey: snap.ArchiveKey,
	})
	return snap, nil
}

// GetSnapshot returns the last cached report for the owner.
func (s *Service) GetSnapshot(ctx context.Context, ownerID uuid.UUID) (transport.SnapshotResponse, error) {
	if s.snapshots == nil {
		return transport.SnapshotResponse{}, apperr.Unavailable(msgSnapshotsDisabled)
	}

	snap, err := s.snapshots.Load(ctx, ownerID)
	if errors.Is(err, snapshot.ErrNotFound) {
		return transport.SnapshotResponse{}, apperr.NotFound(msgSnapshotNotFound)
	}
	if err != nil {
		return transport.SnapshotResponse{}, apperr.Wrap(apperr.KindInternal, msgSnapshotFailed, err).WithOp("load snapshot")
	}

	return transport.SnapshotResponse{
		OwnerID:    snap.OwnerID,
		StoredAt:   snap.StoredAt,
		ArchiveKey: snap.ArchiveKey,
		Report:     snap.Report,
	}, nil
}

// RequestSnapshot queues an asynchronous snapshot refresh for the owner.
func (s *Service) RequestSnapshot(ctx context.Context, ownerID uuid.UUID) error {
	if s.enqueuer == nil || s.snapshots == nil {
		return apperr.Unavailable(msgSnapshotsDisabled)
	}
	if err := s.enqueuer.EnqueuePipelineSnapshot(ctx, ownerID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to queue snapshot", err).WithOp("enqueue snapshot")
	}
	return nil
}

// ListOwners returns every owner with at least one lead.
func (s *Service) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	owners, err := s.repo.ListOwners(ctx)
	if err != nil {
		return nil, s.storageError("list owners", err)
	}
	return owners, nil
}

func (s *Service) reportOptions() analytics.Options {
	return analytics.Options{
		Now:                s.now(),
		SpeedWindow:        s.cfg.GetSpeedToLeadWindow(),
		Location:           s.cfg.GetAnalyticsLocation(),
		ValuePerCloseCents: s.cfg.GetValuePerCloseCents(),
		SourceSpendCents:   s.spend,
	}
}
