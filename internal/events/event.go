// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"realty_pipeline_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after intake stores a new lead.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	SourceID  uuid.UUID `json:"sourceId"`
	HeatScore int       `json:"heatScore"`
	Heat      string    `json:"heat"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// PipelineStageChanged is published after a stage move is persisted.
type PipelineStageChanged struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	OwnerID  uuid.UUID `json:"ownerId"`
	ActorID  uuid.UUID `json:"actorId"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Distance int       `json:"distance"`
}

func (e PipelineStageChanged) EventName() string { return "leads.pipeline.stage_changed" }

// LeadRescored is published when a stored heat score changes.
type LeadRescored struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Previous  int       `json:"previous"`
	HeatScore int       `json:"heatScore"`
	Heat      string    `json:"heat"`
}

func (e LeadRescored) EventName() string { return "leads.lead.rescored" }

// =============================================================================
// Analytics Domain Events
// =============================================================================

// PipelineSnapshotStored is published after a report snapshot is cached.
type PipelineSnapshotStored struct {
	BaseEvent
	OwnerID    uuid.UUID `json:"ownerId"`
	TotalLeads int       `json:"totalLeads"`
	ArchiveKey string    `json:"archiveKey,omitempty"`
}

func (e PipelineSnapshotStored) EventName() string { return "analytics.pipeline.snapshot_stored" }
