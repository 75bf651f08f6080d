package transport

import (
	"time"

	"realty_pipeline_backend/internal/leads/analytics"
	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Categorical intake answers are not restricted to their known values here:
// the scorer gives an unrecognised answer zero points instead of rejecting
// the lead.

type CreateLeadRequest struct {
	SourceID       *uuid.UUID `json:"sourceId"`
	Name           string     `json:"name" validate:"max=200"`
	Email          string     `json:"email" validate:"omitempty,email,max=320"`
	Phone          string     `json:"phone" validate:"max=40"`
	ConsentEmail   bool       `json:"consentEmail"`
	ConsentSMS     bool       `json:"consentSms"`
	Representation string     `json:"representation" validate:"max=40"`
	WantsOutreach  bool       `json:"wantsOutreach"`
	Timeline       string     `json:"timeline" validate:"max=40"`
	Financing      string     `json:"financing" validate:"max=40"`
	TargetAreas    string     `json:"targetAreas" validate:"max=500"`
	MustHaves      string     `json:"mustHaves" validate:"max=1000"`
}

// UpdateAttributesRequest is a partial update: nil fields keep their value.
type UpdateAttributesRequest struct {
	Name           *string `json:"name" validate:"omitempty,max=200"`
	Email          *string `json:"email" validate:"omitempty,email,max=320"`
	Phone          *string `json:"phone" validate:"omitempty,max=40"`
	ConsentEmail   *bool   `json:"consentEmail"`
	ConsentSMS     *bool   `json:"consentSms"`
	Representation *string `json:"representation" validate:"omitempty,max=40"`
	WantsOutreach  *bool   `json:"wantsOutreach"`
	Timeline       *string `json:"timeline" validate:"omitempty,max=40"`
	Financing      *string `json:"financing" validate:"omitempty,max=40"`
	TargetAreas    *string `json:"targetAreas" validate:"omitempty,max=500"`
	MustHaves      *string `json:"mustHaves" validate:"omitempty,max=1000"`
}

// AdvanceStageRequest names either a target stage or a direction. An empty
// body advances one stage forward. Stage and direction values are checked by
// the pipeline guard so the rejection reason reaches the caller.
type AdvanceStageRequest struct {
	Stage     string `json:"stage" validate:"omitempty,max=40"`
	Direction string `json:"direction" validate:"omitempty,max=20"`
}

type ListLeadsRequest struct {
	Stage    string `form:"stage" validate:"omitempty,pipeline_stage"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

type LeadResponse struct {
	ID         uuid.UUID         `json:"id"`
	OwnerID    uuid.UUID         `json:"ownerId"`
	SourceID   *uuid.UUID        `json:"sourceId,omitempty"`
	Attributes domain.Attributes `json:"attributes"`
	HeatScore  int               `json:"heatScore"`
	Heat       domain.Heat       `json:"heat"`
	Stage      domain.Stage      `json:"stage"`
	StageLabel string            `json:"stageLabel"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type BoardColumnResponse struct {
	Stage domain.Stage   `json:"stage"`
	Label string         `json:"label"`
	Count int            `json:"count"`
	Leads []LeadResponse `json:"leads"`
}

type BoardResponse struct {
	Columns []BoardColumnResponse `json:"columns"`
}

type ScoreResponse struct {
	Lead      LeadResponse          `json:"lead"`
	Breakdown domain.ScoreBreakdown `json:"breakdown"`
}

type AdvanceStageResponse struct {
	Lead     LeadResponse `json:"lead"`
	Previous domain.Stage `json:"previous"`
	Current  domain.Stage `json:"current"`
	Distance int          `json:"distance"`
}

type StageTransitionResponse struct {
	From       domain.Stage `json:"from"`
	To         domain.Stage `json:"to"`
	Distance   int          `json:"distance"`
	ActorID    uuid.UUID    `json:"actorId"`
	OccurredAt time.Time    `json:"occurredAt"`
}

type SnapshotResponse struct {
	OwnerID    uuid.UUID        `json:"ownerId"`
	StoredAt   time.Time        `json:"storedAt"`
	ArchiveKey string           `json:"archiveKey,omitempty"`
	Report     analytics.Report `json:"report"`
}

type SnapshotQueuedResponse struct {
	Status string `json:"status"`
}

// ToLeadResponse renders a lead with its derived heat band and stage label.
func ToLeadResponse(lead domain.Lead) LeadResponse {
	resp := LeadResponse{
		ID:         lead.ID,
		OwnerID:    lead.OwnerID,
		Attributes: lead.Attributes,
		HeatScore:  lead.HeatScore,
		Heat:       domain.Classify(lead.HeatScore),
		Stage:      lead.Stage,
		StageLabel: lead.Stage.Label(),
		CreatedAt:  lead.CreatedAt,
		UpdatedAt:  lead.UpdatedAt,
	}
	if lead.SourceID != uuid.Nil {
		source := lead.SourceID
		resp.SourceID = &source
	}
	return resp
}

func ToLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}
