// Package domain provides core business rules for the leads bounded context:
// the heat score, the pipeline stage table and the transition guard.
// Nothing in here performs I/O.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Representation is the buyer's agency status as answered at intake.
type Representation string

const (
	RepresentationUnrepresented Representation = "unrepresented"
	RepresentationUnsure        Representation = "unsure"
	RepresentationRepresented   Representation = "represented"
)

// Timeline is the purchase horizon answered at intake.
type Timeline string

const (
	Timeline0To3Months Timeline = "0-3mo"
	Timeline3To6Months Timeline = "3-6mo"
	Timeline6PlusMonth Timeline = "6mo+"
	TimelineBrowsing   Timeline = "browsing"
)

// Financing is the buyer's financing readiness.
type Financing string

const (
	FinancingPreapproved Financing = "preapproved"
	FinancingCash        Financing = "cash"
	FinancingNeedLender  Financing = "need-lender"
	FinancingUnsure      Financing = "unsure"
)

// Attributes is the flat record of intake answers. Zero values mean "not answered".
type Attributes struct {
	Name           string         `json:"name,omitempty"`
	Email          string         `json:"email,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	ConsentEmail   bool           `json:"consentEmail"`
	ConsentSMS     bool           `json:"consentSms"`
	Representation Representation `json:"representation,omitempty"`
	WantsOutreach  bool           `json:"wantsOutreach"`
	Timeline       Timeline       `json:"timeline,omitempty"`
	Financing      Financing      `json:"financing,omitempty"`
	TargetAreas    string         `json:"targetAreas,omitempty"`
	MustHaves      string         `json:"mustHaves,omitempty"`
}

// Lead is one prospect's pipeline record.
//
// UpdatedAt is the time the lead entered its current stage. Only a stage
// change may move it; attribute edits and re-scoring leave it alone.
type Lead struct {
	ID         uuid.UUID
	SourceID   uuid.UUID // uuid.Nil when the lead has no acquisition event
	OwnerID    uuid.UUID
	Attributes Attributes
	HeatScore  int
	Stage      Stage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewLead builds a lead at the first stage with its heat score computed once.
func NewLead(id, ownerID, sourceID uuid.UUID, attrs Attributes, now time.Time) Lead {
	return Lead{
		ID:         id,
		SourceID:   sourceID,
		OwnerID:    ownerID,
		Attributes: attrs,
		HeatScore:  Score(attrs),
		Stage:      FirstStage(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
