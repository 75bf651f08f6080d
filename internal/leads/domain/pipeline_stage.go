package domain

// Stage is one position in the fixed sales pipeline. The identifiers are the
// wire format shared with every external system and must not be renamed.
type Stage string

const (
	StageNewLead                   Stage = "new_lead"
	StageInitialContact            Stage = "initial_contact"
	StageQualification             Stage = "qualification"
	StageInitialConsultation       Stage = "initial_consultation"
	StagePropertySearchListingPrep Stage = "property_search_listing_prep"
	StageOpenHousesAndTours        Stage = "open_houses_and_tours"
	StageOfferAndNegotiation       Stage = "offer_and_negotiation"
	StageUnderContractEscrow       Stage = "under_contract_escrow"
	StageClosingCoordination       Stage = "closing_coordination"
	StageClosedAndFollowup         Stage = "closed_and_followup"
	StageReviewRequest             Stage = "review_request"
)

// pipelineStages is the total order. Index 0 is the intake stage.
var pipelineStages = [...]Stage{
	StageNewLead,
	StageInitialContact,
	StageQualification,
	StageInitialConsultation,
	StagePropertySearchListingPrep,
	StageOpenHousesAndTours,
	StageOfferAndNegotiation,
	StageUnderContractEscrow,
	StageClosingCoordination,
	StageClosedAndFollowup,
	StageReviewRequest,
}

var stageLabels = map[Stage]string{
	StageNewLead:                   "New Lead",
	StageInitialContact:            "Initial Contact",
	StageQualification:             "Qualification",
	StageInitialConsultation:       "Initial Consultation",
	StagePropertySearchListingPrep: "Property Search / Listing Prep",
	StageOpenHousesAndTours:        "Open Houses & Tours",
	StageOfferAndNegotiation:       "Offer & Negotiation",
	StageUnderContractEscrow:       "Under Contract / Escrow",
	StageClosingCoordination:       "Closing Coordination",
	StageClosedAndFollowup:         "Closed & Follow-up",
	StageReviewRequest:             "Review Request",
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(pipelineStages))
	for i, s := range pipelineStages {
		m[s] = i
	}
	return m
}()

// StageCount is the number of stages in the pipeline.
const StageCount = len(pipelineStages)

// Stages returns the pipeline in order. The caller owns the returned slice.
func Stages() []Stage {
	out := make([]Stage, StageCount)
	copy(out, pipelineStages[:])
	return out
}

// FirstStage is where every lead starts.
func FirstStage() Stage { return pipelineStages[0] }

// FinalStage is the last position of the pipeline.
func FinalStage() Stage { return pipelineStages[StageCount-1] }

// IsKnownStage reports whether s is one of the pipeline identifiers.
func IsKnownStage(s Stage) bool {
	_, ok := stageIndex[s]
	return ok
}

// StageIndex returns the 0-based position of s.
func StageIndex(s Stage) (int, bool) {
	i, ok := stageIndex[s]
	return i, ok
}

// NextStage returns the stage after s, or false at the end or for unknown stages.
func NextStage(s Stage) (Stage, bool) {
	i, ok := stageIndex[s]
	if !ok || i >= StageCount-1 {
		return "", false
	}
	return pipelineStages[i+1], true
}

// PreviousStage returns the stage before s, or false at the start or for unknown stages.
func PreviousStage(s Stage) (Stage, bool) {
	i, ok := stageIndex[s]
	if !ok || i == 0 {
		return "", false
	}
	return pipelineStages[i-1], true
}

// Label returns the human readable name, or the raw identifier when unknown.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsClosedStage reports whether s counts as a closed deal in reporting.
func IsClosedStage(s Stage) bool {
	return s == StageClosedAndFollowup || s == StageReviewRequest
}
