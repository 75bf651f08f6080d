package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var baseTime = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func leadAt(stage Stage) Lead {
	return Lead{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Stage:     stage,
		CreatedAt: baseTime.Add(-time.Hour),
		UpdatedAt: baseTime,
	}
}

func TestStageTableOrder(t *testing.T) {
	want := []Stage{
		"new_lead", "initial_contact", "qualification", "initial_consultation",
		"property_search_listing_prep", "open_houses_and_tours", "offer_and_negotiation",
		"under_contract_escrow", "closing_coordination", "closed_and_followup", "review_request",
	}
	got := Stages()
	if len(got) != len(want) || StageCount != 11 {
		t.Fatalf("expected 11 stages, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], got[i])
		}
		if idx, ok := StageIndex(want[i]); !ok || idx != i {
			t.Fatalf("StageIndex(%s) = %d,%v", want[i], idx, ok)
		}
	}

	got[0] = "mutated"
	if Stages()[0] != StageNewLead {
		t.Fatalf("Stages must return a copy")
	}
}

func TestStageNeighbours(t *testing.T) {
	if next, ok := NextStage(StageNewLead); !ok || next != StageInitialContact {
		t.Fatalf("unexpected next of new_lead: %s %v", next, ok)
	}
	if _, ok := NextStage(StageReviewRequest); ok {
		t.Fatalf("final stage must have no next")
	}
	if _, ok := PreviousStage(StageNewLead); ok {
		t.Fatalf("first stage must have no previous")
	}
	if prev, ok := PreviousStage(StageReviewRequest); !ok || prev != StageClosedAndFollowup {
		t.Fatalf("unexpected previous of review_request: %s %v", prev, ok)
	}
	if StageOpenHousesAndTours.Label() != "Open Houses & Tours" {
		t.Fatalf("unexpected label %q", StageOpenHousesAndTours.Label())
	}
	if Stage("legacy").Label() != "legacy" {
		t.Fatalf("unknown stages should label as themselves")
	}
}

func TestAdvanceForwardMovesOneStep(t *testing.T) {
	stages := Stages()
	for i := 0; i < StageCount-1; i++ {
		lead := leadAt(stages[i])
		tr, err := Advance(lead, AdvanceRequest{Direction: DirectionForward}, baseTime.Add(time.Minute))
		if err != nil {
			t.Fatalf("stage %s: unexpected error %v", stages[i], err)
		}
		if tr.Current != stages[i+1] || tr.Lead.Stage != stages[i+1] {
			t.Fatalf("stage %s: expected %s, got %s", stages[i], stages[i+1], tr.Current)
		}
		if tr.Previous != stages[i] || tr.Distance != 1 {
			t.Fatalf("stage %s: unexpected previous/distance %s/%d", stages[i], tr.Previous, tr.Distance)
		}
		if !tr.Lead.UpdatedAt.After(lead.UpdatedAt) {
			t.Fatalf("stage %s: UpdatedAt did not increase", stages[i])
		}
	}
}

func TestAdvanceDefaultDirectionIsForward(t *testing.T) {
	tr, err := Advance(leadAt(StageQualification), AdvanceRequest{}, baseTime.Add(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Current != StageInitialConsultation {
		t.Fatalf("expected initial_consultation, got %s", tr.Current)
	}
}

func TestAdvanceBackward(t *testing.T) {
	tr, err := Advance(leadAt(StageReviewRequest), AdvanceRequest{Direction: DirectionBackward}, baseTime.Add(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Current != StageClosedAndFollowup || tr.Distance != -1 {
		t.Fatalf("expected closed_and_followup at distance -1, got %s/%d", tr.Current, tr.Distance)
	}
}

func TestAdvanceBoundaryRejection(t *testing.T) {
	tests := []struct {
		stage Stage
		dir   Direction
		want  error
	}{
		{StageNewLead, DirectionBackward, ErrAlreadyAtFirstStage},
		{StageReviewRequest, DirectionForward, ErrAlreadyAtFinalStage},
		{StageReviewRequest, "", ErrAlreadyAtFinalStage},
		{StageQualification, "sideways", ErrUnknownDirection},
		{Stage("legacy_stage"), DirectionForward, ErrUnknownStage},
	}

	for _, tc := range tests {
		lead := leadAt(tc.stage)
		before := lead
		_, err := Advance(lead, AdvanceRequest{Direction: tc.dir}, baseTime.Add(time.Hour))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s/%s: expected %v, got %v", tc.stage, tc.dir, tc.want, err)
		}
		if lead != before {
			t.Fatalf("%s/%s: lead was modified on rejection", tc.stage, tc.dir)
		}
	}

	if ErrAlreadyAtFirstStage.Error() != "already at first stage" || ErrAlreadyAtFinalStage.Error() != "already at final stage" {
		t.Fatalf("unexpected boundary reasons")
	}
}

func TestAdvanceExplicitStage(t *testing.T) {
	lead := leadAt(StageNewLead)

	tr, err := Advance(lead, AdvanceRequest{Stage: StageClosingCoordination}, baseTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Current != StageClosingCoordination || tr.Distance != 8 {
		t.Fatalf("expected jump of 8 to closing_coordination, got %s/%d", tr.Current, tr.Distance)
	}
	if lead.Stage != StageNewLead {
		t.Fatalf("input lead must not be mutated")
	}

	back, err := Advance(tr.Lead, AdvanceRequest{Stage: StageQualification, Direction: DirectionForward}, baseTime.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Current != StageQualification || back.Distance != -6 {
		t.Fatalf("explicit stage should win over direction, got %s/%d", back.Current, back.Distance)
	}
}

func TestAdvanceExplicitUnknownStage(t *testing.T) {
	_, err := Advance(leadAt(StageNewLead), AdvanceRequest{Stage: "won"}, baseTime)
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestAdvanceExplicitNeverLeavesStageSet(t *testing.T) {
	for _, target := range append(Stages(), "", "closed", "REVIEW_REQUEST") {
		tr, err := Advance(leadAt(StageQualification), AdvanceRequest{Stage: target}, baseTime.Add(time.Second))
		if err != nil {
			continue
		}
		if !IsKnownStage(tr.Lead.Stage) {
			t.Fatalf("advance produced stage %q outside the pipeline", tr.Lead.Stage)
		}
	}
}

func TestAdvanceUpdatedAtStrictlyIncreasesWithStaleClock(t *testing.T) {
	lead := leadAt(StageNewLead)

	tr, err := Advance(lead, AdvanceRequest{}, baseTime.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tr.Lead.UpdatedAt.After(lead.UpdatedAt) {
		t.Fatalf("expected UpdatedAt after %s, got %s", lead.UpdatedAt, tr.Lead.UpdatedAt)
	}

	same, err := Advance(lead, AdvanceRequest{}, baseTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !same.Lead.UpdatedAt.After(lead.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to move past an equal clock")
	}
}

func TestAdvanceDoesNotTouchOtherFields(t *testing.T) {
	lead := leadAt(StageInitialContact)
	lead.HeatScore = 73
	lead.Attributes = Attributes{Email: "x@y.z"}

	tr, err := Advance(lead, AdvanceRequest{}, baseTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Lead.HeatScore != 73 || tr.Lead.CreatedAt != lead.CreatedAt || tr.Lead.ID != lead.ID || tr.Lead.Attributes != lead.Attributes {
		t.Fatalf("advance changed fields other than stage and UpdatedAt")
	}
}

func TestEndToEndIntakeAndProgression(t *testing.T) {
	attrs := Attributes{
		Email:          "buyer@example.com",
		Phone:          "+18085550100",
		Representation: RepresentationUnrepresented,
		WantsOutreach:  true,
		Timeline:       Timeline0To3Months,
		Financing:      FinancingCash,
	}
	lead := NewLead(uuid.New(), uuid.New(), uuid.Nil, attrs, baseTime)
	if lead.HeatScore != 90 || Classify(lead.HeatScore) != HeatHot {
		t.Fatalf("expected hot lead scoring 90, got %d", lead.HeatScore)
	}
	if lead.Stage != StageNewLead {
		t.Fatalf("expected new lead at new_lead, got %s", lead.Stage)
	}

	now := baseTime
	for i := 0; i < 5; i++ {
		now = now.Add(time.Hour)
		tr, err := Advance(lead, AdvanceRequest{Direction: DirectionForward}, now)
		if err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
		lead = tr.Lead
	}
	if lead.Stage != StageOpenHousesAndTours {
		t.Fatalf("expected open_houses_and_tours after five advances, got %s", lead.Stage)
	}

	tr, err := Advance(lead, AdvanceRequest{}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("sixth advance: %v", err)
	}
	if tr.Lead.Stage != StageOfferAndNegotiation {
		t.Fatalf("expected offer_and_negotiation, got %s", tr.Lead.Stage)
	}
}
