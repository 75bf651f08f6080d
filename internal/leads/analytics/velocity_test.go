package analytics

import (
	"testing"
	"time"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var now = time.Date(2026, 5, 20, 18, 0, 0, 0, time.UTC)

func leadIn(stage domain.Stage, dwell time.Duration) domain.Lead {
	return domain.Lead{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Stage:     stage,
		CreatedAt: now.Add(-dwell - time.Hour),
		UpdatedAt: now.Add(-dwell),
	}
}

const day = 24 * time.Hour

func TestVelocityEmptyInput(t *testing.T) {
	rows := Velocity(nil, now)
	if len(rows) != domain.StageCount {
		t.Fatalf("expected %d rows, got %d", domain.StageCount, len(rows))
	}
	for i, row := range rows {
		if row.Stage != domain.Stages()[i] {
			t.Fatalf("row %d out of pipeline order: %s", i, row.Stage)
		}
		if row.Count != 0 || row.AvgDwellDays != 0 || row.ConversionToNext != 100 {
			t.Fatalf("unexpected zero row %+v", row)
		}
	}
}

func TestVelocityCountsAndDepletion(t *testing.T) {
	leads := []domain.Lead{
		leadIn(domain.StageNewLead, 1*day),
		leadIn(domain.StageNewLead, 3*day),
		leadIn(domain.StageNewLead, 0),
		leadIn(domain.StageNewLead, 0),
		leadIn(domain.StageInitialContact, 2*day),
		leadIn(domain.StageInitialContact, 4*day),
		leadIn(domain.StageQualification, day),
		leadIn(domain.StageQualification, day),
		leadIn(domain.Stage("legacy"), day),
	}

	rows := Velocity(leads, now)
	byStage := make(map[domain.Stage]StageVelocity)
	total := 0
	for _, row := range rows {
		byStage[row.Stage] = row
		total += row.Count
	}

	if total != 8 {
		t.Fatalf("expected 8 leads across known stages, got %d", total)
	}
	if got := byStage[domain.StageNewLead]; got.Count != 4 || got.AvgDwellDays != 1 || got.ConversionToNext != 50 {
		t.Fatalf("unexpected new_lead row %+v", got)
	}
	if got := byStage[domain.StageInitialContact]; got.Count != 2 || got.AvgDwellDays != 3 || got.ConversionToNext != 50 {
		t.Fatalf("unexpected initial_contact row %+v", got)
	}
	if got := byStage[domain.StageQualification]; got.ConversionToNext != 0 {
		t.Fatalf("last occupied stage should convert 0, got %+v", got)
	}
	if got := byStage[domain.StageReviewRequest]; got.Count != 0 || got.ConversionToNext != 100 {
		t.Fatalf("empty stage should report 100, got %+v", got)
	}
}

func TestDwellDaysFutureTimestampIsZero(t *testing.T) {
	l := leadIn(domain.StageQualification, -2*time.Hour)
	if got := DwellDays(l, now); got != 0 {
		t.Fatalf("expected 0 for future UpdatedAt, got %v", got)
	}
}

func TestStuckDealsRelativeThreshold(t *testing.T) {
	stuck := leadIn(domain.StageQualification, 10*day)
	stuck.Attributes.Name = "Kai"
	leads := []domain.Lead{
		leadIn(domain.StageQualification, 1*day),
		leadIn(domain.StageQualification, 1*day),
		leadIn(domain.StageQualification, 1*day),
		stuck,
	}

	got := StuckDeals(leads, now)
	if len(got) != 1 {
		t.Fatalf("expected one stuck deal, got %d", len(got))
	}
	if got[0].LeadID != stuck.ID || got[0].DwellDays != 10 || got[0].StageAvgDays != 3.25 {
		t.Fatalf("unexpected stuck deal %+v", got[0])
	}
	if got[0].Name != "Kai" || got[0].Label != domain.StageQualification.Label() {
		t.Fatalf("unexpected display fields %+v", got[0])
	}
}

func TestStuckDealsSingleOccupantNeverStuck(t *testing.T) {
	leads := []domain.Lead{leadIn(domain.StageUnderContractEscrow, 90*day)}
	if got := StuckDeals(leads, now); len(got) != 0 {
		t.Fatalf("single occupant flagged as stuck: %+v", got)
	}
}

func TestStuckDealsFloorOnFreshStage(t *testing.T) {
	// Average is well under a day, so the one-day floor sets the bar at two days.
	leads := []domain.Lead{
		leadIn(domain.StageInitialContact, time.Hour),
		leadIn(domain.StageInitialContact, time.Hour),
		leadIn(domain.StageInitialContact, time.Hour),
		leadIn(domain.StageInitialContact, time.Hour),
		leadIn(domain.StageInitialContact, 20*time.Hour),
	}
	if got := StuckDeals(leads, now); len(got) != 0 {
		t.Fatalf("expected no stuck deals under the floor, got %+v", got)
	}
}

func TestStuckDealsSortedByDwellDescending(t *testing.T) {
	var leads []domain.Lead
	for i := 0; i < 8; i++ {
		leads = append(leads, leadIn(domain.StageNewLead, 0))
		leads = append(leads, leadIn(domain.StageOfferAndNegotiation, day))
	}
	leads = append(leads,
		leadIn(domain.StageNewLead, 5*day),
		leadIn(domain.StageOfferAndNegotiation, 12*day),
		leadIn(domain.StageNewLead, 8*day),
	)

	got := StuckDeals(leads, now)
	if len(got) != 3 {
		t.Fatalf("expected three stuck deals, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].DwellDays < got[i].DwellDays {
			t.Fatalf("stuck deals not sorted: %v before %v", got[i-1].DwellDays, got[i].DwellDays)
		}
	}
	if got[0].Stage != domain.StageOfferAndNegotiation {
		t.Fatalf("expected longest dwell first, got %s", got[0].Stage)
	}
}

func TestStuckDealsEmptyInput(t *testing.T) {
	got := StuckDeals(nil, now)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}
