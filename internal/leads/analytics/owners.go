package analytics

import (
	"sort"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// OwnerPerformance is the assignment view for one agent.
type OwnerPerformance struct {
	OwnerID            uuid.UUID `json:"ownerId"`
	Received           int       `json:"received"`
	Contacted          int       `json:"contacted"`
	Converted          int       `json:"converted"`
	ConversionRate     float64   `json:"conversionRate"`
	AvgResponseMinutes int       `json:"avgResponseMinutes"`
}

// Owners reports per-owner volume, contact and close counts. Contacted means
// the lead has left new_lead. Sorted by received descending, then owner id.
func Owners(leads []domain.Lead) []OwnerPerformance {
	type acc struct {
		row     OwnerPerformance
		minutes float64
	}
	byOwner := make(map[uuid.UUID]*acc)

	for _, l := range leads {
		a, ok := byOwner[l.OwnerID]
		if !ok {
			a = &acc{row: OwnerPerformance{OwnerID: l.OwnerID}}
			byOwner[l.OwnerID] = a
		}
		a.row.Received++
		if l.Stage != domain.StageNewLead {
			a.row.Contacted++
			a.minutes += ResponseMinutes(l)
		}
		if domain.IsClosedStage(l.Stage) {
			a.row.Converted++
		}
	}

	out := make([]OwnerPerformance, 0, len(byOwner))
	for _, a := range byOwner {
		a.row.ConversionRate = percent(float64(a.row.Converted), float64(a.row.Received))
		if a.row.Contacted > 0 {
			a.row.AvgResponseMinutes = roundInt(a.minutes / float64(a.row.Contacted))
		}
		out = append(out, a.row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Received != out[j].Received {
			return out[i].Received > out[j].Received
		}
		return out[i].OwnerID.String() < out[j].OwnerID.String()
	})
	return out
}
