package analytics

import (
	"math"
	"sort"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// SourceAttribution is the volume and outcome of one lead source.
// Leads without a source are reported under uuid.Nil.
//
// The spend columns are zero when no spend is known for the source.
type SourceAttribution struct {
	SourceID              uuid.UUID `json:"sourceId"`
	Leads                 int       `json:"leads"`
	Closed                int       `json:"closed"`
	ConversionRate        float64   `json:"conversionRate"`
	EstimatedRevenueCents int64     `json:"estimatedRevenueCents"`
	SpendCents            int64     `json:"spendCents"`
	CostPerLeadCents      int64     `json:"costPerLeadCents"`
	CostPerCloseCents     int64     `json:"costPerCloseCents"`
	ROIPercent            float64   `json:"roiPercent"`
}

// Sources groups leads by source and counts closed deals. Revenue is closed
// count times valuePerClose; spend is optional. Sorted by lead volume
// descending, then source id.
func Sources(leads []domain.Lead, valuePerCloseCents int64, spendCents map[uuid.UUID]int64) []SourceAttribution {
	bySource := make(map[uuid.UUID]*SourceAttribution)
	for _, l := range leads {
		row, ok := bySource[l.SourceID]
		if !ok {
			row = &SourceAttribution{SourceID: l.SourceID}
			bySource[l.SourceID] = row
		}
		row.Leads++
		if domain.IsClosedStage(l.Stage) {
			row.Closed++
		}
	}

	out := make([]SourceAttribution, 0, len(bySource))
	for id, row := range bySource {
		row.ConversionRate = percent(float64(row.Closed), float64(row.Leads))
		row.EstimatedRevenueCents = int64(row.Closed) * valuePerCloseCents

		if spend, ok := spendCents[id]; ok && spend > 0 {
			row.SpendCents = spend
			row.CostPerLeadCents = spend / int64(row.Leads)
			if row.Closed > 0 {
				row.CostPerCloseCents = spend / int64(row.Closed)
			}
			row.ROIPercent = math.Round(float64(row.EstimatedRevenueCents-spend)/float64(spend)*1000) / 10
		}
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Leads != out[j].Leads {
			return out[i].Leads > out[j].Leads
		}
		return out[i].SourceID.String() < out[j].SourceID.String()
	})
	return out
}
