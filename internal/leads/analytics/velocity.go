package analytics

import (
	"sort"
	"time"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

const (
	// stuckMultiplier flags a lead whose dwell reaches this multiple of its stage average.
	stuckMultiplier = 2.0
	// minStageAverageDays keeps near-zero averages from flagging every lead.
	minStageAverageDays = 1.0
)

// StageVelocity is one row of the stage distribution view.
//
// ConversionToNext is a same-instant snapshot ratio: of the leads not yet
// accounted for by earlier stages, the share that sits beyond this stage
// right now. It does not follow individual leads over time and is not a
// cohort funnel conversion rate.
//
// The depletion starts from the leads in known stages only. A lead whose
// stage is not in the pipeline is left out of the base as well as every row.
type StageVelocity struct {
	Stage            domain.Stage `json:"stage"`
	Label            string       `json:"label"`
	Count            int          `json:"count"`
	AvgDwellDays     float64      `json:"avgDwellDays"`
	ConversionToNext int          `json:"conversionToNext"`
}

// StuckDeal is a lead whose dwell time is at least twice its stage average.
type StuckDeal struct {
	LeadID       uuid.UUID    `json:"leadId"`
	OwnerID      uuid.UUID    `json:"ownerId"`
	SourceID     uuid.UUID    `json:"sourceId"`
	Name         string       `json:"name"`
	Stage        domain.Stage `json:"stage"`
	Label        string       `json:"label"`
	HeatScore    int          `json:"heatScore"`
	DwellDays    float64      `json:"dwellDays"`
	StageAvgDays float64      `json:"stageAvgDays"`
}

// DwellDays is the time since the lead entered its current stage, in days.
// A timestamp in the future counts as zero.
func DwellDays(l domain.Lead, now time.Time) float64 {
	d := now.Sub(l.UpdatedAt)
	if d < 0 {
		return 0
	}
	return d.Hours() / 24
}

type stageDwell struct {
	count int
	sum   float64
}

func (s stageDwell) avg() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

// dwellByStage accumulates dwell per known stage. Leads carrying an unknown
// stage are left out of every per-stage figure.
func dwellByStage(leads []domain.Lead, now time.Time) map[domain.Stage]stageDwell {
	acc := make(map[domain.Stage]stageDwell, domain.StageCount)
	for _, l := range leads {
		if !domain.IsKnownStage(l.Stage) {
			continue
		}
		entry := acc[l.Stage]
		entry.count++
		entry.sum += DwellDays(l, now)
		acc[l.Stage] = entry
	}
	return acc
}

// Velocity returns one entry per stage in pipeline order with its count,
// average dwell and running-depletion conversion. A stage with no leads
// reports 100: nothing was lost there.
func Velocity(leads []domain.Lead, now time.Time) []StageVelocity {
	acc := dwellByStage(leads, now)

	remaining := 0
	for _, entry := range acc {
		remaining += entry.count
	}

	stages := domain.Stages()
	out := make([]StageVelocity, 0, len(stages))
	for _, stage := range stages {
		entry := acc[stage]

		conversion := 100
		if entry.count > 0 {
			conversion = roundInt(float64(remaining-entry.count) / float64(remaining) * 100)
			remaining -= entry.count
		}

		out = append(out, StageVelocity{
			Stage:            stage,
			Label:            stage.Label(),
			Count:            entry.count,
			AvgDwellDays:     entry.avg(),
			ConversionToNext: conversion,
		})
	}
	return out
}

// StuckDeals flags leads whose dwell is at least twice the average dwell of
// everyone in the same stage, floored at one day. The threshold is relative,
// so a stage with a single occupant never produces a stuck deal. Sorted by
// dwell descending.
func StuckDeals(leads []domain.Lead, now time.Time) []StuckDeal {
	acc := dwellByStage(leads, now)

	out := make([]StuckDeal, 0)
	for _, l := range leads {
		entry, ok := acc[l.Stage]
		if !ok {
			continue
		}

		avg := entry.avg()
		dwell := DwellDays(l, now)
		if dwell < stuckMultiplier*max(avg, minStageAverageDays) {
			continue
		}

		out = append(out, StuckDeal{
			LeadID:       l.ID,
			OwnerID:      l.OwnerID,
			SourceID:     l.SourceID,
			Name:         displayName(l),
			Stage:        l.Stage,
			Label:        l.Stage.Label(),
			HeatScore:    l.HeatScore,
			DwellDays:    dwell,
			StageAvgDays: avg,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DwellDays != out[j].DwellDays {
			return out[i].DwellDays > out[j].DwellDays
		}
		return out[i].LeadID.String() < out[j].LeadID.String()
	})
	return out
}

func displayName(l domain.Lead) string {
	if l.Attributes.Name != "" {
		return l.Attributes.Name
	}
	return "Unknown"
}
