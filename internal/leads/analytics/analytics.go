// Package analytics derives pipeline reports from a snapshot of leads.
//
// Every function here is read-only and recomputes its view from the slice it
// is given; there is no cached or incremental state. Callers bound the work by
// the owner scope and time window of the leads they pass in. Empty input is
// never an error: each view has a defined zero result.
package analytics

import (
	"math"
	"time"

	"realty_pipeline_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// DefaultSpeedWindow is the trailing window of the speed-to-lead view.
const DefaultSpeedWindow = 30 * 24 * time.Hour

// Options carries the injected parameters of a report run.
type Options struct {
	// Now is the reference instant for dwell and window computations.
	// Zero means the wall clock at call time.
	Now time.Time
	// SpeedWindow limits speed-to-lead and owner views to leads created
	// within it. Zero means DefaultSpeedWindow.
	SpeedWindow time.Duration
	// Location buckets the hour-of-day breakdown. Nil means UTC.
	Location *time.Location
	// ValuePerCloseCents turns closed counts into revenue estimates.
	ValuePerCloseCents int64
	// SourceSpendCents is optional marketing spend per source for ROI columns.
	SourceSpendCents map[uuid.UUID]int64
}

func (o Options) normalized() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.SpeedWindow <= 0 {
		o.SpeedWindow = DefaultSpeedWindow
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Report bundles every view over one lead snapshot.
type Report struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	TotalLeads  int                 `json:"totalLeads"`
	Stages      []StageVelocity     `json:"stages"`
	StuckDeals  []StuckDeal         `json:"stuckDeals"`
	SpeedToLead SpeedToLeadSummary  `json:"speedToLead"`
	Sources     []SourceAttribution `json:"sources"`
	Owners      []OwnerPerformance  `json:"owners"`
	Heat        HeatDistribution    `json:"heat"`
}

// Analyze runs every view over leads. Each pass is independent.
func Analyze(leads []domain.Lead, opts Options) Report {
	opts = opts.normalized()

	return Report{
		GeneratedAt: opts.Now,
		TotalLeads:  len(leads),
		Stages:      Velocity(leads, opts.Now),
		StuckDeals:  StuckDeals(leads, opts.Now),
		SpeedToLead: SpeedToLead(leads, opts.Now, opts.SpeedWindow, opts.Location),
		Sources:     Sources(leads, opts.ValuePerCloseCents, opts.SourceSpendCents),
		Owners:      Owners(CreatedSince(leads, opts.Now.Add(-opts.SpeedWindow))),
		Heat:        Heat(leads),
	}
}

// CreatedSince returns the leads created at or after since, in input order.
func CreatedSince(leads []domain.Lead, since time.Time) []domain.Lead {
	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if !l.CreatedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out
}

// HeatDistribution counts leads per heat band.
type HeatDistribution struct {
	Hot  int `json:"hot"`
	Warm int `json:"warm"`
	Cold int `json:"cold"`
}

// Heat groups leads by the heat band of their stored score.
func Heat(leads []domain.Lead) HeatDistribution {
	var d HeatDistribution
	for _, l := range leads {
		switch domain.Classify(l.HeatScore) {
		case domain.HeatHot:
			d.Hot++
		case domain.HeatWarm:
			d.Warm++
		default:
			d.Cold++
		}
	}
	return d
}

func roundInt(v float64) int {
	return int(math.Round(v))
}

// percent returns part/whole*100 with one decimal, 0 for an empty whole.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(part/whole*1000) / 10
}
