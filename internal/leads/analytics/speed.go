package analytics

import (
	"sort"
	"time"

	"realty_pipeline_backend/internal/leads/domain"
)

// Response-time bucket edges in minutes. Each bucket is half open: [lo, hi).
const (
	bucketFast    = 5
	bucketMedium  = 15
	bucketOneHour = 60
)

// SpeedToLeadSummary describes how quickly leads created inside the window
// left new_lead. A lead that has left new_lead is "responded" and its
// response time is UpdatedAt minus CreatedAt.
//
// That is an approximation: UpdatedAt moves on every stage change, so a lead
// that has progressed past initial_contact reports the time to its latest
// move rather than to first contact.
type SpeedToLeadSummary struct {
	TotalLeads            int              `json:"totalLeads"`
	Responded             int              `json:"responded"`
	NoResponse            int              `json:"noResponse"`
	AvgResponseMinutes    int              `json:"avgResponseMinutes"`
	MedianResponseMinutes int              `json:"medianResponseMinutes"`
	Under5Min             int              `json:"under5Min"`
	Under15Min            int              `json:"under15Min"`
	Under1Hr              int              `json:"under1Hr"`
	Over1Hr               int              `json:"over1Hr"`
	Hourly                []HourlyResponse `json:"hourly"`
}

// HourlyResponse groups leads by the local hour they were created.
// AvgResponseMinutes covers responded leads only.
type HourlyResponse struct {
	Hour               int `json:"hour"`
	Leads              int `json:"leads"`
	Responded          int `json:"responded"`
	AvgResponseMinutes int `json:"avgResponseMinutes"`
}

// ResponseMinutes is the fractional minutes between creation and the last
// stage change, never negative. Callers round only the final statistic.
func ResponseMinutes(l domain.Lead) float64 {
	d := l.UpdatedAt.Sub(l.CreatedAt)
	if d < 0 {
		return 0
	}
	return d.Minutes()
}

// SpeedToLead summarises response times for leads created within window of
// now. A non-positive window includes every lead. loc decides the
// hour-of-day buckets.
func SpeedToLead(leads []domain.Lead, now time.Time, window time.Duration, loc *time.Location) SpeedToLeadSummary {
	if loc == nil {
		loc = time.UTC
	}
	if window > 0 {
		leads = CreatedSince(leads, now.Add(-window))
	}

	summary := SpeedToLeadSummary{
		TotalLeads: len(leads),
		Hourly:     make([]HourlyResponse, 0),
	}

	times := make([]float64, 0, len(leads))
	type hourAcc struct {
		leads, responded int
		minutes          float64
	}
	hours := make(map[int]*hourAcc)

	for _, l := range leads {
		hour := l.CreatedAt.In(loc).Hour()
		h, ok := hours[hour]
		if !ok {
			h = &hourAcc{}
			hours[hour] = h
		}
		h.leads++

		if l.Stage == domain.StageNewLead {
			summary.NoResponse++
			continue
		}

		mins := ResponseMinutes(l)
		times = append(times, mins)
		h.responded++
		h.minutes += mins

		switch {
		case mins < bucketFast:
			summary.Under5Min++
		case mins < bucketMedium:
			summary.Under15Min++
		case mins < bucketOneHour:
			summary.Under1Hr++
		default:
			summary.Over1Hr++
		}
	}

	summary.Responded = len(times)
	if len(times) > 0 {
		sort.Float64s(times)
		var total float64
		for _, m := range times {
			total += m
		}
		summary.AvgResponseMinutes = roundInt(total / float64(len(times)))
		// Upper middle for even counts.
		summary.MedianResponseMinutes = roundInt(times[len(times)/2])
	}

	for hour, h := range hours {
		row := HourlyResponse{Hour: hour, Leads: h.leads, Responded: h.responded}
		if h.responded > 0 {
			row.AvgResponseMinutes = roundInt(h.minutes / float64(h.responded))
		}
		summary.Hourly = append(summary.Hourly, row)
	}
	sort.Slice(summary.Hourly, func(i, j int) bool {
		return summary.Hourly[i].Hour < summary.Hourly[j].Hour
	})

	return summary
}
