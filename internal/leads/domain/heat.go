package domain

import "strings"

// MaxHeatScore is the cap applied after all signal points are summed. The raw
// maximum is 110, so leads strong in every dimension clip here.
const MaxHeatScore = 100

// Heat is the display grouping of a score.
type Heat string

const (
	HeatHot  Heat = "hot"
	HeatWarm Heat = "warm"
	HeatCold Heat = "cold"
)

const (
	hotThreshold  = 80
	warmThreshold = 50
)

const (
	pointsEmail        = 10
	pointsPhone        = 10
	pointsConsentEmail = 5
	pointsConsentSMS   = 5
	pointsOutreach     = 15
	pointsTargetAreas  = 5
	pointsMustHaves    = 5
)

var representationPoints = map[Representation]int{
	RepresentationUnrepresented: 20,
	RepresentationUnsure:        10,
	RepresentationRepresented:   5,
}

var timelinePoints = map[Timeline]int{
	Timeline0To3Months: 20,
	Timeline3To6Months: 15,
	Timeline6PlusMonth: 10,
	TimelineBrowsing:   5,
}

var financingPoints = map[Financing]int{
	FinancingPreapproved: 15,
	FinancingCash:        15,
	FinancingNeedLender:  10,
	FinancingUnsure:      5,
}

// ScoreBreakdown lists the points each signal group contributed.
type ScoreBreakdown struct {
	Contact        int  `json:"contact"`
	Representation int  `json:"representation"`
	Outreach       int  `json:"outreach"`
	Timeline       int  `json:"timeline"`
	Financing      int  `json:"financing"`
	Specificity    int  `json:"specificity"`
	Raw            int  `json:"raw"`
	Score          int  `json:"score"`
	Heat           Heat `json:"heat"`
}

// Breakdown scores attrs and keeps the per-group points. Unknown enum values
// and blank text contribute nothing.
func Breakdown(attrs Attributes) ScoreBreakdown {
	var b ScoreBreakdown

	if present(attrs.Email) {
		b.Contact += pointsEmail
	}
	if present(attrs.Phone) {
		b.Contact += pointsPhone
	}
	if attrs.ConsentEmail {
		b.Contact += pointsConsentEmail
	}
	if attrs.ConsentSMS {
		b.Contact += pointsConsentSMS
	}

	b.Representation = representationPoints[attrs.Representation]
	if attrs.WantsOutreach {
		b.Outreach = pointsOutreach
	}
	b.Timeline = timelinePoints[attrs.Timeline]
	b.Financing = financingPoints[attrs.Financing]

	if present(attrs.TargetAreas) {
		b.Specificity += pointsTargetAreas
	}
	if present(attrs.MustHaves) {
		b.Specificity += pointsMustHaves
	}

	b.Raw = b.Contact + b.Representation + b.Outreach + b.Timeline + b.Financing + b.Specificity
	b.Score = min(b.Raw, MaxHeatScore)
	b.Heat = Classify(b.Score)
	return b
}

// Score returns the heat score of attrs in [0, 100].
func Score(attrs Attributes) int {
	return Breakdown(attrs).Score
}

// Classify maps a score to its heat band. It is used for grouping only.
func Classify(score int) Heat {
	switch {
	case score >= hotThreshold:
		return HeatHot
	case score >= warmThreshold:
		return HeatWarm
	default:
		return HeatCold
	}
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
