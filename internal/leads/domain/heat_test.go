package domain

import "testing"

func fullAttributes() Attributes {
	return Attributes{
		Email:          "buyer@example.com",
		Phone:          "+18085550100",
		ConsentEmail:   true,
		ConsentSMS:     true,
		Representation: RepresentationUnrepresented,
		WantsOutreach:  true,
		Timeline:       Timeline0To3Months,
		Financing:      FinancingPreapproved,
		TargetAreas:    "Kailua, Lanikai",
		MustHaves:      "3 bed, ocean view",
	}
}

func TestScoreEmptyAttributesIsZero(t *testing.T) {
	if got := Score(Attributes{}); got != 0 {
		t.Fatalf("expected 0 for empty attributes, got %d", got)
	}
}

func TestScoreClipsAfterSum(t *testing.T) {
	b := Breakdown(fullAttributes())
	if b.Raw != 110 {
		t.Fatalf("expected raw total 110, got %d", b.Raw)
	}
	if b.Score != MaxHeatScore {
		t.Fatalf("expected capped score 100, got %d", b.Score)
	}
	if b.Heat != HeatHot {
		t.Fatalf("expected hot, got %s", b.Heat)
	}
}

func TestScoreIntakeScenario(t *testing.T) {
	attrs := Attributes{
		Email:          "buyer@example.com",
		Phone:          "+18085550100",
		Representation: RepresentationUnrepresented,
		WantsOutreach:  true,
		Timeline:       Timeline0To3Months,
		Financing:      FinancingCash,
	}
	if got := Score(attrs); got != 90 {
		t.Fatalf("expected 90, got %d", got)
	}
	if Classify(90) != HeatHot {
		t.Fatalf("expected 90 to classify as hot")
	}
}

func TestScoreSignalWeights(t *testing.T) {
	tests := []struct {
		name  string
		attrs Attributes
		want  int
	}{
		{"email", Attributes{Email: "a@b.co"}, 10},
		{"blank email", Attributes{Email: "   "}, 0},
		{"phone", Attributes{Phone: "555"}, 10},
		{"consent email", Attributes{ConsentEmail: true}, 5},
		{"consent sms", Attributes{ConsentSMS: true}, 5},
		{"unrepresented", Attributes{Representation: RepresentationUnrepresented}, 20},
		{"unsure representation", Attributes{Representation: RepresentationUnsure}, 10},
		{"represented", Attributes{Representation: RepresentationRepresented}, 5},
		{"unknown representation", Attributes{Representation: "maybe"}, 0},
		{"outreach", Attributes{WantsOutreach: true}, 15},
		{"timeline 0-3", Attributes{Timeline: Timeline0To3Months}, 20},
		{"timeline 3-6", Attributes{Timeline: Timeline3To6Months}, 15},
		{"timeline 6+", Attributes{Timeline: Timeline6PlusMonth}, 10},
		{"browsing", Attributes{Timeline: TimelineBrowsing}, 5},
		{"preapproved", Attributes{Financing: FinancingPreapproved}, 15},
		{"cash", Attributes{Financing: FinancingCash}, 15},
		{"need lender", Attributes{Financing: FinancingNeedLender}, 10},
		{"financing unsure", Attributes{Financing: FinancingUnsure}, 5},
		{"target areas", Attributes{TargetAreas: "Kailua"}, 5},
		{"blank target areas", Attributes{TargetAreas: "\t"}, 0},
		{"must haves", Attributes{MustHaves: "garage"}, 5},
	}

	for _, tc := range tests {
		if got := Score(tc.attrs); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScoreBoundedAndMonotonic(t *testing.T) {
	reps := []Representation{"", RepresentationUnrepresented, RepresentationUnsure, RepresentationRepresented}
	timelines := []Timeline{"", Timeline0To3Months, Timeline3To6Months, Timeline6PlusMonth, TimelineBrowsing}
	financing := []Financing{"", FinancingPreapproved, FinancingCash, FinancingNeedLender, FinancingUnsure}

	addSignals := []func(*Attributes){
		func(a *Attributes) { a.Email = "a@b.co" },
		func(a *Attributes) { a.Phone = "555" },
		func(a *Attributes) { a.ConsentEmail = true },
		func(a *Attributes) { a.ConsentSMS = true },
		func(a *Attributes) { a.WantsOutreach = true },
		func(a *Attributes) { a.TargetAreas = "x" },
		func(a *Attributes) { a.MustHaves = "y" },
	}

	for mask := 0; mask < 1<<len(addSignals); mask++ {
		for _, r := range reps {
			for _, tl := range timelines {
				for _, f := range financing {
					attrs := Attributes{Representation: r, Timeline: tl, Financing: f}
					for i, add := range addSignals {
						if mask&(1<<i) != 0 {
							add(&attrs)
						}
					}

					score := Score(attrs)
					if score < 0 || score > MaxHeatScore {
						t.Fatalf("score %d out of bounds for %+v", score, attrs)
					}

					for _, add := range addSignals {
						more := attrs
						add(&more)
						if Score(more) < score {
							t.Fatalf("adding a signal decreased the score for %+v", attrs)
						}
					}
				}
			}
		}
	}
}

func TestClassifyBands(t *testing.T) {
	for score := 0; score <= MaxHeatScore; score++ {
		got := Classify(score)
		var want Heat
		switch {
		case score >= 80:
			want = HeatHot
		case score >= 50:
			want = HeatWarm
		default:
			want = HeatCold
		}
		if got != want {
			t.Fatalf("Classify(%d) = %s, want %s", score, got, want)
		}
	}

	if Classify(79) != HeatWarm || Classify(80) != HeatHot || Classify(49) != HeatCold || Classify(50) != HeatWarm {
		t.Fatalf("band edges misclassified")
	}
}
