package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calibration-backend/internal/model"
)

func TestClassify_Boundaries(t *testing.T) {
	now := day(2024, 1, 1)
	due := func(days int) *time.Time {
		d := now.AddDate(0, 0, days)
		return &d
	}

	testCases := []struct {
		name      string
		nextDue   *time.Time
		frequency model.Frequency
		band      Band
		label     string
	}{
		{"Yearly 200 days left", due(200), model.FrequencyYearly, BandCompliant, LabelCompleted},
		{"Yearly 150 days left", due(150), model.FrequencyYearly, BandActSoon, LabelBeReady},
		{"Yearly 50 days left", due(50), model.FrequencyYearly, BandOverdue, LabelAct},
		{"Yearly one day late", due(-1), model.FrequencyYearly, BandOverdue, LabelAct},
		{"BiYearly one day late", due(-1), model.FrequencyBiYearly, BandOverdue, LabelAct},
		{"Due today", due(0), model.FrequencyMonthly, BandOverdue, LabelAct},
		{"Monthly exactly half", due(15), model.FrequencyMonthly, BandActSoon, LabelBeReady},
		{"Monthly just over half", due(16), model.FrequencyMonthly, BandCompliant, LabelCompleted},
		{"Quarterly far out", due(90), model.FrequencyQuarterly, BandCompliant, LabelCompleted},
		{"No due date", nil, model.FrequencyYearly, BandTerminal, LabelComplete},
		{"Zero due date", &time.Time{}, model.FrequencyYearly, BandTerminal, LabelComplete},
		{"Unknown frequency", due(10), model.Frequency("Weekly"), BandTerminal, LabelComplete},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.nextDue, tc.frequency, now)
			assert.Equal(t, tc.band, got.Band)
			assert.Equal(t, tc.label, got.Label)
		})
	}
}

func TestClassify_Fraction(t *testing.T) {
	now := day(2024, 1, 1)
	next := now.AddDate(0, 0, 200)
	got := Classify(&next, model.FrequencyYearly, now)
	assert.InDelta(t, 200.0, got.DaysRemaining, 1e-9)
	assert.InDelta(t, 0.548, got.FractionRemaining, 0.001)

	// Partial days count.
	later := now.Add(12 * time.Hour)
	got = Classify(&next, model.FrequencyYearly, later)
	assert.InDelta(t, 199.5, got.DaysRemaining, 1e-9)
}

func TestClassify_Monotonic(t *testing.T) {
	rank := map[Band]int{BandCompliant: 0, BandActSoon: 1, BandOverdue: 2}

	for _, f := range model.Frequencies {
		t.Run(string(f), func(t *testing.T) {
			next := day(2026, 6, 30)
			last := -1
			for now := next.AddDate(-3, 0, 0); now.Before(next.AddDate(0, 0, 30)); now = now.Add(6 * time.Hour) {
				got := Classify(&next, f, now)
				r, ok := rank[got.Band]
				if !assert.True(t, ok, "unexpected band %s", got.Band) {
					return
				}
				if !assert.GreaterOrEqual(t, r, last, "band regressed at %s", now) {
					return
				}
				last = r
			}
			assert.Equal(t, rank[BandOverdue], last)
		})
	}
}

func TestPeriodDays(t *testing.T) {
	expected := map[model.Frequency]float64{
		model.FrequencyMonthly:    30,
		model.FrequencyBiMonthly:  61,
		model.FrequencyQuarterly:  91,
		model.FrequencyHalfYearly: 182,
		model.FrequencyYearly:     365,
		model.FrequencyBiYearly:   730,
	}
	for f, want := range expected {
		got, ok := PeriodDays(f)
		assert.True(t, ok)
		assert.Equal(t, want, got, string(f))
	}
	_, ok := PeriodDays("Daily")
	assert.False(t, ok)
}
