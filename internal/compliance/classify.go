package compliance

import (
	"time"

	"calibration-backend/internal/model"
)

// Band is the urgency classification of an instrument's open cycle.
type Band string

const (
	BandTerminal  Band = "Terminal"
	BandOverdue   Band = "Overdue"
	BandActSoon   Band = "ActSoon"
	BandCompliant Band = "Compliant"
)

// Display labels shown next to each band.
const (
	LabelComplete  = "Complete"
	LabelAct       = "Act"
	LabelBeReady   = "Be Ready"
	LabelCompleted = "Completed"
)

const (
	compliantAbove = 0.5
	actSoonAbove   = 0.25
)

// nominal day length per frequency; fixed, not derived from the calendar.
var periodDays = map[model.Frequency]float64{
	model.FrequencyMonthly:    30,
	model.FrequencyBiMonthly:  61,
	model.FrequencyQuarterly:  91,
	model.FrequencyHalfYearly: 182,
	model.FrequencyYearly:     365,
	model.FrequencyBiYearly:   730,
}

// PeriodDays returns the nominal cycle length of f in days.
func PeriodDays(f model.Frequency) (float64, bool) {
	d, ok := periodDays[f]
	return d, ok
}

// Classification is the result of Classify.
type Classification struct {
	Band              Band    `json:"band"`
	Label             string  `json:"label"`
	DaysRemaining     float64 `json:"days_remaining"`
	FractionRemaining float64 `json:"fraction_remaining"`
}

func terminal() Classification {
	return Classification{Band: BandTerminal, Label: LabelComplete}
}

// Classify bands an open cycle by the fraction of its nominal period left
// before nextDue. A nil or zero due date, or an unrecognized frequency,
// yields BandTerminal.
func Classify(nextDue *time.Time, f model.Frequency, now time.Time) Classification {
	if nextDue == nil || nextDue.IsZero() {
		return terminal()
	}
	period, ok := periodDays[f]
	if !ok {
		return terminal()
	}

	days := nextDue.Sub(now).Hours() / 24
	if days < 0 {
		return Classification{Band: BandOverdue, Label: LabelAct, DaysRemaining: days, FractionRemaining: days / period}
	}

	fraction := days / period
	c := Classification{DaysRemaining: days, FractionRemaining: fraction}
	switch {
	case fraction > compliantAbove:
		c.Band, c.Label = BandCompliant, LabelCompleted
	case fraction > actSoonAbove:
		c.Band, c.Label = BandActSoon, LabelBeReady
	default:
		c.Band, c.Label = BandOverdue, LabelAct
	}
	return c
}
