// Package compliance holds the pure scheduling arithmetic: the interval
// calculator that advances a calibration date by its frequency, and the
// classifier that turns a due date into an urgency band.
package compliance

import (
	"errors"
	"fmt"
	"time"

	"calibration-backend/internal/model"
	"calibration-backend/internal/parse"
)

var (
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDate      = errors.New("invalid date")
)

type offset struct {
	years, months int
}

var offsets = map[model.Frequency]offset{
	model.FrequencyMonthly:    {months: 1},
	model.FrequencyBiMonthly:  {months: 2},
	model.FrequencyQuarterly:  {months: 3},
	model.FrequencyHalfYearly: {months: 6},
	model.FrequencyYearly:     {years: 1},
	model.FrequencyBiYearly:   {years: 2},
}

// NextDueDate advances from by the calendar offset of f. Month overflow
// follows time.AddDate normalisation (Jan 31 + 1 month is Mar 2 or 3).
func NextDueDate(from time.Time, f model.Frequency) (time.Time, error) {
	o, ok := offsets[f]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
	}
	if from.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return parse.Day(from).AddDate(o.years, o.months, 0), nil
}

// NextDueDateString is NextDueDate over wire values.
func NextDueDateString(from, frequency string) (time.Time, error) {
	f, err := model.ParseFrequency(frequency)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidFrequency, err)
	}
	d, err := parse.Date(from)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return NextDueDate(d, f)
}
