package store

import (
	"errors"
	"time"

	"calibration-backend/internal/model"
)

var (
	// ErrNotFound is returned when no live instrument matches.
	ErrNotFound = errors.New("instrument not found")
	// ErrDuplicate is returned when an instrument number is already registered.
	ErrDuplicate = errors.New("instrument number already registered")
)

// InstrumentFilter narrows ListInstruments. A nil Status returns every instrument.
type InstrumentFilter struct {
	Status *model.InstrumentStatus
}

// CycleQuery narrows ListCycles. Zero values are unbounded.
// From and To compare against the UTC calendar day of EntryTimestamp, inclusive.
type CycleQuery struct {
	InstrumentNumber string
	From             time.Time
	To               time.Time
}

// CycleSummary aggregates the ledger for one instrument number.
type CycleSummary struct {
	Count  int64
	Latest model.CalibrationCycle
}

// ApplyFunc mutates a locked instrument in place.
type ApplyFunc func(inst *model.Instrument) error

// CompleteFunc receives the locked pre-update instrument, mutates it into its
// post-completion state and returns the ledger entry to archive.
type CompleteFunc func(inst *model.Instrument) (model.CalibrationCycle, error)
