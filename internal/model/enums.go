package model

import "fmt"

// Frequency is the recalibration cadence of an instrument.
type Frequency string

const (
	FrequencyMonthly    Frequency = "Monthly"
	FrequencyBiMonthly  Frequency = "BiMonthly"
	FrequencyQuarterly  Frequency = "Quarterly"
	FrequencyHalfYearly Frequency = "HalfYearly"
	FrequencyYearly     Frequency = "Yearly"
	FrequencyBiYearly   Frequency = "BiYearly"
)

// Frequencies lists every recognized frequency, shortest cadence first.
var Frequencies = []Frequency{
	FrequencyMonthly,
	FrequencyBiMonthly,
	FrequencyQuarterly,
	FrequencyHalfYearly,
	FrequencyYearly,
	FrequencyBiYearly,
}

// Valid reports whether f is one of the six recognized frequencies.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// ParseFrequency converts a wire value into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("unrecognized frequency %q", s)
	}
	return f, nil
}

// CycleStatus marks whether the current cycle is still open.
type CycleStatus string

const (
	CycleStatusPending   CycleStatus = "Pending"
	CycleStatusCompleted CycleStatus = "Completed"
)

// ParseCycleStatus converts a wire value into a CycleStatus.
func ParseCycleStatus(s string) (CycleStatus, error) {
	switch CycleStatus(s) {
	case CycleStatusPending, CycleStatusCompleted:
		return CycleStatus(s), nil
	}
	return "", fmt.Errorf("unrecognized cycle status %q", s)
}

// InstrumentStatus is the in-service state of an instrument.
type InstrumentStatus string

const (
	InstrumentStatusInUse    InstrumentStatus = "InUse"
	InstrumentStatusObsolete InstrumentStatus = "Obsolete"
)

// ParseInstrumentStatus converts a wire value into an InstrumentStatus.
func ParseInstrumentStatus(s string) (InstrumentStatus, error) {
	switch InstrumentStatus(s) {
	case InstrumentStatusInUse, InstrumentStatusObsolete:
		return InstrumentStatus(s), nil
	}
	return "", fmt.Errorf("unrecognized instrument status %q", s)
}
