package calibration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"calibration-backend/internal/compliance"
	"calibration-backend/internal/model"
	"calibration-backend/internal/store"
)

// BandCounts tallies active instruments per urgency band.
type BandCounts struct {
	Overdue   int `json:"overdue"`
	ActSoon   int `json:"act_soon"`
	Compliant int `json:"compliant"`
}

// InstrumentSummary is one row of the master equipment register.
type InstrumentSummary struct {
	Instrument          model.Instrument
	LastCalibrationDate time.Time
	NextDueDate         time.Time
	CyclesLogged        int64
}

// CountByBand classifies every InUse instrument at now. Terminal instruments
// are not counted.
func (s *Service) CountByBand(ctx context.Context, now time.Time) (BandCounts, error) {
	insts, err := s.ListActive(ctx)
	if err != nil {
		return BandCounts{}, err
	}

	var counts BandCounts
	for i := range insts {
		switch Classify(&insts[i], now).Band {
		case compliance.BandOverdue:
			counts.Overdue++
		case compliance.BandActSoon:
			counts.ActSoon++
		case compliance.BandCompliant:
			counts.Compliant++
		}
	}
	return counts, nil
}

// UniqueInstrumentList returns one row per instrument number, Obsolete
// included, in registry order. Dates come from the live record, which always
// holds the latest completion; the ledger only contributes the cycle count.
func (s *Service) UniqueInstrumentList(ctx context.Context) ([]InstrumentSummary, error) {
	const op = "unique_list"

	insts, err := s.store.ListInstruments(ctx, store.InstrumentFilter{})
	if err != nil {
		return nil, s.fail(op, err)
	}
	summaries, err := s.store.CycleSummaries(ctx)
	if err != nil {
		return nil, s.fail(op, err)
	}

	seen := make(map[string]bool, len(insts))
	out := make([]InstrumentSummary, 0, len(insts))
	for _, inst := range insts {
		if seen[inst.InstrumentNumber] {
			continue
		}
		seen[inst.InstrumentNumber] = true

		row := InstrumentSummary{
			Instrument:          inst,
			LastCalibrationDate: model.TimeOf(inst.LastCalibrationDate),
			NextDueDate:         model.TimeOf(inst.NextDueDate),
		}
		if sum, ok := summaries[inst.InstrumentNumber]; ok {
			row.CyclesLogged = sum.Count
		}
		out = append(out, row)
	}
	return out, nil
}

// HistoryInRange returns ledger entries logged on UTC days from..to inclusive,
// in insertion order.
func (s *Service) HistoryInRange(ctx context.Context, from, to time.Time) ([]model.CalibrationCycle, error) {
	const op = "history"

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, s.fail(op, validationError("from must not be after to", "from", "to"))
	}
	cycles, err := s.store.ListCycles(ctx, store.CycleQuery{From: from, To: to})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return cycles, nil
}

// InstrumentHistory returns the ledger of one live instrument.
func (s *Service) InstrumentHistory(ctx context.Context, id int64) ([]model.CalibrationCycle, error) {
	const op = "instrument_history"

	inst, err := s.store.GetInstrument(ctx, id)
	if err != nil {
		return nil, s.fail(op, translate(err), zap.Int64("registry_id", id))
	}
	cycles, err := s.store.ListCycles(ctx, store.CycleQuery{InstrumentNumber: inst.InstrumentNumber})
	if err != nil {
		return nil, s.fail(op, err, zap.Int64("registry_id", id))
	}
	return cycles, nil
}
