package calibration

import (
	"context"

	"go.uber.org/zap"

	"calibration-backend/internal/model"
	"calibration-backend/internal/parse"
)

// CompleteCycle records a finished calibration. The cycle being closed is
// archived into the ledger and the live record moves to the next cycle,
// both in one transaction. The new cycle is always Pending.
func (s *Service) CompleteCycle(ctx context.Context, id int64, in CompletionInput) (*model.Instrument, *model.CalibrationCycle, error) {
	const op = "complete"

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, nil, s.fail(op, err, zap.Int64("registry_id", id))
	}

	frequency := model.Frequency(in.Frequency)
	calibrated, due, err := schedule(in.CalibrationDate, frequency)
	if err != nil {
		return nil, nil, s.fail(op, err, zap.Int64("registry_id", id))
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, nil, s.fail(op, err, zap.Int64("registry_id", id))
	}
	defer unlock()

	stamp := s.now().UTC()
	inst, entry, err := s.store.CompleteCycle(ctx, id, func(inst *model.Instrument) (model.CalibrationCycle, error) {
		entry := snapshot(inst)
		entry.CompletedOn = model.DateOf(calibrated)
		entry.PerformedBy = in.PerformedBy
		entry.EntryTimestamp = stamp

		inst.LastCalibrationDate = model.DateOf(calibrated)
		inst.NextDueDate = model.DateOf(due)
		inst.Frequency = frequency
		inst.CertificateNumber = in.CertificateNumber
		inst.PerformedBy = in.PerformedBy
		inst.CycleStatus = model.CycleStatusPending
		return entry, nil
	})
	if err != nil {
		return nil, nil, s.fail(op, translate(err), zap.Int64("registry_id", id))
	}

	s.metrics.CycleCompleted(string(frequency))
	s.log.Info("calibration cycle completed",
		zap.Int64("registry_id", id),
		zap.String("instrument_number", inst.InstrumentNumber),
		zap.String("entry_id", entry.EntryID),
		zap.String("calibration_date", in.CalibrationDate),
		zap.String("next_due_date", parse.FormatDate(due)),
	)
	return inst, entry, nil
}

// CloseCycle marks the open cycle Completed without scheduling a new one.
// A closed instrument classifies as Terminal until its next completion.
func (s *Service) CloseCycle(ctx context.Context, id int64) (*model.Instrument, error) {
	const op = "close"

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, s.fail(op, err, zap.Int64("registry_id", id))
	}
	defer unlock()

	inst, err := s.store.UpdateInstrument(ctx, id, func(inst *model.Instrument) error {
		inst.CycleStatus = model.CycleStatusCompleted
		return nil
	})
	if err != nil {
		return nil, s.fail(op, translate(err), zap.Int64("registry_id", id))
	}

	s.log.Info("calibration cycle closed",
		zap.Int64("registry_id", id),
		zap.String("instrument_number", inst.InstrumentNumber),
	)
	return inst, nil
}

// snapshot copies the pre-update state of inst into a ledger entry.
func snapshot(inst *model.Instrument) model.CalibrationCycle {
	var cert *string
	if inst.CertificateNumber != nil {
		c := *inst.CertificateNumber
		cert = &c
	}
	return model.CalibrationCycle{
		InstrumentNumber:  inst.InstrumentNumber,
		Name:              inst.Name,
		EquipmentSerialNo: inst.EquipmentSerialNo,
		Make:              inst.Make,
		ModelNumber:       inst.ModelNumber,
		Frequency:         inst.Frequency,
		CertificateNumber: cert,
		CalibrationDate:   inst.LastCalibrationDate,
		NextDueDate:       inst.NextDueDate,
	}
}
