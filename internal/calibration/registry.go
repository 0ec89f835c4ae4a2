package calibration

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"calibration-backend/internal/compliance"
	"calibration-backend/internal/model"
	"calibration-backend/internal/parse"
	"calibration-backend/internal/store"
)

// Create registers a new instrument with a Pending cycle and its first due date.
func (s *Service) Create(ctx context.Context, in NewInstrument) (*model.Instrument, error) {
	const op = "create"

	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, s.fail(op, err)
	}

	number, err := parse.InstrumentNumber(in.InstrumentNumber)
	if err != nil {
		return nil, s.fail(op, validationError(err.Error(), "instrument_number"))
	}
	frequency := model.Frequency(in.Frequency)
	calibrated, due, err := schedule(in.CalibrationDate, frequency)
	if err != nil {
		return nil, s.fail(op, err)
	}

	status := model.InstrumentStatusInUse
	if in.InstrumentStatus != "" {
		status = model.InstrumentStatus(in.InstrumentStatus)
	}

	inst := &model.Instrument{
		InstrumentNumber:    number,
		Name:                in.InstrumentName,
		EquipmentSerialNo:   in.EquipmentSerialNo,
		Make:                in.Make,
		ModelNumber:         in.ModelNumber,
		Frequency:           frequency,
		CertificateNumber:   in.CertificateNumber,
		LastCalibrationDate: model.DateOf(calibrated),
		NextDueDate:         model.DateOf(due),
		CycleStatus:         model.CycleStatusPending,
		InstrumentStatus:    status,
		PerformedBy:         in.PerformedBy,
	}
	if err := s.store.CreateInstrument(ctx, inst); err != nil {
		return nil, s.fail(op, translate(err), zap.String("instrument_number", number))
	}

	s.metrics.InstrumentCreated()
	s.log.Info("instrument registered",
		zap.Int64("registry_id", inst.ID),
		zap.String("instrument_number", inst.InstrumentNumber),
		zap.String("frequency", string(inst.Frequency)),
		zap.String("next_due_date", parse.FormatDate(model.TimeOf(inst.NextDueDate))),
	)
	return inst, nil
}

// Get loads one instrument by registry id.
func (s *Service) Get(ctx context.Context, id int64) (*model.Instrument, error) {
	inst, err := s.store.GetInstrument(ctx, id)
	if err != nil {
		return nil, s.fail("get", translate(err), zap.Int64("registry_id", id))
	}
	return inst, nil
}

// List returns instruments in registry order, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *model.InstrumentStatus) ([]model.Instrument, error) {
	insts, err := s.store.ListInstruments(ctx, store.InstrumentFilter{Status: status})
	if err != nil {
		return nil, s.fail("list", err)
	}
	return insts, nil
}

// ListActive returns the InUse instruments.
func (s *Service) ListActive(ctx context.Context) ([]model.Instrument, error) {
	status := model.InstrumentStatusInUse
	return s.List(ctx, &status)
}

// Update applies a partial edit. The instrument number is immutable; a
// changed calibration date or frequency recomputes the due date.
func (s *Service) Update(ctx context.Context, id int64, patch InstrumentPatch) (*model.Instrument, error) {
	const op = "update"

	edit, err := compilePatch(patch)
	if err != nil {
		return nil, s.fail(op, err, zap.Int64("registry_id", id))
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, s.fail(op, err, zap.Int64("registry_id", id))
	}
	defer unlock()

	inst, err := s.store.UpdateInstrument(ctx, id, edit.apply)
	if err != nil {
		return nil, s.fail(op, translate(err), zap.Int64("registry_id", id))
	}

	s.log.Info("instrument updated",
		zap.Int64("registry_id", id),
		zap.String("instrument_number", inst.InstrumentNumber),
	)
	return inst, nil
}

// SetStatus toggles an instrument between InUse and Obsolete.
func (s *Service) SetStatus(ctx context.Context, id int64, raw string) (*model.Instrument, error) {
	const op = "set_status"

	status, err := model.ParseInstrumentStatus(strings.TrimSpace(raw))
	if err != nil {
		return nil, s.fail(op, validationError(err.Error(), "instrument_status"), zap.Int64("registry_id", id))
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, s.fail(op, err, zap.Int64("registry_id", id))
	}
	defer unlock()

	inst, err := s.store.UpdateInstrument(ctx, id, func(inst *model.Instrument) error {
		inst.InstrumentStatus = status
		return nil
	})
	if err != nil {
		return nil, s.fail(op, translate(err), zap.Int64("registry_id", id))
	}

	s.metrics.StatusChanged(string(status))
	s.log.Info("instrument status changed",
		zap.Int64("registry_id", id),
		zap.String("instrument_number", inst.InstrumentNumber),
		zap.String("status", string(status)),
	)
	return inst, nil
}

// Delete purges the instrument and every ledger entry carrying its number.
// It returns the number of ledger entries removed.
func (s *Service) Delete(ctx context.Context, rawNumber string) (int64, error) {
	const op = "delete"

	number, err := parse.InstrumentNumber(rawNumber)
	if err != nil {
		return 0, s.fail(op, validationError(err.Error(), "instrument_number"))
	}

	inst, err := s.store.GetInstrumentByNumber(ctx, number)
	if err != nil {
		return 0, s.fail(op, translate(err), zap.String("instrument_number", number))
	}

	unlock, err := s.lock(ctx, inst.ID)
	if err != nil {
		return 0, s.fail(op, err, zap.String("instrument_number", number))
	}
	defer unlock()

	purged, err := s.store.DeleteInstrument(ctx, number)
	if err != nil {
		return 0, s.fail(op, translate(err), zap.String("instrument_number", number))
	}

	s.metrics.InstrumentDeleted()
	s.log.Info("instrument deleted",
		zap.String("instrument_number", number),
		zap.Int64("history_purged", purged),
	)
	return purged, nil
}

// instrumentEdit is a validated InstrumentPatch ready to apply under lock.
type instrumentEdit struct {
	number     *string
	name       *string
	serial     *string
	make       *string
	modelNo    *string
	calibrated *string
	frequency  *model.Frequency
	performer  *string
	cert       *string
	certSet    bool
}

// compilePatch validates every supplied field up front.
func compilePatch(p InstrumentPatch) (*instrumentEdit, error) {
	e := &instrumentEdit{}
	var missing, malformed []string

	required := func(field string, v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		if t == "" {
			missing = append(missing, field)
			return nil
		}
		return &t
	}
	optional := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}

	if p.InstrumentNumber != nil {
		number, err := parse.InstrumentNumber(*p.InstrumentNumber)
		if err != nil {
			missing = append(missing, "instrument_number")
		} else {
			e.number = &number
		}
	}
	e.name = required("instrument_name", p.InstrumentName)
	e.serial = required("equipment_sl_no", p.EquipmentSerialNo)
	e.performer = required("performed_by", p.PerformedBy)
	e.make = optional(p.Make)
	e.modelNo = optional(p.ModelNumber)

	if p.CalibrationDate != nil {
		raw := strings.TrimSpace(*p.CalibrationDate)
		if _, err := parse.Date(raw); err != nil {
			malformed = append(malformed, "calibration_date")
		} else {
			e.calibrated = &raw
		}
	}
	if p.Frequency != nil {
		f := model.Frequency(strings.TrimSpace(*p.Frequency))
		if !f.Valid() {
			malformed = append(malformed, "frequency")
		} else {
			e.frequency = &f
		}
	}
	if p.CertificateNumber != nil {
		e.certSet = true
		e.cert = trimOptional(p.CertificateNumber)
	}

	if len(missing) == 0 && len(malformed) == 0 {
		return e, nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(missing, ", "))
	}
	if len(malformed) > 0 {
		parts = append(parts, "malformed fields: "+strings.Join(malformed, ", "))
	}
	return nil, validationError(strings.Join(parts, "; "), append(missing, malformed...)...)
}

// apply mutates the locked instrument. It runs inside the store transaction.
func (e *instrumentEdit) apply(inst *model.Instrument) error {
	if e.number != nil && *e.number != inst.InstrumentNumber {
		return &Error{
			Kind:    KindImmutableField,
			Message: "instrument_number cannot be changed",
			Fields:  []string{"instrument_number"},
		}
	}

	if e.name != nil {
		inst.Name = *e.name
	}
	if e.serial != nil {
		inst.EquipmentSerialNo = *e.serial
	}
	if e.make != nil {
		inst.Make = *e.make
	}
	if e.modelNo != nil {
		inst.ModelNumber = *e.modelNo
	}
	if e.performer != nil {
		inst.PerformedBy = *e.performer
	}
	if e.certSet {
		inst.CertificateNumber = e.cert
	}

	if e.calibrated == nil && e.frequency == nil {
		return nil
	}
	if e.calibrated != nil {
		d, _ := parse.Date(*e.calibrated)
		inst.LastCalibrationDate = model.DateOf(d)
	}
	if e.frequency != nil {
		inst.Frequency = *e.frequency
	}
	due, err := compliance.NextDueDate(model.TimeOf(inst.LastCalibrationDate), inst.Frequency)
	if err != nil {
		return translateInterval(err)
	}
	inst.NextDueDate = model.DateOf(due)
	return nil
}
