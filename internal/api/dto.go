package api

import (
	"time"

	"calibration-backend/internal/calibration"
	"calibration-backend/internal/compliance"
	"calibration-backend/internal/model"
	"calibration-backend/internal/parse"
)

// instrumentResponse is the wire form of a live instrument. Dates are
// calendar days (YYYY-MM-DD).
type instrumentResponse struct {
	RegistryID          int64                  `json:"registry_id"`
	InstrumentNumber    string                 `json:"instrument_number"`
	InstrumentName      string                 `json:"instrument_name"`
	EquipmentSerialNo   string                 `json:"equipment_sl_no"`
	Make                string                 `json:"make"`
	ModelNumber         string                 `json:"model_number"`
	Frequency           model.Frequency        `json:"frequency"`
	CertificateNumber   *string                `json:"certificate_number"`
	LastCalibrationDate string                 `json:"last_calibration_date"`
	NextDueDate         string                 `json:"next_due_date"`
	CycleStatus         model.CycleStatus      `json:"cycle_status"`
	InstrumentStatus    model.InstrumentStatus `json:"instrument_status"`
	PerformedBy         string                 `json:"performed_by"`
	Band                compliance.Band        `json:"band,omitempty"`
	Label               string                 `json:"label,omitempty"`
	DaysRemaining       *float64               `json:"days_remaining,omitempty"`
	FractionRemaining   *float64               `json:"fraction_remaining,omitempty"`
}

func newInstrumentResponse(inst *model.Instrument) instrumentResponse {
	return instrumentResponse{
		RegistryID:          inst.ID,
		InstrumentNumber:    inst.InstrumentNumber,
		InstrumentName:      inst.Name,
		EquipmentSerialNo:   inst.EquipmentSerialNo,
		Make:                inst.Make,
		ModelNumber:         inst.ModelNumber,
		Frequency:           inst.Frequency,
		CertificateNumber:   inst.CertificateNumber,
		LastCalibrationDate: parse.FormatDate(model.TimeOf(inst.LastCalibrationDate)),
		NextDueDate:         parse.FormatDate(model.TimeOf(inst.NextDueDate)),
		CycleStatus:         inst.CycleStatus,
		InstrumentStatus:    inst.InstrumentStatus,
		PerformedBy:         inst.PerformedBy,
	}
}

// withBand attaches the classification of inst at now.
func (r instrumentResponse) withBand(inst *model.Instrument, now time.Time) instrumentResponse {
	c := calibration.Classify(inst, now)
	r.Band, r.Label = c.Band, c.Label
	if c.Band != compliance.BandTerminal {
		r.DaysRemaining = &c.DaysRemaining
		r.FractionRemaining = &c.FractionRemaining
	}
	return r
}

// cycleResponse is the wire form of a ledger entry.
type cycleResponse struct {
	EntryID           string          `json:"entry_id"`
	InstrumentNumber  string          `json:"instrument_number"`
	InstrumentName    string          `json:"instrument_name"`
	EquipmentSerialNo string          `json:"equipment_sl_no"`
	Make              string          `json:"make"`
	ModelNumber       string          `json:"model_number"`
	Frequency         model.Frequency `json:"frequency"`
	CertificateNumber *string         `json:"certificate_number"`
	CalibrationDate   string          `json:"calibration_date"`
	NextDueDate       string          `json:"next_due_date"`
	CompletedOn       string          `json:"completed_on"`
	PerformedBy       string          `json:"performed_by"`
	EntryTimestamp    time.Time       `json:"entry_timestamp"`
}

func newCycleResponse(c *model.CalibrationCycle) cycleResponse {
	return cycleResponse{
		EntryID:           c.EntryID,
		InstrumentNumber:  c.InstrumentNumber,
		InstrumentName:    c.Name,
		EquipmentSerialNo: c.EquipmentSerialNo,
		Make:              c.Make,
		ModelNumber:       c.ModelNumber,
		Frequency:         c.Frequency,
		CertificateNumber: c.CertificateNumber,
		CalibrationDate:   parse.FormatDate(model.TimeOf(c.CalibrationDate)),
		NextDueDate:       parse.FormatDate(model.TimeOf(c.NextDueDate)),
		CompletedOn:       parse.FormatDate(model.TimeOf(c.CompletedOn)),
		PerformedBy:       c.PerformedBy,
		EntryTimestamp:    c.EntryTimestamp.UTC(),
	}
}

func newCycleResponses(cycles []model.CalibrationCycle) []cycleResponse {
	out := make([]cycleResponse, len(cycles))
	for i := range cycles {
		out[i] = newCycleResponse(&cycles[i])
	}
	return out
}

// summaryResponse is one row of the master equipment register.
type summaryResponse struct {
	RegistryID          int64                  `json:"registry_id"`
	InstrumentNumber    string                 `json:"instrument_number"`
	InstrumentName      string                 `json:"instrument_name"`
	EquipmentSerialNo   string                 `json:"equipment_sl_no"`
	Make                string                 `json:"make"`
	ModelNumber         string                 `json:"model_number"`
	Frequency           model.Frequency        `json:"frequency"`
	InstrumentStatus    model.InstrumentStatus `json:"instrument_status"`
	LastCalibrationDate string                 `json:"last_calibration_date"`
	NextDueDate         string                 `json:"next_due_date"`
	CyclesLogged        int64                  `json:"cycles_logged"`
}

func newSummaryResponse(s *calibration.InstrumentSummary) summaryResponse {
	return summaryResponse{
		RegistryID:          s.Instrument.ID,
		InstrumentNumber:    s.Instrument.InstrumentNumber,
		InstrumentName:      s.Instrument.Name,
		EquipmentSerialNo:   s.Instrument.EquipmentSerialNo,
		Make:                s.Instrument.Make,
		ModelNumber:         s.Instrument.ModelNumber,
		Frequency:           s.Instrument.Frequency,
		InstrumentStatus:    s.Instrument.InstrumentStatus,
		LastCalibrationDate: parse.FormatDate(s.LastCalibrationDate),
		NextDueDate:         parse.FormatDate(s.NextDueDate),
		CyclesLogged:        s.CyclesLogged,
	}
}
