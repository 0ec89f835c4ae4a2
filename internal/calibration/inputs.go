package calibration

import (
	"strings"
)

// NewInstrument is the payload for registering an instrument.
type NewInstrument struct {
	InstrumentNumber  string  `json:"instrument_number" validate:"required"`
	EquipmentSerialNo string  `json:"equipment_sl_no" validate:"required"`
	InstrumentName    string  `json:"instrument_name" validate:"required"`
	Make              string  `json:"make"`
	ModelNumber       string  `json:"model_number"`
	CalibrationDate   string  `json:"calibration_date" validate:"required,isodate"`
	Frequency         string  `json:"frequency" validate:"required,frequency"`
	PerformedBy       string  `json:"performed_by" validate:"required"`
	CertificateNumber *string `json:"certificate_number"`
	InstrumentStatus  string  `json:"instrument_status" validate:"omitempty,oneof=InUse Obsolete"`
}

func (in *NewInstrument) normalize() {
	in.InstrumentNumber = strings.TrimSpace(in.InstrumentNumber)
	in.EquipmentSerialNo = strings.TrimSpace(in.EquipmentSerialNo)
	in.InstrumentName = strings.TrimSpace(in.InstrumentName)
	in.Make = strings.TrimSpace(in.Make)
	in.ModelNumber = strings.TrimSpace(in.ModelNumber)
	in.CalibrationDate = strings.TrimSpace(in.CalibrationDate)
	in.Frequency = strings.TrimSpace(in.Frequency)
	in.PerformedBy = strings.TrimSpace(in.PerformedBy)
	in.InstrumentStatus = strings.TrimSpace(in.InstrumentStatus)
	in.CertificateNumber = trimOptional(in.CertificateNumber)
}

// InstrumentPatch is a partial update. Nil fields are left unchanged.
type InstrumentPatch struct {
	InstrumentNumber  *string `json:"instrument_number"`
	EquipmentSerialNo *string `json:"equipment_sl_no"`
	InstrumentName    *string `json:"instrument_name"`
	Make              *string `json:"make"`
	ModelNumber       *string `json:"model_number"`
	CalibrationDate   *string `json:"calibration_date"`
	Frequency         *string `json:"frequency"`
	PerformedBy       *string `json:"performed_by"`
	CertificateNumber *string `json:"certificate_number"`
}

// CompletionInput closes the current cycle and opens the next one.
type CompletionInput struct {
	CalibrationDate   string  `json:"calibration_date" validate:"required,isodate"`
	Frequency         string  `json:"frequency" validate:"required,frequency"`
	PerformedBy       string  `json:"performed_by" validate:"required"`
	CertificateNumber *string `json:"certificate_number"`
}

func (in *CompletionInput) normalize() {
	in.CalibrationDate = strings.TrimSpace(in.CalibrationDate)
	in.Frequency = strings.TrimSpace(in.Frequency)
	in.PerformedBy = strings.TrimSpace(in.PerformedBy)
	in.CertificateNumber = trimOptional(in.CertificateNumber)
}

// trimOptional trims s and maps blank values to nil.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
