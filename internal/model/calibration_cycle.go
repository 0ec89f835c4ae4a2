package model

import (
	"time"

	"gorm.io/datatypes"
)

// CalibrationCycle is one closed calibration cycle in the ledger (cold table).
// Rows are written once and never updated; InstrumentNumber is not a live
// foreign key so the ledger survives edits to the registry.
type CalibrationCycle struct {
	ID                int64          `gorm:"primaryKey;autoIncrement"`
	EntryID           string         `gorm:"size:36;uniqueIndex;not null"`
	InstrumentNumber  string         `gorm:"size:64;not null;index"`
	Name              string         `gorm:"size:256;not null"`
	EquipmentSerialNo string         `gorm:"size:128;not null"`
	Make              string         `gorm:"size:128"`
	ModelNumber       string         `gorm:"size:128"`
	Frequency         Frequency      `gorm:"size:16;not null"`
	CertificateNumber *string        `gorm:"size:128"`
	CalibrationDate   datatypes.Date `gorm:"not null"`
	NextDueDate       datatypes.Date `gorm:"not null"`
	CompletedOn       datatypes.Date `gorm:"not null"`
	PerformedBy       string         `gorm:"size:128;not null"`
	EntryTimestamp    time.Time      `gorm:"not null;index"`
}
