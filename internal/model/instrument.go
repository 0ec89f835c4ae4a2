package model

import (
	"time"

	"gorm.io/datatypes"
)

// Instrument is a measuring device under compliance tracking (hot table).
type Instrument struct {
	ID                  int64            `gorm:"primaryKey;autoIncrement"` // registry id
	InstrumentNumber    string           `gorm:"uniqueIndex;size:64;not null"`
	Name                string           `gorm:"size:256;not null"`
	EquipmentSerialNo   string           `gorm:"size:128;not null"`
	Make                string           `gorm:"size:128"`
	ModelNumber         string           `gorm:"size:128"`
	Frequency           Frequency        `gorm:"size:16;not null"`
	CertificateNumber   *string          `gorm:"size:128"`
	LastCalibrationDate datatypes.Date   `gorm:"not null"`
	NextDueDate         datatypes.Date   `gorm:"not null;index"`
	CycleStatus         CycleStatus      `gorm:"size:16;not null"`
	InstrumentStatus    InstrumentStatus `gorm:"size:16;not null;index"`
	PerformedBy         string           `gorm:"size:128;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Active reports whether the instrument takes part in compliance tracking.
func (i *Instrument) Active() bool {
	return i.InstrumentStatus == InstrumentStatusInUse
}
