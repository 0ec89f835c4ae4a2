package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"calibration-backend/internal/model"
)

// Store defines the interface for all registry and ledger persistence.
type Store interface {
	CreateInstrument(ctx context.Context, inst *model.Instrument) error
	GetInstrument(ctx context.Context, id int64) (*model.Instrument, error)
	GetInstrumentByNumber(ctx context.Context, number string) (*model.Instrument, error)
	ListInstruments(ctx context.Context, filter InstrumentFilter) ([]model.Instrument, error)
	UpdateInstrument(ctx context.Context, id int64, apply ApplyFunc) (*model.Instrument, error)
	DeleteInstrument(ctx context.Context, number string) (int64, error)

	CompleteCycle(ctx context.Context, id int64, complete CompleteFunc) (*model.Instrument, *model.CalibrationCycle, error)
	ListCycles(ctx context.Context, q CycleQuery) ([]model.CalibrationCycle, error)
	CycleSummaries(ctx context.Context) (map[string]CycleSummary, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// CreateInstrument inserts a new live instrument and assigns its registry id.
func (s *gormStore) CreateInstrument(ctx context.Context, inst *model.Instrument) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Instrument{}).
			Where("instrument_number = ?", inst.InstrumentNumber).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check instrument number %q: %w", inst.InstrumentNumber, err)
		}
		if count > 0 {
			return ErrDuplicate
		}

		if err := tx.Create(inst).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to create instrument %q: %w", inst.InstrumentNumber, err)
		}
		return nil
	})
}

// GetInstrument loads one instrument by registry id.
func (s *gormStore) GetInstrument(ctx context.Context, id int64) (*model.Instrument, error) {
	var inst model.Instrument
	if err := s.db.WithContext(ctx).First(&inst, id).Error; err != nil {
		return nil, notFound(err, "failed to load instrument %d", id)
	}
	return &inst, nil
}

// GetInstrumentByNumber loads one instrument by its external number.
func (s *gormStore) GetInstrumentByNumber(ctx context.Context, number string) (*model.Instrument, error) {
	var inst model.Instrument
	if err := s.db.WithContext(ctx).Where("instrument_number = ?", number).First(&inst).Error; err != nil {
		return nil, notFound(err, "failed to load instrument %q", number)
	}
	return &inst, nil
}

// ListInstruments returns instruments in creation order.
func (s *gormStore) ListInstruments(ctx context.Context, filter InstrumentFilter) ([]model.Instrument, error) {
	q := s.db.WithContext(ctx).Order("id ASC")
	if filter.Status != nil {
		q = q.Where("instrument_status = ?", *filter.Status)
	}

	var instruments []model.Instrument
	if err := q.Find(&instruments).Error; err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	return instruments, nil
}

// UpdateInstrument applies a read-modify-write to one instrument under a row lock.
func (s *gormStore) UpdateInstrument(ctx context.Context, id int64, apply ApplyFunc) (*model.Instrument, error) {
	var updated *model.Instrument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := lockInstrument(tx, id)
		if err != nil {
			return err
		}
		if err := apply(inst); err != nil {
			return err
		}
		if err := tx.Save(inst).Error; err != nil {
			return fmt.Errorf("failed to update instrument %d: %w", id, err)
		}
		updated = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteInstrument purges a live instrument and cascades to its ledger entries.
// It returns the number of ledger entries removed.
func (s *gormStore) DeleteInstrument(ctx context.Context, number string) (int64, error) {
	var purged int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("instrument_number = ?", number).Delete(&model.Instrument{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete instrument %q: %w", number, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		res = tx.Where("instrument_number = ?", number).Delete(&model.CalibrationCycle{})
		if res.Error != nil {
			return fmt.Errorf("failed to purge history for instrument %q: %w", number, res.Error)
		}
		purged = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// lockInstrument loads an instrument inside tx, taking a row lock where the
// dialect supports one.
func lockInstrument(tx *gorm.DB, id int64) (*model.Instrument, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var inst model.Instrument
	if err := q.First(&inst, id).Error; err != nil {
		return nil, notFound(err, "failed to lock instrument %d", id)
	}
	return &inst, nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
