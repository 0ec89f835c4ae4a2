package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"calibration-backend/internal/model"
	"calibration-backend/internal/parse"
)

// CompleteCycle archives the instrument's current cycle into the ledger and
// rewrites the live record in one transaction. Either both writes commit or
// neither does.
func (s *gormStore) CompleteCycle(ctx context.Context, id int64, complete CompleteFunc) (*model.Instrument, *model.CalibrationCycle, error) {
	var (
		updated *model.Instrument
		entry   model.CalibrationCycle
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inst, err := lockInstrument(tx, id)
		if err != nil {
			return err
		}

		entry, err = complete(inst)
		if err != nil {
			return err
		}
		if err := archiveRecord(tx, &entry); err != nil {
			return err
		}

		if err := tx.Save(inst).Error; err != nil {
			return fmt.Errorf("failed to update instrument %d after completion: %w", id, err)
		}
		updated = inst
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, &entry, nil
}

// archiveRecord appends one closed cycle to the ledger.
func archiveRecord(tx *gorm.DB, entry *model.CalibrationCycle) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to archive cycle for instrument %q: %w", entry.InstrumentNumber, err)
	}
	return nil
}

// ListCycles returns ledger entries in insertion order.
func (s *gormStore) ListCycles(ctx context.Context, q CycleQuery) ([]model.CalibrationCycle, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if q.InstrumentNumber != "" {
		query = query.Where("instrument_number = ?", q.InstrumentNumber)
	}
	if !q.From.IsZero() {
		query = query.Where("entry_timestamp >= ?", parse.Day(q.From))
	}
	if !q.To.IsZero() {
		query = query.Where("entry_timestamp < ?", parse.Day(q.To).AddDate(0, 0, 1))
	}

	var cycles []model.CalibrationCycle
	if err := query.Find(&cycles).Error; err != nil {
		return nil, fmt.Errorf("failed to list calibration cycles: %w", err)
	}
	return cycles, nil
}

// CycleSummaries counts ledger entries per instrument number and loads the
// most recent entry of each.
func (s *gormStore) CycleSummaries(ctx context.Context) (map[string]CycleSummary, error) {
	type aggRow struct {
		InstrumentNumber string
		Cycles           int64
		LatestID         int64
	}
	var aggs []aggRow
	if err := s.db.WithContext(ctx).
		Model(&model.CalibrationCycle{}).
		Select("instrument_number AS instrument_number, COUNT(*) AS cycles, MAX(id) AS latest_id").
		Group("instrument_number").
		Scan(&aggs).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate calibration cycles: %w", err)
	}

	summaries := make(map[string]CycleSummary, len(aggs))
	if len(aggs) == 0 {
		return summaries, nil
	}

	ids := make([]int64, len(aggs))
	for i, a := range aggs {
		ids[i] = a.LatestID
		summaries[a.InstrumentNumber] = CycleSummary{Count: a.Cycles}
	}

	var latest []model.CalibrationCycle
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&latest).Error; err != nil {
		return nil, fmt.Errorf("failed to load latest calibration cycles: %w", err)
	}
	for _, c := range latest {
		sum := summaries[c.InstrumentNumber]
		sum.Latest = c
		summaries[c.InstrumentNumber] = sum
	}
	return summaries, nil
}
