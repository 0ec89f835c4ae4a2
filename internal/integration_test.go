package internal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"calibration-backend/config"
	"calibration-backend/internal/calibration"
	"calibration-backend/internal/db"
	"calibration-backend/internal/model"
	"calibration-backend/internal/store"
)

func openFileDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	gormDB, err := db.Init(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          path,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return gormDB
}

func closeDB(t *testing.T, gormDB *gorm.DB) {
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func registerCaliper(t *testing.T, svc *calibration.Service) *model.Instrument {
	cert := "CERT-1"
	inst, err := svc.Create(context.Background(), calibration.NewInstrument{
		InstrumentNumber:  "INST-001",
		EquipmentSerialNo: "SN-001",
		InstrumentName:    "Vernier Caliper",
		CalibrationDate:   "2024-01-15",
		Frequency:         "Monthly",
		PerformedBy:       "alice",
		CertificateNumber: &cert,
	})
	require.NoError(t, err)
	return inst
}

// TestLedgerSurvivesRestart runs the calibration lifecycle against a file
// database, reopening it between writes.
func TestLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "calibration.db")
	clock := func() time.Time { return time.Date(2024, 2, 16, 10, 0, 0, 0, time.UTC) }

	first := openFileDB(t, path)
	svc := calibration.NewService(store.NewGormStore(first), zaptest.NewLogger(t), calibration.WithClock(clock))
	inst := registerCaliper(t, svc)
	_, _, err := svc.CompleteCycle(ctx, inst.ID, calibration.CompletionInput{
		CalibrationDate: "2024-02-16",
		Frequency:       "Monthly",
		PerformedBy:     "bob",
	})
	require.NoError(t, err)
	closeDB(t, first)

	second := openFileDB(t, path)
	defer closeDB(t, second)
	svc = calibration.NewService(store.NewGormStore(second), zaptest.NewLogger(t), calibration.WithClock(clock))

	got, err := svc.Get(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), model.TimeOf(got.NextDueDate))
	assert.Nil(t, got.CertificateNumber)

	history, err := svc.HistoryInRange(ctx, time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].CertificateNumber)
	assert.Equal(t, "CERT-1", *history[0].CertificateNumber)

	counts, err := svc.CountByBand(ctx, time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, calibration.BandCounts{Compliant: 1}, counts)
}

// TestCompletionIsAtomic injects a failure into each half of the completion
// transaction and checks that neither half is left behind.
func TestCompletionIsAtomic(t *testing.T) {
	testCases := []struct {
		name   string
		inject func(gormDB *gorm.DB) error
	}{
		{
			name: "ledger insert fails",
			inject: func(gormDB *gorm.DB) error {
				return gormDB.Callback().Create().Before("gorm:create").Register("test:fail_ledger", func(tx *gorm.DB) {
					if tx.Statement.Table == "calibration_cycles" {
						tx.AddError(errors.New("ledger unavailable"))
					}
				})
			},
		},
		{
			name: "registry update fails",
			inject: func(gormDB *gorm.DB) error {
				return gormDB.Callback().Update().Before("gorm:update").Register("test:fail_registry", func(tx *gorm.DB) {
					if tx.Statement.Table == "instruments" {
						tx.AddError(errors.New("registry unavailable"))
					}
				})
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			gormDB := openFileDB(t, filepath.Join(t.TempDir(), "calibration.db"))
			defer closeDB(t, gormDB)

			svc := calibration.NewService(store.NewGormStore(gormDB), zaptest.NewLogger(t))
			inst := registerCaliper(t, svc)
			require.NoError(t, tc.inject(gormDB))

			_, _, err := svc.CompleteCycle(ctx, inst.ID, calibration.CompletionInput{
				CalibrationDate: "2024-02-16",
				Frequency:       "Monthly",
				PerformedBy:     "bob",
			})
			require.Error(t, err)
			assert.Equal(t, calibration.KindInternal, calibration.KindOf(err))

			got, err := svc.Get(ctx, inst.ID)
			require.NoError(t, err)
			assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), model.TimeOf(got.NextDueDate))
			assert.Equal(t, "alice", got.PerformedBy)

			history, err := svc.InstrumentHistory(ctx, inst.ID)
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}
