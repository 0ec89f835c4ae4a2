package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"calibration-backend/config"
	"calibration-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.EnableLedgerGuard {
		if cfg.Driver != "postgres" {
			log.Warn("ledger guard requires postgres; skipping", zap.String("driver", cfg.Driver))
		} else {
			log.Info("ledger guard enabled, applying append-only trigger")
			if err := applyLedgerGuardDDL(db); err != nil {
				log.Warn("failed to apply ledger guard DDL; continuing without it", zap.Error(err))
			}
		}
	}

	log.Info("database initialization complete")
	return db, nil
}

// Open connects to the configured database without migrating.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}
	return db, nil
}

// Migrate creates or updates the registry and ledger tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Instrument{},
		&model.CalibrationCycle{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func applyLedgerGuardDDL(db *gorm.DB) error {
	ddls := []string{
		// Ledger rows may be inserted or purged with their instrument, never rewritten.
		`CREATE OR REPLACE FUNCTION calibration_cycles_reject_update() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'calibration_cycles is append-only';
END;
$$ LANGUAGE plpgsql;`,

		"DROP TRIGGER IF EXISTS calibration_cycles_append_only ON calibration_cycles;",

		"CREATE TRIGGER calibration_cycles_append_only BEFORE UPDATE ON calibration_cycles " +
			"FOR EACH ROW EXECUTE FUNCTION calibration_cycles_reject_update();",

		// Range queries over the ledger filter on the logging time.
		"CREATE INDEX IF NOT EXISTS idx_calibration_cycles_number_entry ON calibration_cycles (instrument_number, entry_timestamp DESC);",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
