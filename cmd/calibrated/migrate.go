package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"calibration-backend/internal/db"
	"calibration-backend/internal/logging"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		GroupID: gServer,
		Short:   "Create or update the database schema and exit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "calibrated")
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			defer logger.Sync()

			gormDB, err := db.Init(&cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			sqlDB, err := gormDB.DB()
			if err == nil {
				sqlDB.Close()
			}

			cmd.Println("schema is up to date")
			return nil
		},
	}
}
