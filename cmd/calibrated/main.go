package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"calibration-backend/config"
	"calibration-backend/internal/client"
)

var (
	configPath = ""
	serverURL  = "http://localhost:8080"
	logLevel   = ""
)

var (
	gServer   = "Server:"
	gClient   = "Client:"
	cmdGroups = []string{
		gServer,
		gClient,
	}
)

// loadConfig resolves the config path from the flag, CONFIG_PATH, then the
// local default.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, path, nil
}

func handleCmdError(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == "Conflict" {
		fmt.Fprintln(os.Stderr, "\nThe instrument is being modified by another request; try again.")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrated",
		Short: "calibrated tracks instrument calibration compliance",
		Long: `calibrated keeps a registry of measuring instruments, schedules their
recalibration, archives every completed cycle and reports compliance bands.

Run "calibrated serve" to start the HTTP server; the client commands talk to it.`,
		SilenceUsage: true,
	}

	for _, g := range cmdGroups {
		cmd.AddGroup(&cobra.Group{ID: g, Title: g})
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "path to the YAML config (default $CONFIG_PATH or ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&serverURL, "server", serverURL, "base URL of a running calibrated server")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "override log.level (debug, info, warn, error)")

	cmd.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
		NewCountsCommand(),
		NewWorklistCommand(),
		NewRegisterCommand(),
		NewCompleteCommand(),
		NewHistoryCommand(),
	)

	return cmd
}
