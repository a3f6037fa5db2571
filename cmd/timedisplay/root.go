package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zgpcy/time-display/internal/config"
	"github.com/zgpcy/time-display/internal/logger"
	"github.com/zgpcy/time-display/internal/version"
)

// DefaultShutdownTimeout is the maximum time to wait for graceful shutdown
const DefaultShutdownTimeout = 30 * time.Second

// globalOptions are the flags shared by every command
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "timedisplay",
		Short: "Serve the current time and show it on a display",
		Long: `timedisplay runs a small time service and its display client.

  serve   serve /api/time, a websocket push and a landing page
  fetch   fetch the time once and print it
  watch   keep the time on screen, refreshing on an interval or from the stream`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (optional)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newFetchCmd(opts),
		newWatchCmd(opts),
	)

	return root
}

// load reads the configuration and builds the logger for a command
func (o *globalOptions) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	return cfg, logger.New(cfg.LogLevel), nil
}
