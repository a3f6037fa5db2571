package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zgpcy/time-display/internal/config"
	"github.com/zgpcy/time-display/internal/server"
	"github.com/zgpcy/time-display/internal/version"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the current time over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				if port < config.MinPort || port > config.MaxPort {
					return fmt.Errorf("--port must be between %d and %d", config.MinPort, config.MaxPort)
				}
				cfg.Server.HTTPPort = port
			}

			log.Info("Time server starting",
				"version", version.Version,
				"config_path", opts.configPath,
				"http_port", cfg.Server.HTTPPort,
				"time_format", cfg.Server.TimeFormat,
				"timezone", cfg.Server.Timezone,
				"stream_interval_seconds", cfg.Server.StreamInterval)

			srv, err := server.NewServer(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			serverErrors := make(chan error, 1)
			go func() {
				serverErrors <- srv.Start()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				log.Error("Server error", "error", err)
				return err

			case sig := <-shutdown:
				log.Info("Received shutdown signal, starting graceful shutdown", "signal", sig.String())

				shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Error("Error during server shutdown", "error", err)
					return err
				}

				log.Info("Server stopped gracefully")
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultHTTPPort, "HTTP port (overrides server.http_port)")
	return cmd
}
