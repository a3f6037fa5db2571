package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/zgpcy/time-display/internal/collector"
	"github.com/zgpcy/time-display/internal/config"
	"github.com/zgpcy/time-display/internal/display"
	"github.com/zgpcy/time-display/internal/logger"
	"github.com/zgpcy/time-display/internal/timeclient"
)

// watchFlags are the command-line overrides of the client configuration
type watchFlags struct {
	endpoint    string
	interval    time.Duration
	displayMode string
	metricsPort int
	stream      bool
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the current time on screen",
		Long: `watch refreshes the time on an interval (or follows the server's
websocket push with --stream) and renders it to stdout or a terminal UI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			return runWatch(cfg, flags.stream, log)
		},
	}

	cmd.Flags().StringVarP(&flags.endpoint, "endpoint", "e", "", "Server base URL (overrides client.endpoint)")
	cmd.Flags().DurationVarP(&flags.interval, "interval", "i", 0, "Refresh interval, whole seconds (overrides client.refresh_interval)")
	cmd.Flags().StringVarP(&flags.displayMode, "display", "d", "", "Display target: stdout or tui (overrides client.display)")
	cmd.Flags().IntVar(&flags.metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (overrides client.metrics_port)")
	cmd.Flags().BoolVar(&flags.stream, "stream", false, "Follow /api/time/stream instead of polling")
	return cmd
}

// apply copies the flags the user set onto cfg
func (f *watchFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if f.endpoint != "" {
		cfg.Client.Endpoint = f.endpoint
	}
	if cmd.Flags().Changed("interval") {
		if f.interval < time.Second {
			return fmt.Errorf("--interval must be at least 1s, got %s", f.interval)
		}
		if f.interval%time.Second != 0 {
			return fmt.Errorf("--interval must be whole seconds, got %s", f.interval)
		}
		cfg.Client.RefreshInterval = int(f.interval / time.Second)
	}
	if f.displayMode != "" {
		if f.displayMode != config.DisplayStdout && f.displayMode != config.DisplayTUI {
			return fmt.Errorf("--display must be %q or %q", config.DisplayStdout, config.DisplayTUI)
		}
		cfg.Client.Display = f.displayMode
	}
	if cmd.Flags().Changed("metrics-port") {
		cfg.Client.MetricsPort = f.metricsPort
	}
	return nil
}

// watchSinks picks where logs and refresh failures go while watching. The
// terminal UI owns the screen, so its logs are dropped and failures land on
// the status line instead.
func watchSinks(cfg *config.Config, log *logger.Logger, status display.Target) (*logger.Logger, timeclient.Diagnostics) {
	if cfg.Client.Display == config.DisplayTUI && status != nil {
		return logger.NewWithWriter(cfg.LogLevel, io.Discard), timeclient.NewTargetDiagnostics(status)
	}
	return log, timeclient.NewLogDiagnostics(log)
}

func runWatch(cfg *config.Config, stream bool, log *logger.Logger) error {
	endpoint, err := timeclient.ResolveEndpoint(cfg.Client.Endpoint)
	if err != nil {
		return err
	}

	var (
		target display.Target
		status display.Target
		runUI  func() error
		stopUI func()
	)
	switch cfg.Client.Display {
	case config.DisplayTUI:
		app, view, line := display.NewTimeScreen(endpoint)
		target, status, runUI, stopUI = view, line, app.Run, app.Stop
	default:
		target = display.NewWriter(os.Stdout)
	}

	watchLog, diag := watchSinks(cfg, log, status)
	watchLog.Info("Time watch starting",
		"endpoint", endpoint,
		"display", cfg.Client.Display,
		"stream", stream,
		"refresh_interval_seconds", cfg.Client.RefreshInterval,
		"metrics_port", cfg.Client.MetricsPort)

	client := timeclient.NewClient(endpoint, target, diag, watchLog)
	coll := collector.NewRefreshCollector(client, cfg.Client.RefreshEvery(), watchLog)
	client.WithObserver(coll)

	if err := prometheus.Register(coll); err != nil {
		watchLog.Warn("Failed to register refresh collector", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var metricsSrv *http.Server
	if cfg.Client.MetricsPort != 0 {
		metricsSrv = startMetricsServer(cfg.Client.MetricsPort, watchLog)
	}

	if stream {
		go func() {
			// a failed stream has already been reported; stay up so metrics show it
			_ = client.Stream(ctx)
		}()
	} else {
		coll.StartBackgroundRefresh(ctx)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	if runUI != nil {
		go func() {
			<-shutdown
			stopUI()
		}()
		if err := runUI(); err != nil {
			log.Error("Terminal UI error", "error", err)
			return err
		}
	} else {
		sig := <-shutdown
		log.Info("Received shutdown signal", "signal", sig.String())
	}

	cancel()

	lastSuccess := "never"
	if t := coll.LastSuccess(); !t.IsZero() {
		lastSuccess = humanize.Time(t)
	}
	log.Info("Time watch stopped", "last_success", lastSuccess)

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during metrics server shutdown", "error", err)
		}
	}
	return nil
}

// startMetricsServer exposes the default Prometheus registry on port
func startMetricsServer(port int, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("Starting metrics server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server error", "error", err)
		}
	}()
	return srv
}
