package main

import (
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/zgpcy/time-display/internal/display"
	"github.com/zgpcy/time-display/internal/timeclient"
)

// errRefreshFailed makes the process exit non-zero; the cause is already logged
var errRefreshFailed = errors.New("refresh failed")

// outcome remembers whether any observed refresh failed
type outcome struct {
	failed atomic.Bool
}

func (o *outcome) ObserveRefresh(_ time.Duration, err error) {
	if err != nil {
		o.failed.Store(true)
	}
}

func newFetchCmd(opts *globalOptions) *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the time once and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Client.Endpoint = endpoint
			}

			url, err := timeclient.ResolveEndpoint(cfg.Client.Endpoint)
			if err != nil {
				return err
			}

			result := &outcome{}
			client := timeclient.NewClient(url, display.NewWriter(os.Stdout), timeclient.NewLogDiagnostics(log), log).
				WithObserver(result)

			client.RefreshTime()
			client.Wait()

			if result.failed.Load() {
				return errRefreshFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&endpoint, "endpoint", "e", "", "Server base URL (overrides client.endpoint)")
	return cmd
}
