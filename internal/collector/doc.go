// Package collector implements a Prometheus collector for the time client.
//
// RefreshCollector drives a time client on a fixed interval (watch mode) and
// observes the outcome of every refresh. It implements the
// prometheus.Collector interface.
//
// The collector exposes the following metrics, labelled by endpoint:
//   - time_display_up: 1 when the last refresh succeeded
//   - time_display_refresh_duration_seconds: duration of the last refresh
//   - time_display_last_success_timestamp_seconds: Unix time of the last success
//   - time_display_refreshes_total: completed refreshes
//   - time_display_refresh_errors_total: failed refreshes
//   - time_display_build_info: build version labels
//
// Example usage:
//
//	coll := collector.NewRefreshCollector(client, cfg.Client.RefreshEvery(), log)
//	client.WithObserver(coll)
//	prometheus.MustRegister(coll)
//
//	coll.StartBackgroundRefresh(ctx)
package collector
