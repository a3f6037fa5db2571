// Package config provides configuration management for the time display
// server and client.
//
// This package handles loading configuration from an optional YAML file,
// applying environment variable overrides, setting defaults, and validating
// the result.
//
// Configuration sources (in order of precedence):
//   1. Environment variables (highest priority)
//   2. YAML configuration file
//   3. Default values (lowest priority)
//
// Supported environment variables:
//   - TIMEDISPLAY_LOG_LEVEL: Log level (debug, info, warn, error)
//   - TIMEDISPLAY_HTTP_PORT: Time server port (1-65535)
//   - TIMEDISPLAY_TIME_FORMAT: Named layout (RFC3339, Kitchen, ...) or Go layout
//   - TIMEDISPLAY_TIMEZONE: IANA timezone for served times, empty for local
//   - TIMEDISPLAY_STREAM_INTERVAL: Seconds between websocket pushes
//   - TIMEDISPLAY_ENDPOINT: Base URL (or full /api/time URL) the client fetches from
//   - TIMEDISPLAY_REFRESH_INTERVAL: Seconds between refreshes in watch mode
//   - TIMEDISPLAY_DISPLAY: Client display target (stdout, tui)
//   - TIMEDISPLAY_METRICS_PORT: Watch mode metrics port, 0 disables it
//
// Example configuration file (config.yaml):
//
//	log_level: "info"
//
//	server:
//	  http_port: 8080
//	  time_format: "RFC3339"
//	  timezone: "Europe/Amsterdam"
//	  stream_interval: 1
//
//	client:
//	  endpoint: "http://localhost:8080"
//	  refresh_interval: 5
//	  display: "tui"
//	  metrics_port: 9102
//
// Example usage:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//		log.Fatalf("Failed to load config: %v", err)
//	}
//
//	fmt.Printf("Serving on port %d\n", cfg.Server.HTTPPort)
package config
