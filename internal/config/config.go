package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve on hosts without zoneinfo

	"gopkg.in/yaml.v3"
)

// Configuration validation constants
const (
	MinPort            = 1     // Minimum valid port number
	MaxPort            = 65535 // Maximum valid port number
	MinRefreshInterval = 1     // Minimum client refresh interval in seconds
	MaxRefreshInterval = 86400
	MinStreamInterval  = 1 // Minimum websocket push interval in seconds
	MaxStreamInterval  = 3600

	// Default values
	DefaultHTTPPort        = 8080
	DefaultTimeFormat      = "RFC3339"
	DefaultStreamInterval  = 1
	DefaultEndpoint        = "http://localhost:8080"
	DefaultRefreshInterval = 1
	DefaultDisplay         = DisplayStdout
	DefaultLogLevel        = "info"
)

// Display targets selectable for the client commands
const (
	DisplayStdout = "stdout"
	DisplayTUI    = "tui"
)

// namedLayouts maps the layout names accepted in time_format to Go layouts
var namedLayouts = map[string]string{
	"RFC3339":     time.RFC3339,
	"RFC3339Nano": time.RFC3339Nano,
	"RFC1123":     time.RFC1123,
	"RFC1123Z":    time.RFC1123Z,
	"RFC822":      time.RFC822,
	"Kitchen":     time.Kitchen,
	"DateTime":    time.DateTime,
	"TimeOnly":    time.TimeOnly,
	"Stamp":       time.Stamp,
	"UnixDate":    time.UnixDate,
}

// ServerConfig configures the time server
type ServerConfig struct {
	HTTPPort       int    `yaml:"http_port"`
	TimeFormat     string `yaml:"time_format"`     // named layout (RFC3339, Kitchen, ...) or Go layout
	Timezone       string `yaml:"timezone"`        // IANA name, empty means local time
	StreamInterval int    `yaml:"stream_interval"` // seconds between websocket pushes
}

// ClientConfig configures the display client
type ClientConfig struct {
	Endpoint        string `yaml:"endpoint"`         // base URL or full /api/time URL
	RefreshInterval int    `yaml:"refresh_interval"` // seconds between refreshes in watch mode
	Display         string `yaml:"display"`          // stdout or tui
	MetricsPort     int    `yaml:"metrics_port"`     // 0 disables the watch metrics endpoint
}

// Config represents the application configuration
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Client   ClientConfig `yaml:"client"`
	LogLevel string       `yaml:"log_level"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from a YAML file and applies environment variable overrides.
// An empty path skips the file and starts from defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 -- Config file path is provided by administrator via CLI flag, not user input
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment variable error: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Layout returns the Go time layout for the configured time_format
func (s ServerConfig) Layout() string {
	if layout, ok := namedLayouts[s.TimeFormat]; ok {
		return layout
	}
	return s.TimeFormat
}

// Location resolves the configured timezone. Empty means time.Local.
func (s ServerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// StreamEvery returns the stream interval as a duration
func (s ServerConfig) StreamEvery() time.Duration {
	return time.Duration(s.StreamInterval) * time.Second
}

// RefreshEvery returns the refresh interval as a duration
func (c ClientConfig) RefreshEvery() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// applyDefaults sets default values for configuration
func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = DefaultHTTPPort
	}
	if cfg.Server.TimeFormat == "" {
		cfg.Server.TimeFormat = DefaultTimeFormat
	}
	if cfg.Server.StreamInterval == 0 {
		cfg.Server.StreamInterval = DefaultStreamInterval
	}
	if cfg.Client.Endpoint == "" {
		cfg.Client.Endpoint = DefaultEndpoint
	}
	if cfg.Client.RefreshInterval == 0 {
		cfg.Client.RefreshInterval = DefaultRefreshInterval
	}
	if cfg.Client.Display == "" {
		cfg.Client.Display = DefaultDisplay
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

// envInt parses an integer override, leaving dst untouched when the variable is unset
func envInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s: must be an integer, got %q", name, val)
	}
	*dst = i
	return nil
}

// envString applies a string override when the variable is set
func envString(name string, dst *string) {
	if val := os.Getenv(name); val != "" {
		*dst = val
	}
}

// applyEnvOverrides applies environment variable overrides to configuration
func applyEnvOverrides(cfg *Config) error {
	envString("TIMEDISPLAY_LOG_LEVEL", &cfg.LogLevel)

	if err := envInt("TIMEDISPLAY_HTTP_PORT", &cfg.Server.HTTPPort); err != nil {
		return err
	}
	envString("TIMEDISPLAY_TIME_FORMAT", &cfg.Server.TimeFormat)
	envString("TIMEDISPLAY_TIMEZONE", &cfg.Server.Timezone)
	if err := envInt("TIMEDISPLAY_STREAM_INTERVAL", &cfg.Server.StreamInterval); err != nil {
		return err
	}

	envString("TIMEDISPLAY_ENDPOINT", &cfg.Client.Endpoint)
	if err := envInt("TIMEDISPLAY_REFRESH_INTERVAL", &cfg.Client.RefreshInterval); err != nil {
		return err
	}
	envString("TIMEDISPLAY_DISPLAY", &cfg.Client.Display)
	if err := envInt("TIMEDISPLAY_METRICS_PORT", &cfg.Client.MetricsPort); err != nil {
		return err
	}

	return nil
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort < MinPort || cfg.Server.HTTPPort > MaxPort {
		return fmt.Errorf("server.http_port must be between %d and %d", MinPort, MaxPort)
	}

	if strings.TrimSpace(cfg.Server.TimeFormat) == "" {
		return fmt.Errorf("server.time_format cannot be blank")
	}

	if _, err := cfg.Server.Location(); err != nil {
		return fmt.Errorf("server.timezone: %w", err)
	}

	if cfg.Server.StreamInterval < MinStreamInterval || cfg.Server.StreamInterval > MaxStreamInterval {
		return fmt.Errorf("server.stream_interval must be between %d and %d seconds, got %d",
			MinStreamInterval, MaxStreamInterval, cfg.Server.StreamInterval)
	}

	u, err := url.Parse(cfg.Client.Endpoint)
	if err != nil {
		return fmt.Errorf("client.endpoint is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("client.endpoint must use http or https, got %q", cfg.Client.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("client.endpoint has no host: %q", cfg.Client.Endpoint)
	}

	if cfg.Client.RefreshInterval < MinRefreshInterval || cfg.Client.RefreshInterval > MaxRefreshInterval {
		return fmt.Errorf("client.refresh_interval must be between %d and %d seconds, got %d",
			MinRefreshInterval, MaxRefreshInterval, cfg.Client.RefreshInterval)
	}

	switch cfg.Client.Display {
	case DisplayStdout, DisplayTUI:
	default:
		return fmt.Errorf("client.display must be %q or %q, got %q", DisplayStdout, DisplayTUI, cfg.Client.Display)
	}

	// 0 disables the metrics listener
	if cfg.Client.MetricsPort != 0 && (cfg.Client.MetricsPort < MinPort || cfg.Client.MetricsPort > MaxPort) {
		return fmt.Errorf("client.metrics_port must be 0 or between %d and %d", MinPort, MaxPort)
	}

	return nil
}
