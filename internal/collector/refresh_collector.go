package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zgpcy/time-display/internal/clock"
	"github.com/zgpcy/time-display/internal/logger"
	"github.com/zgpcy/time-display/internal/version"
)

// Refresher is the part of the time client the collector drives
type Refresher interface {
	RefreshTime()
	Endpoint() string
}

// RefreshCollector implements prometheus.Collector for time client refresh outcomes
type RefreshCollector struct {
	refresher Refresher
	interval  time.Duration
	logger    *logger.Logger
	clock     clock.Clock // Time provider for testing

	// Metrics
	upMetric              *prometheus.Desc
	refreshDurationMetric *prometheus.Desc
	lastSuccessMetric     *prometheus.Desc
	refreshesTotal        *prometheus.CounterVec
	refreshErrorsTotal    *prometheus.CounterVec
	buildInfo             *prometheus.GaugeVec

	// State
	mu                  sync.RWMutex
	lastError           error
	lastRefresh         time.Time
	lastSuccess         time.Time
	lastRefreshDuration time.Duration
	refreshStarted      atomic.Bool // Prevent multiple refresh goroutines
	isReady             bool
}

// NewRefreshCollector creates a collector that drives refresher every interval
func NewRefreshCollector(refresher Refresher, interval time.Duration, log *logger.Logger) *RefreshCollector {
	refreshesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "time_display_refreshes_total",
			Help: "Total number of completed time refreshes since startup",
		},
		[]string{"endpoint"},
	)

	refreshErrorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "time_display_refresh_errors_total",
			Help: "Total number of failed time refreshes since startup",
		},
		[]string{"endpoint"},
	)

	buildInfo := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "time_display_build_info",
			Help: "Build version information",
		},
		[]string{"version", "git_commit", "build_date", "go_version"},
	)

	versionInfo := version.Info()
	buildInfo.With(prometheus.Labels{
		"version":    versionInfo["version"],
		"git_commit": versionInfo["git_commit"],
		"build_date": versionInfo["build_date"],
		"go_version": versionInfo["go_version"],
	}).Set(1)

	return &RefreshCollector{
		refresher: refresher,
		interval:  interval,
		logger:    log,
		clock:     clock.RealClock{},
		upMetric: prometheus.NewDesc(
			"time_display_up",
			"Was the last time refresh successful (1 = success, 0 = failure)",
			[]string{"endpoint"},
			nil,
		),
		refreshDurationMetric: prometheus.NewDesc(
			"time_display_refresh_duration_seconds",
			"Duration of the last time refresh in seconds",
			[]string{"endpoint"},
			nil,
		),
		lastSuccessMetric: prometheus.NewDesc(
			"time_display_last_success_timestamp_seconds",
			"Unix timestamp of the last successful refresh",
			[]string{"endpoint"},
			nil,
		),
		refreshesTotal:     refreshesTotal,
		refreshErrorsTotal: refreshErrorsTotal,
		buildInfo:          buildInfo,
	}
}

// Describe implements prometheus.Collector
func (c *RefreshCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.upMetric
	ch <- c.refreshDurationMetric
	ch <- c.lastSuccessMetric
	c.refreshesTotal.Describe(ch)
	c.refreshErrorsTotal.Describe(ch)
	c.buildInfo.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *RefreshCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	endpoint := c.refresher.Endpoint()

	upValue := 0.0
	if c.lastError == nil && !c.lastRefresh.IsZero() {
		upValue = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.upMetric, prometheus.GaugeValue, upValue, endpoint)

	ch <- prometheus.MustNewConstMetric(
		c.refreshDurationMetric,
		prometheus.GaugeValue,
		c.lastRefreshDuration.Seconds(),
		endpoint,
	)

	if !c.lastSuccess.IsZero() {
		ch <- prometheus.MustNewConstMetric(
			c.lastSuccessMetric,
			prometheus.GaugeValue,
			float64(c.lastSuccess.Unix()),
			endpoint,
		)
	}

	c.refreshesTotal.Collect(ch)
	c.refreshErrorsTotal.Collect(ch)
	c.buildInfo.Collect(ch)
}

// ObserveRefresh records the outcome of one refresh. It is called by the
// time client from the refresh goroutine.
func (c *RefreshCollector) ObserveRefresh(duration time.Duration, err error) {
	endpoint := c.refresher.Endpoint()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.lastRefresh = now
	c.lastRefreshDuration = duration
	c.lastError = err
	c.refreshesTotal.With(prometheus.Labels{"endpoint": endpoint}).Inc()

	if err != nil {
		c.refreshErrorsTotal.With(prometheus.Labels{"endpoint": endpoint}).Inc()
		return
	}

	c.lastSuccess = now
	c.isReady = true
}

// StartBackgroundRefresh triggers a refresh now and then on every interval
// until ctx is cancelled. Uses atomic flag to prevent multiple refresh goroutines.
func (c *RefreshCollector) StartBackgroundRefresh(ctx context.Context) {
	if !c.refreshStarted.CompareAndSwap(false, true) {
		c.logger.Warn("Background refresh already started, skipping")
		return
	}

	c.refresher.RefreshTime()

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		defer c.refreshStarted.Store(false) // Reset on exit
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping background refresh")
				return
			case <-ticker.C:
				c.refresher.RefreshTime()
			}
		}
	}()
}

// IsReady returns true once one refresh has succeeded
func (c *RefreshCollector) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// LastError returns the error of the most recent refresh, nil if it succeeded
func (c *RefreshCollector) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

// LastSuccess returns the time of the last successful refresh
func (c *RefreshCollector) LastSuccess() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSuccess
}
