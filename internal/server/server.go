package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zgpcy/time-display/internal/clock"
	"github.com/zgpcy/time-display/internal/config"
	"github.com/zgpcy/time-display/internal/logger"
	"github.com/zgpcy/time-display/internal/version"
)

//go:embed static
var staticFiles embed.FS

// HTTP server timeout constants
const (
	DefaultReadTimeout  = 15 * time.Second // Maximum duration for reading the entire request
	DefaultWriteTimeout = 15 * time.Second // Maximum duration before timing out writes of the response
	DefaultIdleTimeout  = 60 * time.Second // Maximum amount of time to wait for the next request
)

// indexPageData holds template data for the index page
type indexPageData struct {
	Time           string
	Version        string
	Started        string
	Requests       string
	StreamInterval int
}

// Server serves the current time over HTTP
type Server struct {
	server   *http.Server
	cfg      *config.Config
	logger   *logger.Logger
	clock    clock.Clock
	location *time.Location
	layout   string
	index    *template.Template
	upgrader websocket.Upgrader

	started     time.Time
	ready       atomic.Bool
	apiRequests atomic.Int64
	requests    *prometheus.CounterVec

	// streams ends open websocket streams on shutdown; hijacked connections
	// are not closed by http.Server.Shutdown
	streams     context.Context
	stopStreams context.CancelFunc
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, log *logger.Logger) (*Server, error) {
	loc, err := cfg.Server.Location()
	if err != nil {
		return nil, err
	}

	index, err := template.ParseFS(staticFiles, "static/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	streams, stopStreams := context.WithCancel(context.Background())

	s := &Server{
		cfg:         cfg,
		logger:      log,
		clock:       clock.RealClock{},
		location:    loc,
		layout:      cfg.Server.Layout(),
		index:       index,
		started:     time.Now(),
		requests:    registerRequestCounter(log),
		streams:     streams,
		stopStreams: stopStreams,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.routes(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
	}
	s.server.RegisterOnShutdown(stopStreams)

	return s, nil
}

// registerRequestCounter registers the API request counter, reusing the one
// already registered when several servers share a process (tests)
func registerRequestCounter(log *logger.Logger) *prometheus.CounterVec {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "time_display_api_requests_total",
			Help: "Total number of requests served by route",
		},
		[]string{"route", "code"},
	)
	if err := prometheus.Register(requests); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		log.Warn("Failed to register request counter", "error", err)
	}
	return requests
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	static, _ := fs.Sub(staticFiles, "static")

	r.Get("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Route("/api", func(r chi.Router) {
		r.Get("/time", s.handleTime)
		r.Get("/time/stream", s.handleTimeStream)
	})
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Handler returns the router, for embedding in tests or other servers
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until the server is shut down
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", "address", ln.Addr().String())
	s.ready.Store(true)
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.ready.Store(false)
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	s.ready.Store(false)
	return s.server.Shutdown(ctx)
}

// currentTime formats the clock's time in the configured location and layout
func (s *Server) currentTime() string {
	return s.clock.Now().In(s.location).Format(s.layout)
}

// unmatchedRoute labels requests no route matched, keeping the series count bounded
const unmatchedRoute = "unmatched"

// logRequests logs one line per request and counts it by route pattern
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.requests.WithLabelValues(route, fmt.Sprint(status)).Inc()

		s.logger.Info("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_seconds", time.Since(start).Seconds())
	})
}

// handleTime returns the current time as plain text
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	s.apiRequests.Add(1)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(s.currentTime())); err != nil {
		s.logger.Error("Failed to write time response", "error", err)
	}
}

// handleIndex serves the landing page with the browser client
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexPageData{
		Time:           s.currentTime(),
		Version:        version.Version,
		Started:        humanize.Time(s.started),
		Requests:       humanize.Comma(s.apiRequests.Load()),
		StreamInterval: s.cfg.Server.StreamInterval,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(w, data); err != nil {
		s.logger.Error("Failed to execute index template", "error", err)
	}
}

// handleHealth handles health check requests (always returns 200 for liveness)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
		s.logger.Error("Failed to write health response", "error", err)
	}
}

// handleReady returns 200 once the listener is bound and until shutdown starts
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(`{"status":"not ready"}`)); err != nil {
			s.logger.Error("Failed to write ready response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ready"}`)); err != nil {
		s.logger.Error("Failed to write ready response", "error", err)
	}
}
