package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/autoreply/internal/instrumentation"
)

const (
	// DefaultAddr is the default address for the operational server.
	DefaultAddr = ":9090"

	// DefaultReadTimeout is the default read header timeout.
	DefaultReadTimeout = 10 * time.Second

	// DefaultWriteTimeout is the default write timeout.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the default idle timeout.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds configuration for the operational server.
type Config struct {
	// Addr is the address to bind to (e.g., ":9090").
	Addr string

	// Health provides the probe handlers. Required.
	Health *HealthChecker

	// InstrumentationProvider gates the /metrics endpoint. When nil or
	// disabled, only the health endpoints are served.
	InstrumentationProvider *instrumentation.Provider
}

// Server serves health probes and Prometheus metrics on a dedicated
// port, isolated from any application traffic.
type Server struct {
	httpServer *http.Server
	addr       string
	health     *HealthChecker
	metrics    bool
}

// New creates the operational server.
func New(config Config) (*Server, error) {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.Health == nil {
		return nil, fmt.Errorf("health checker is required")
	}

	metrics := config.InstrumentationProvider != nil && config.InstrumentationProvider.Enabled()

	return &Server{
		addr:    config.Addr,
		health:  config.Health,
		metrics: metrics,
	}, nil
}

// Start starts the server in a blocking manner. Call it in a goroutine
// for non-blocking operation.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.health.RegisterHealthEndpoints(mux)

	if s.metrics {
		// The OpenTelemetry prometheus exporter registers metrics to the
		// global Prometheus registry, which promhttp.Handler() exposes.
		mux.Handle("/metrics", promhttp.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}

	slog.Info("starting operational server", "addr", s.addr, "metrics", s.metrics)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		slog.Info("shutting down operational server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}
