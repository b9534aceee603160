// Package dashboard serves the live river-monitoring dashboard: it runs
// one decision-pipeline cycle per request against a fresh reading-log
// snapshot and renders the verdict, the override form, and the history
// charts.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procodus.dev/river-monitor/internal/model"
	"procodus.dev/river-monitor/internal/pipeline"
	"procodus.dev/river-monitor/internal/store"
	"procodus.dev/river-monitor/pkg/metrics"
)

// Server represents the dashboard HTTP server.
type Server struct {
	logger     *slog.Logger
	audit      *slog.Logger
	httpServer *http.Server
	log        *store.Log
	models     *model.Holder
	config     *ServerConfig
	metrics    *metrics.PipelineMetrics // Optional metrics
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// Audit receives one entry per emitted verdict. Falls back to Logger
	// when nil.
	Audit *slog.Logger

	// HTTP server configuration
	HTTPPort int

	// Log is the canonical reading log.
	Log *store.Log

	// Models holds the hot-swappable classifier.
	Models *model.Holder

	// Pipeline holds the operator-tunable decision parameters.
	Pipeline pipeline.Config
}

// NewServer creates a new dashboard Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}

	if cfg.Log == nil {
		return nil, errors.New("reading log cannot be nil")
	}

	if cfg.Models == nil {
		return nil, errors.New("model holder cannot be nil")
	}

	audit := cfg.Audit
	if audit == nil {
		audit = cfg.Logger
	}

	return &Server{
		logger: cfg.Logger,
		audit:  audit,
		log:    cfg.Log,
		models: cfg.Models,
		config: cfg,
	}, nil
}

// SetMetrics sets the metrics collector for the decision pipeline.
// This should be called before Run.
func (s *Server) SetMetrics(m *metrics.PipelineMetrics) {
	s.metrics = m
}

// Run starts the dashboard server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting dashboard server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	mux := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.httpServer.Addr)

	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

	s.logger.Info("dashboard server started successfully")

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
			cancel()
			return err
		}
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down dashboard server")

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown HTTP server", "error", err)
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		s.logger.Info("HTTP server stopped")
	}

	s.logger.Info("dashboard server shutdown completed successfully")
	return nil
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("GET /metrics", metrics.Handler())

	// History charts (embedded as iframes in the index page)
	mux.HandleFunc("GET /charts/{name}", s.handleChart)

	// Dashboard page (catch-all, must be last)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return mux
}
