// Package server exposes the download queue over a JSON REST API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"downloadqueue/config"
	"downloadqueue/internal/artifact"
	"downloadqueue/internal/queue"
	"downloadqueue/internal/remote"
	"downloadqueue/observability/types"
)

// Server wires the queue manager, artifact saver and remote client into an
// HTTP API.
type Server struct {
	manager *queue.Manager
	saver   *artifact.Saver
	client  remote.Client
	cfg     config.ServerConfig
	logger  types.Logger
	metrics types.Metrics
	httpSrv *http.Server
}

// New builds a Server. The saver may be nil when artifact archiving is
// disabled; the save endpoint then responds with 503.
func New(manager *queue.Manager, saver *artifact.Saver, client remote.Client, cfg config.ServerConfig, logger types.Logger, metrics types.Metrics) *Server {
	return &Server{
		manager: manager,
		saver:   saver,
		client:  client,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Handler returns the routed HTTP handler, wrapped with request tracking.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/queue", s.handleEnqueue)
	mux.HandleFunc("GET /api/queue", s.handleListQueue)
	mux.HandleFunc("GET /api/queue/current", s.handleCurrent)
	mux.HandleFunc("DELETE /api/queue/{id}", s.handleCancel)
	mux.HandleFunc("PUT /api/queue/paused", s.handleSetPaused)
	mux.HandleFunc("GET /api/queue/paused", s.handleGetPaused)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleRemoveFromHistory)

	mux.HandleFunc("GET /api/notifications/next", s.handleNextNotification)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.handleDiscardNotification)

	mux.HandleFunc("POST /api/save/{id}", s.handleSaveArtifact)
	mux.HandleFunc("POST /api/metadata", s.handleMetadata)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withRequestContext(mux)
}

// Start runs the HTTP server until it is shut down. ErrServerClosed is not
// treated as a failure.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}

	s.logger.Info(context.Background(), "Starting HTTP server", types.Fields{
		"address": s.cfg.Addr,
	})

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.httpSrv.Shutdown(ctx)
}

// withRequestContext tags every request with a correlation identifier and
// records request metrics.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), "request_id", requestID) //nolint:staticcheck
		w.Header().Set("X-Request-ID", requestID)

		s.metrics.StartOperation("http_request")
		defer s.metrics.EndOperation("http_request")

		s.logger.Debug(ctx, "HTTP request received", types.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
