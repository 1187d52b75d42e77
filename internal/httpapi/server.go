// Package httpapi exposes job submission and polling over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"TubeScribe/internal/domain"
)

// JobService is the slice of the orchestrator the API needs.
type JobService interface {
	Submit(ctx context.Context, topic string, mode domain.Mode) (string, error)
	GetStatus(ctx context.Context, id string) (domain.Job, error)
}

// Server routes API requests onto a JobService.
type Server struct {
	service JobService
	logger  *slog.Logger
	http    *http.Server
}

// NewServer builds the HTTP server on the given listen address.
func NewServer(addr string, service JobService, logger *slog.Logger) *Server {
	s := &Server{service: service, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks", s.handleSubmit)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks serving requests until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
