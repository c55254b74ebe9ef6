// Package http provides the HTTP surface of vodarr: a health endpoint and
// task progress polling. Upload routing, validation and auth live in the
// API gateway in front of this service.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vodarr/vodarr/internal/config"
	"github.com/vodarr/vodarr/internal/observability"
	"github.com/vodarr/vodarr/internal/service/progress"
	"github.com/vodarr/vodarr/internal/version"
)

// TaskStore is the read side of the progress registry.
type TaskStore interface {
	Get(id string) (progress.Task, bool)
}

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	router      *chi.Mux
	registry    TaskRegistry
	coordinator Coordinator
	httpServer  *http.Server
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(cfg config.ServerConfig, coordinator Coordinator, registry TaskRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = observability.WithComponent(logger, "http")

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)

	s := &Server{
		config:      cfg,
		router:      router,
		registry:    registry,
		coordinator: coordinator,
		logger:      logger,
	}
	s.routes()
	return s
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/tasks/{id}", s.handleGetTask)
		s.ingestRoutes(r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, ok := s.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("task %s not found", id),
		})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Start starts the HTTP server. Blocks until the listener closes.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("starting HTTP server", slog.String("address", addr))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("shutting down HTTP server",
		slog.Duration("timeout", s.config.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// ListenAndServe starts the server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}
