// Package api exposes the cluster test over HTTP: one endpoint accepting
// JSON-encoded group tensors and knobs, returning the run outcome. Rendering
// and filtering remain with the caller.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"clusterperm/app"
	"clusterperm/internal"
	"clusterperm/ports"
)

// Server hosts the cluster-test API
type Server struct {
	service *app.ClusterTestService
	repo    ports.ResultRepository // optional; nil disables persistence
	router  *chi.Mux
	log     *internal.Logger
}

// NewServer builds a server around a configured service. repo may be nil.
func NewServer(service *app.ClusterTestService, repo ports.ResultRepository, log *internal.Logger) *Server {
	if log == nil {
		log = internal.DefaultLogger
	}
	s := &Server{
		service: service,
		repo:    repo,
		router:  chi.NewRouter(),
		log:     log.WithPrefix("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/cluster-test", s.handleClusterTest)
	if s.repo != nil {
		s.router.Get("/v1/runs", s.handleListRuns)
		s.router.Get("/v1/runs/{runID}", s.handleGetRun)
	}
}

// Handler returns the router for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
