// Package server exposes the process graph pipeline over HTTP.
//
// All responses are JSON except the CSV, DOT, and SVG export endpoints.
// Error mapping is uniform: unknown process ids are 404, invalid input is
// 422, and an unreachable database is 503.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kdreher/flowmap/pkg/graph"
	"github.com/kdreher/flowmap/pkg/pipeline"
	"github.com/kdreher/flowmap/pkg/store/neo4j"
)

// Store is the persistence surface the server needs. *neo4j.Store
// implements it; tests substitute an in-memory stub.
type Store interface {
	pipeline.Source
	Processes(ctx context.Context) ([]neo4j.ProcessInfo, error)
	Statistics(ctx context.Context) (neo4j.Stats, error)
	CreateProcess(ctx context.Context, processID, name string, nodes []graph.Node, edges []graph.Edge) (string, error)
	DeleteProcess(ctx context.Context, processID string) error
	FindTask(ctx context.Context, query string) ([]neo4j.TaskMatch, error)
	Gateways(ctx context.Context) ([]neo4j.TaskMatch, error)
	Ping(ctx context.Context) error
}

// Server wires the store and pipeline runner into an HTTP handler.
type Server struct {
	store  Store
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a Server. The runner's source must be the same store.
func New(store Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, runner: runner, logger: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/processes", s.handleListProcesses)
		r.Post("/processes", s.handleCreateProcess)
		r.Delete("/processes/{id}", s.handleDeleteProcess)
		r.Get("/statistics", s.handleStatistics)
		r.Get("/search", s.handleSearch)
		r.Get("/gateways", s.handleGateways)

		r.Route("/processes/{id}", func(r chi.Router) {
			r.Get("/graph", s.handleGraph)
			r.Get("/layout", s.handleLayout)
			r.Get("/paths", s.handlePaths)
			r.Get("/critical-path", s.handleCriticalPath)
			r.Get("/bottlenecks", s.handleBottlenecks)
			r.Get("/branches", s.handleBranches)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/dot", s.handleExportDOT)
			r.Get("/svg", s.handleExportSVG)
		})
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// logRequests logs one line per request with status and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
