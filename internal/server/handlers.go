package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kdreher/flowmap/pkg/export"
	"github.com/kdreher/flowmap/pkg/graph"
	"github.com/kdreher/flowmap/pkg/pipeline"
	"github.com/kdreher/flowmap/pkg/render/dot"
	"github.com/kdreher/flowmap/pkg/store/neo4j"
)

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.Processes(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if infos == nil {
		infos = []neo4j.ProcessInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"processes": infos})
}

// createProcessRequest is the POST /api/processes body, in loader shape.
type createProcessRequest struct {
	ID    string              `json:"id,omitempty"`
	Name  string              `json:"name"`
	Nodes []export.NodeRecord `json:"nodes"`
	Edges []export.EdgeRecord `json:"edges"`
}

func (s *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	var req createProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	nodes := make([]graph.Node, len(req.Nodes))
	for i, n := range req.Nodes {
		nodes[i] = graph.Node{ID: n.ID, Name: n.Name, Type: graph.ParseNodeType(n.Type)}
	}
	edges := make([]graph.Edge, len(req.Edges))
	for i, e := range req.Edges {
		edges[i] = graph.Edge{Source: e.Source, Target: e.Target, Label: e.Label}
	}

	id, err := s.store.CreateProcess(r.Context(), req.ID, req.Name, nodes, edges)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteProcess(r.Context(), id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Statistics(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusUnprocessableEntity, "query parameter q is required")
		return
	}
	matches, err := s.store.FindTask(r.Context(), q)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if matches == nil {
		matches = []neo4j.TaskMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *Server) handleGateways(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.Gateways(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if matches == nil {
		matches = []neo4j.TaskMatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"gateways": matches})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}
	doc := export.FromGraph(g)
	doc.ProcessID = chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"graph_hash": result.GraphHash,
		"layout":     result.Layout,
		"cached":     result.CacheInfo.LayoutHit,
	})
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paths":     result.Analysis.Paths,
		"truncated": result.Analysis.Truncated,
	})
}

func (s *Server) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"critical_path": result.Analysis.CriticalPath,
	})
}

func (s *Server) handleBottlenecks(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bottlenecks": result.Analysis.Bottlenecks,
	})
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	result, ok := s.runPipeline(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"parallel_branches": result.Analysis.ParallelBranches,
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}
	doc := export.FromGraph(g)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", chi.URLParam(r, "id")+".csv"))
	if err := export.WriteCSV(doc, w); err != nil {
		s.logger.Error("csv export failed", "error", err)
	}
}

func (s *Server) handleExportDOT(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(dot.ToDOT(g, dot.Options{})))
}

func (s *Server) handleExportSVG(w http.ResponseWriter, r *http.Request) {
	g, ok := s.loadGraph(w, r)
	if !ok {
		return
	}
	svg, err := dot.RenderSVG(r.Context(), dot.ToDOT(g, dot.Options{}))
	if err != nil {
		s.logger.Error("svg render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "svg rendering failed")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

// loadGraph fetches the process graph for the request, writing the error
// response itself on failure.
func (s *Server) loadGraph(w http.ResponseWriter, r *http.Request) (*graph.Graph, bool) {
	g, err := s.runner.Source.GraphData(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	return g, true
}

// runPipeline executes the full pipeline with options taken from query
// parameters, writing the error response itself on failure.
func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	opts, err := optionsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	return result, true
}

// optionsFromRequest reads width, height, max_paths, and refresh query
// parameters into pipeline options.
func optionsFromRequest(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{ProcessID: chi.URLParam(r, "id")}

	q := r.URL.Query()
	if v := q.Get("width"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("invalid width %q", v)
		}
		opts.Width = f
	}
	if v := q.Get("height"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("invalid height %q", v)
		}
		opts.Height = f
	}
	if v := q.Get("max_paths"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("invalid max_paths %q", v)
		}
		opts.MaxPaths = n
	}
	if v := q.Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid refresh %q", v)
		}
		opts.Refresh = b
	}
	return opts, nil
}

// writeStoreError maps store and pipeline errors to HTTP status codes.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, neo4j.ErrProcessNotFound):
		writeError(w, http.StatusNotFound, "process not found")
	case errors.Is(err, neo4j.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "graph database unavailable")
	case errors.Is(err, graph.ErrInvalidNodeID),
		errors.Is(err, graph.ErrDuplicateNodeID),
		errors.Is(err, graph.ErrDanglingEdge):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
