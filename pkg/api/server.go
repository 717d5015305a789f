// Package api exposes the simulator over HTTP.
//
// The API accepts graphs in the canonical graphio.Record format, runs
// deadlock detection on demand, and manages a scenario library backed by
// any store.Store implementation. All responses are JSON except the DOT
// export, which is plain text.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/deadlocklab/ragsim/pkg/graphio"
	"github.com/deadlocklab/ragsim/pkg/rag"
	"github.com/deadlocklab/ragsim/pkg/rag/detect"
	"github.com/deadlocklab/ragsim/pkg/render/dot"
	"github.com/deadlocklab/ragsim/pkg/store"
)

// Server handles HTTP requests for detection and scenario management.
type Server struct {
	store  store.Store
	logger *log.Logger
}

// New creates a Server backed by the given scenario store.
// A nil logger falls back to log.Default().
func New(st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: st, logger: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/detect", s.handleDetect)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", s.handleListScenarios)
			r.Post("/", s.handleCreateScenario)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetScenario)
				r.Put("/", s.handleUpdateScenario)
				r.Delete("/", s.handleDeleteScenario)
				r.Get("/detect", s.handleDetectScenario)
				r.Get("/dot", s.handleScenarioDOT)
			})
		})
	})
	return r
}

// requestLogger logs method, path, and duration for every request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start).Round(time.Millisecond))
	})
}

// DetectResponse is the JSON body returned by the detect endpoints.
type DetectResponse struct {
	Deadlock    bool                `json:"deadlock"`
	Deadlocked  []string            `json:"deadlocked"`
	Implicated  []string            `json:"implicated"`
	Suggestions []detect.Suggestion `json:"suggestions"`
	Guide       string              `json:"guide"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var rec graphio.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed JSON: %v", rag.ErrInvalidArgument, err))
		return
	}
	s.detectRecord(w, rec)
}

func (s *Server) handleDetectScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.detectRecord(w, sc.Record)
}

func (s *Server) detectRecord(w http.ResponseWriter, rec graphio.Record) {
	g, err := graphio.ToGraph(rec)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := detect.Detect(g.Snapshot())
	if err != nil {
		s.writeError(w, err)
		return
	}
	suggestions := res.Suggestions()
	if suggestions == nil {
		suggestions = []detect.Suggestion{}
	}
	s.writeJSON(w, http.StatusOK, DetectResponse{
		Deadlock:    res.HasDeadlock(),
		Deadlocked:  orEmpty(res.Deadlocked),
		Implicated:  orEmpty(res.Implicated),
		Suggestions: suggestions,
		Guide:       res.Guide(),
	})
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scs, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if scs == nil {
		scs = []store.Scenario{}
	}
	s.writeJSON(w, http.StatusOK, scs)
}

func (s *Server) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	s.putScenario(w, r, "")
}

func (s *Server) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	s.putScenario(w, r, chi.URLParam(r, "id"))
}

// putScenario validates the submitted record before touching the store,
// so an invalid scenario is never persisted.
func (s *Server) putScenario(w http.ResponseWriter, r *http.Request, id string) {
	var sc store.Scenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed JSON: %v", rag.ErrInvalidArgument, err))
		return
	}
	if _, err := graphio.ToGraph(sc.Record); err != nil {
		s.writeError(w, err)
		return
	}
	if id != "" {
		sc.ID = id
	}
	if err := s.store.Put(r.Context(), &sc); err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, sc)
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScenarioDOT(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	g, err := graphio.ToGraph(sc.Record)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap := g.Snapshot()
	res, err := detect.Detect(snap)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	fmt.Fprint(w, dot.ToDOT(snap, dot.Options{Result: res, EdgeCounts: true}))
}

// errorResponse is the JSON body for all error statuses.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// writeError maps graph and store sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, rag.ErrNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, rag.ErrInvalidArgument), errors.Is(err, rag.ErrDuplicateNode):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
