// Package web serves a localhost-only, read-only JSON view of the build
// store; it has no auth in this mode.
package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"jobprofit/ledger"
	"jobprofit/output"
	"jobprofit/storage"
)

const latestRun = "latest"

type Server struct {
	store  *storage.SQLiteStore
	logger *zap.Logger
	mux    *http.ServeMux

	// Stored builds never change, so facts are cached per run ID.
	mu        sync.RWMutex
	factCache map[string][]ledger.FactRow
}

type errorResponse struct {
	Error string `json:"error"`
}

type factsResponse struct {
	RunID string           `json:"run_id"`
	Count int              `json:"count"`
	Facts []map[string]any `json:"facts"`
}

type summaryResponse struct {
	RunID   string           `json:"run_id"`
	Kind    string           `json:"kind"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func NewServer(store *storage.SQLiteStore, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	server := &Server{
		store:     store,
		logger:    logger,
		factCache: make(map[string][]ledger.FactRow),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/builds", server.handleAPIBuilds)
	mux.HandleFunc("GET /api/builds/{run}/report", server.handleAPIReport)
	mux.HandleFunc("GET /api/builds/{run}/facts", server.handleAPIFacts)
	mux.HandleFunc("GET /api/builds/{run}/summaries/{kind}", server.handleAPISummary)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleAPIBuilds(w http.ResponseWriter, r *http.Request) {
	builds, err := s.store.ListBuilds()
	if err != nil {
		s.internalError(w, "list builds", err)
		return
	}
	writeJSON(w, http.StatusOK, buildRows(builds))
}

func (s *Server) handleAPIReport(w http.ResponseWriter, r *http.Request) {
	build, ok := s.resolveBuild(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, build.Report)
}

func (s *Server) handleAPIFacts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFactFilter(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	build, ok := s.resolveBuild(w, r)
	if !ok {
		return
	}
	facts, err := s.loadFacts(build.RunID)
	if err != nil {
		s.internalError(w, "load facts", err)
		return
	}

	records := tableRecords(output.FactTable(filterFacts(facts, filter)))
	writeJSON(w, http.StatusOK, factsResponse{RunID: build.RunID, Count: len(records), Facts: records})
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(strings.TrimSpace(r.PathValue("kind")))
	if _, ok := summaryTable(kind, nil); !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown summary " + kind + " (supported: job-month, job-total, quote-vs-actual)"})
		return
	}

	build, ok := s.resolveBuild(w, r)
	if !ok {
		return
	}
	facts, err := s.loadFacts(build.RunID)
	if err != nil {
		s.internalError(w, "load facts", err)
		return
	}

	table, _ := summaryTable(kind, facts)
	writeJSON(w, http.StatusOK, summaryResponse{
		RunID:   build.RunID,
		Kind:    kind,
		Columns: table.Headers,
		Rows:    tableRecords(table),
	})
}

// resolveBuild writes the error response itself when it returns false.
func (s *Server) resolveBuild(w http.ResponseWriter, r *http.Request) (storage.Build, bool) {
	runID := strings.TrimSpace(r.PathValue("run"))

	var (
		build storage.Build
		found bool
		err   error
	)
	if runID == "" || runID == latestRun {
		build, found, err = s.store.LatestBuild()
	} else {
		build, found, err = s.store.GetBuild(runID)
	}
	if err != nil {
		s.internalError(w, "load build", err)
		return storage.Build{}, false
	}
	if !found {
		s.evict(runID)
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "build not found: " + runID})
		return storage.Build{}, false
	}
	return build, true
}

func (s *Server) loadFacts(runID string) ([]ledger.FactRow, error) {
	s.mu.RLock()
	facts, ok := s.factCache[runID]
	s.mu.RUnlock()
	if ok {
		return facts, nil
	}

	facts, err := s.store.ListFacts(runID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.factCache[runID] = facts
	s.mu.Unlock()
	return facts, nil
}

func (s *Server) evict(runID string) {
	s.mu.Lock()
	delete(s.factCache, runID)
	s.mu.Unlock()
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.logger.Error(action, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
