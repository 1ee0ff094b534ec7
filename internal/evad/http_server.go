package evad

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/gorilla/websocket"
)

const (
	watchWriteWait  = 10 * time.Second
	watchPongWait   = 60 * time.Second
	watchPingPeriod = 30 * time.Second
)

// HTTPServer exposes the run API as JSON over HTTP.
type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	Executor *RunExecutor
	upgrader websocket.Upgrader
}

func NewHTTPServer(store *RunStore, executor *RunExecutor) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", executor.Metrics().Handler())
	s.mux.HandleFunc("/v1/problems", s.handleProblems)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleProblems handles GET /v1/problems
func (s *HTTPServer) handleProblems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	list := make([]map[string]any, 0)
	for _, name := range problems.Names() {
		p, err := problems.NewProblem(name)
		if err != nil {
			continue
		}
		list = append(list, map[string]any{
			"name":        p.Name(),
			"description": p.Description(),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"problems": list})
}

// handleRuns handles /v1/runs
func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleStartRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRunByID handles /v1/runs/{id}, /v1/runs/{id}:stop,
// /v1/runs/{id}/history and /v1/runs/{id}/watch
func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	if strings.HasSuffix(path, ":stop") {
		runID := strings.TrimSuffix(path, ":stop")
		if r.Method == http.MethodPost {
			s.handleStopRun(w, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/watch") {
		runID := strings.TrimSuffix(path, "/watch")
		if r.Method == http.MethodGet {
			s.handleWatchRun(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if strings.HasSuffix(path, "/history") {
		runID := strings.TrimSuffix(path, "/history")
		if r.Method == http.MethodGet {
			s.handleRunHistory(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if r.Method == http.MethodGet {
		s.handleGetRun(w, path)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleStartRun handles POST /v1/runs
func (s *HTTPServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID          string `json:"run_id,omitempty"`
		ConfigYAML     string `json:"config_yaml"`
		CallbackURL    string `json:"callback_url,omitempty"`
		CallbackSecret string `json:"callback_secret,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ConfigYAML == "" {
		s.writeError(w, http.StatusBadRequest, "config_yaml is required")
		return
	}

	run, err := s.Executor.SubmitWithCallback(req.RunID, req.ConfigYAML, Callback{
		URL:    req.CallbackURL,
		Secret: req.CallbackSecret,
	})
	if err != nil {
		s.writeError(w, httpStatus(err), err.Error())
		return
	}

	logger.Info("run started (HTTP)", "run_id", run.ID)
	s.writeJSON(w, http.StatusCreated, map[string]any{fieldRun: runFields(run)})
}

// handleListRuns handles GET /v1/runs?limit=N
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}

	runs := s.store.List(limit)
	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		out = append(out, runFields(run))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{fieldRuns: out})
}

// handleGetRun handles GET /v1/runs/{id}
func (s *HTTPServer) handleGetRun(w http.ResponseWriter, runID string) {
	run, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{fieldRun: runFields(run)})
}

// handleRunHistory handles GET /v1/runs/{id}/history?metric=NAME. Without a
// metric it returns every recorded series.
func (s *HTTPServer) handleRunHistory(w http.ResponseWriter, r *http.Request, runID string) {
	history, ok := s.store.History(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	names := history.Names()
	if metric := r.URL.Query().Get("metric"); metric != "" {
		names = []string{metric}
	}

	series := make(map[string]any, len(names))
	for _, name := range names {
		points := history.Series(name)
		if points == nil {
			points = []metrics.Point{}
		}
		entry := map[string]any{"points": points}
		if agg, ok := history.Aggregate(name); ok {
			entry["aggregation"] = agg
		}
		series[name] = entry
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"series": series,
	})
}

// handleWatchRun handles GET /v1/runs/{id}/watch. It upgrades to a websocket
// and streams the run's events as JSON text messages, starting with a
// snapshot, until the run is terminal or the client goes away.
func (s *HTTPServer) handleWatchRun(w http.ResponseWriter, r *http.Request, runID string) {
	if _, ok := s.store.Get(runID); !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	events, unsubscribe := s.Executor.Events().Subscribe(runID, 64)
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "run_id", runID, "error", err)
		return
	}
	defer conn.Close()

	// Snapshot after subscribing so no transition falls in between.
	run, _ := s.store.Get(runID)
	if err := writeEvent(conn, Event{Type: EventSnapshot, Run: run, Timestamp: time.Now()}); err != nil {
		return
	}
	if run.Status.Terminal() {
		closeWatch(conn)
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(watchPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(watchPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(watchPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				return
			}
			if ev.Type == EventStatus && ev.Run.Status.Terminal() {
				closeWatch(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
	return conn.WriteJSON(ev.fields())
}

func closeWatch(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(watchWriteWait))
}

// handleStopRun handles POST /v1/runs/{id}:stop
func (s *HTTPServer) handleStopRun(w http.ResponseWriter, runID string) {
	run, err := s.Executor.Stop(runID)
	if err != nil {
		s.writeError(w, httpStatus(err), err.Error())
		return
	}

	logger.Info("run cancelled (HTTP)", "run_id", runID)
	s.writeJSON(w, http.StatusOK, map[string]any{fieldRun: runFields(run)})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
