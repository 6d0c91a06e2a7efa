package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ogulcanaydogan/SafetyRing/internal/trigger"
	"github.com/ogulcanaydogan/SafetyRing/pkg/alertlog"
	"github.com/ogulcanaydogan/SafetyRing/pkg/connectivity"
	"github.com/ogulcanaydogan/SafetyRing/pkg/engine"
	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/queue"
	"github.com/ogulcanaydogan/SafetyRing/pkg/risk"
)

const defaultLogLimit = 50

// Deps are the components the API exposes. Location, Probe and Metrics
// are optional; their routes answer 404 when unset.
type Deps struct {
	Engine   *engine.Engine
	Log      *alertlog.Log
	Queue    *queue.Queue
	Risk     *risk.Tracker
	Location *location.Tracker
	Probe    connectivity.Probe
	Metrics  http.Handler
}

// Server provides the host-facing HTTP API.
type Server struct {
	deps   Deps
	mux    *http.ServeMux
	logger *slog.Logger
}

// NewServer creates an API server.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		deps:   deps,
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/v1/trigger", s.handleTrigger)
	s.mux.HandleFunc("POST /api/v1/cancel", s.handleCancel)
	s.mux.HandleFunc("GET /api/v1/log", s.handleLog)
	s.mux.HandleFunc("GET /api/v1/pending", s.handlePending)
	s.mux.HandleFunc("POST /api/v1/pending/drain", s.handleDrain)
	s.mux.HandleFunc("GET /api/v1/risk", s.handleRisk)
	if s.deps.Location != nil {
		s.mux.HandleFunc("POST /api/v1/location", s.handleLocation)
	}
	if m, ok := s.deps.Probe.(*connectivity.Manual); ok {
		s.mux.HandleFunc("POST /api/v1/connectivity", s.connectivityHandler(m))
	}
	if s.deps.Metrics != nil {
		s.mux.Handle("GET /metrics", s.deps.Metrics)
	}
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	State            engine.State `json:"state"`
	RemainingSeconds float64      `json:"remaining_seconds"`
	TemplateID       string       `json:"template_id,omitempty"`
	Online           bool         `json:"online"`
	Pending          int          `json:"pending"`
}

// RiskResponse is the body of GET /api/v1/risk.
type RiskResponse struct {
	risk.Stats
	Description     string   `json:"description"`
	Recommendations []string `json:"recommendations"`
	Gate            bool     `json:"gate"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.deps.Engine.State()
	writeJSON(w, http.StatusOK, StatusResponse{
		State:            snap.State,
		RemainingSeconds: snap.Remaining.Seconds(),
		TemplateID:       snap.TemplateID,
		Online:           s.deps.Probe == nil || s.deps.Probe.IsOnline(),
		Pending:          s.deps.Queue.Len(),
	})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	templateID := r.URL.Query().Get("template")

	var armed bool
	if templateID != "" {
		armed = s.deps.Engine.TriggerTemplate(r.Context(), templateID)
	} else {
		armed = s.deps.Engine.Trigger(r.Context())
	}
	if !armed {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "alert already in progress"})
		return
	}

	s.logger.Info("alert triggered over http", "template", templateID)
	writeJSON(w, http.StatusAccepted, map[string]bool{"armed": true})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !s.deps.Engine.Cancel(r.Context()) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no countdown to cancel"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.deps.Log.Recent(limit))
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Queue.List())
}

func (s *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	drained := s.deps.Engine.DrainOne(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"drained": drained,
		"pending": s.deps.Queue.Len(),
	})
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Risk.Reload(r.Context()); err != nil {
		s.logger.Warn("reload risk state", "error", err)
	}
	stats := s.deps.Risk.Statistics()
	writeJSON(w, http.StatusOK, RiskResponse{
		Stats:           stats,
		Description:     risk.Description(stats.Tier),
		Recommendations: risk.Recommendations(stats.UsageCount),
		Gate:            s.deps.Risk.Gate(),
	})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	c, err := trigger.ParseLocation(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.deps.Location.Update(r.Context(), c)
	writeJSON(w, http.StatusOK, map[string]string{
		"address": s.deps.Location.CurrentAddress(),
		"gps":     location.GPS(c),
	})
}

func (s *Server) connectivityHandler(m *connectivity.Manual) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Online *bool `json:"online"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&req); err != nil || req.Online == nil {
			http.Error(w, `body must be {"online": true|false}`, http.StatusBadRequest)
			return
		}
		rising := m.SetOnline(*req.Online)
		writeJSON(w, http.StatusOK, map[string]bool{"online": *req.Online, "reconnected": rising})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
