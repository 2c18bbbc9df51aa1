package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/haven/internal/config"
	"github.com/antoniostano/haven/internal/observability"
	"github.com/antoniostano/haven/internal/orchestrator"
)

type Server struct {
	cfg      config.Config
	sessions *orchestrator.Manager
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

// New builds the API server. metrics must be non-nil; every handler that
// observes counters relies on it.
func New(cfg config.Config, sessions *orchestrator.Manager, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive a conversation
				// if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/sessions", s.handleCreateSession)
	r.Post("/v1/sessions/{id}/end", s.handleEndSession)
	r.Post("/v1/sessions/{id}/messages", s.handlePostMessage)
	r.Get("/v1/sessions/{id}/history", s.handleGetHistory)
	r.Get("/v1/sessions/{id}/insights", s.handleGetInsights)
	r.Get("/v1/sessions/{id}/export", s.handleExportSession)
	r.Get("/v1/sessions/ws", s.handleSessionWS)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "default"
	}

	o, err := s.sessions.StartSession(r.Context(), req.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session_start_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: o.SessionID(),
		UserID:    req.UserID,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.End(id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "status": "ended"})
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "empty_message", "content must not be empty")
		return
	}

	envelope, err := o.ProcessMessage(r.Context(), req.Content)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	history, err := o.History(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": history})
}

func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	insights, err := o.Insights(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "insights_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"insights": insights})
}

// handleExportSession serves the whole conversation as a JSON download.
func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	o, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	export, err := o.Export(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "export_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="session_`+chi.URLParam(r, "id")+`.json"`)
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(export)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*orchestrator.Orchestrator, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return nil, false
	}
	o, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return o, true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
