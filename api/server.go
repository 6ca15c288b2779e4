// Package api is the HTTP surface of the routing engine: the turn endpoint,
// session and ticket inspection, health and the live log stream.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helpdeskhq/support-router/agents/escalation"
	"github.com/helpdeskhq/support-router/logger"
	"github.com/helpdeskhq/support-router/route"
	"github.com/helpdeskhq/support-router/types"
	"github.com/helpdeskhq/support-router/websocket"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Server wires the engine and its collaborators to HTTP.
type Server struct {
	engine *route.Engine
	esc    *escalation.Agent
	stream *websocket.LogStream
	log    *logger.Logger

	checks map[string]func() types.ServiceStatus
}

// NewServer creates the API server. stream may be nil when the log stream is
// disabled.
func NewServer(engine *route.Engine, esc *escalation.Agent, stream *websocket.LogStream) *Server {
	lg := logger.New()
	lg.SetComponent("api")
	return &Server{
		engine: engine,
		esc:    esc,
		stream: stream,
		log:    lg,
		checks: make(map[string]func() types.ServiceStatus),
	}
}

// AddServiceCheck registers a collaborator health probe.
func (s *Server) AddServiceCheck(name string, fn func() types.ServiceStatus) {
	s.checks[name] = fn
}

// Routes returns the full handler with CORS applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/turn", s.handleTurn)
	mux.HandleFunc("/api/sessions/", s.handleSessions)
	mux.HandleFunc("/api/tickets", s.handleTicketList)
	mux.HandleFunc("/api/tickets/", s.handleTicket)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)
	if s.stream != nil {
		mux.HandleFunc("/ws", s.stream.HandleWS)
	}

	return s.corsMiddleware(mux)
}

// handleTurn processes one conversation turn.
// Body: {"message": "...", "sessionId": "..."}; a body that is not JSON is
// accepted as the plain text message. A missing session ID starts a new
// session; the ID used is echoed in the X-Session-ID header.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawIn, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()

	var message, sessionID string
	if len(rawIn) > 0 {
		var reqIn types.TurnRequest
		if err := json.Unmarshal(rawIn, &reqIn); err == nil && reqIn.Message != "" {
			message = reqIn.Message
			sessionID = reqIn.SessionID
		} else {
			// Fallback: accept plain text payload as the message
			message = strings.TrimSpace(string(rawIn))
		}
	}
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}
	if sessionID == "" {
		sessionID = "sess-" + uuid.NewString()
	}

	resp, err := s.engine.ProcessTurn(r.Context(), sessionID, message)
	if err != nil {
		s.log.WithSession(sessionID).Error("turn rejected", err)
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	s.log.WithSession(sessionID).Infof("turn handled intent=%s handler=%s", resp.Intent, resp.Handler)

	w.Header().Set("X-Session-ID", sessionID)
	writeJSON(w, http.StatusOK, resp)
}

// handleSessions serves GET /api/sessions/{id} and
// POST /api/sessions/{id}/escalate.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	sessionID := parts[0]

	if len(parts) == 2 && parts[1] == "escalate" {
		s.handleEscalateFromHistory(w, r, sessionID)
		return
	}
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view, err := s.engine.Sessions().Lookup(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, types.ErrorCodeSessionNotFound, err.Error())
		return
	}
	out := map[string]interface{}{
		"sessionId":      view.SessionID,
		"state":          view.CurrentState,
		"currentHandler": view.CurrentHandler,
		"pendingAction":  view.PendingAction,
		"messages":       len(view.Messages),
		"summary":        view.Summary(),
	}
	if view.ShouldAskFollowup() {
		if q := view.FollowupQuestion(); q != "" {
			out["suggestedFollowup"] = q
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleEscalateFromHistory opens a ticket from an existing conversation
// without asking further questions.
func (s *Server) handleEscalateFromHistory(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view, err := s.engine.Sessions().Lookup(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, types.ErrorCodeSessionNotFound, err.Error())
		return
	}
	res, err := s.esc.FromHistory(r.Context(), sessionID, view.Messages)
	if err != nil {
		s.log.WithSession(sessionID).Error("history escalation failed", err)
		writeError(w, http.StatusInternalServerError, "ESCALATION_FAILED", err.Error())
		return
	}

	status := http.StatusCreated
	if res.NeedsEmail {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

// handleStatus reports runtime statistics.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	out := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	}
	if s.stream != nil {
		out["logStream"] = s.stream.Stats()
	}
	writeJSON(w, http.StatusOK, out)
}

// handleHealth reports overall service health including collaborators.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]types.ServiceStatus, len(s.checks))
	status := types.StatusHealthy
	for name, check := range s.checks {
		st := check()
		services[name] = st
		if st.Status == types.StatusDown {
			status = types.StatusDegraded
		}
	}

	writeJSON(w, http.StatusOK, types.HealthCheckResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   Version,
		Services:  services,
	})
}

// corsMiddleware adds CORS headers to responses.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Session-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": types.ErrorDetail{
			Code:        code,
			Message:     msg,
			Recoverable: status < 500,
		},
	})
}
