package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/helpdeskhq/support-router/tickets"
	"github.com/helpdeskhq/support-router/types"
)

// handleTicketList serves GET /api/tickets?email=...
func (s *Server) handleTicketList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		writeError(w, http.StatusBadRequest, "MISSING_EMAIL", "email query parameter is required")
		return
	}

	list := s.engine.Tickets().ForUser(email)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"email":   email,
		"count":   len(list),
		"tickets": list,
		"summary": s.engine.Tickets().UserSummary(email),
	})
}

// handleTicket serves GET /api/tickets/{id}, POST /api/tickets/{id}/status
// and POST /api/tickets/{id}/notes.
func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		t, err := s.engine.Tickets().Get(id)
		if err != nil {
			writeTicketError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)

	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected {\"status\": \"...\"}")
			return
		}
		t, err := s.engine.Tickets().UpdateStatus(r.Context(), id, tickets.Status(body.Status))
		if err != nil {
			writeTicketError(w, err)
			return
		}
		s.log.Infof("ticket %s moved to %s", t.ID, t.Status)
		writeJSON(w, http.StatusOK, t)

	case len(parts) == 2 && parts[1] == "notes" && r.Method == http.MethodPost:
		var body struct {
			Text   string `json:"text"`
			Author string `json:"author"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected {\"text\": \"...\"}")
			return
		}
		t, err := s.engine.Tickets().AddNote(r.Context(), id, body.Text, body.Author)
		if err != nil {
			writeTicketError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)

	default:
		http.NotFound(w, r)
	}
}

func writeTicketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrTicketNotFound):
		writeError(w, http.StatusNotFound, "TICKET_NOT_FOUND", err.Error())
	case errors.Is(err, types.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "TICKET_ERROR", err.Error())
	}
}
