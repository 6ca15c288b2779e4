package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/agents/escalation"
	"github.com/helpdeskhq/support-router/agents/faq"
	"github.com/helpdeskhq/support-router/agents/orders"
	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
	"github.com/helpdeskhq/support-router/kb"
	"github.com/helpdeskhq/support-router/orderstore"
	"github.com/helpdeskhq/support-router/route"
	"github.com/helpdeskhq/support-router/tickets"
	"github.com/helpdeskhq/support-router/types"
)

func newTestServer() (*Server, *tickets.Manager) {
	sessions := conversation.NewManager(nil)
	ticketMgr := tickets.NewManager(nil)
	store := orderstore.New(orderstore.SeedOrders())

	esc := escalation.NewAgent(sessions, ticketMgr, nil)
	ord := orders.NewAgent(sessions, store)
	faqAgent := faq.NewAgent(kb.New(kb.SeedFAQs()))

	engine := route.NewEngine(classify.NewRuleClassifier(), sessions, ticketMgr, esc, ord, faqAgent)
	return NewServer(engine, esc, nil), ticketMgr
}

func TestTurnEndpointJSONBody(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	body := `{"message": "where is my order ORD-2024-001?", "sessionId": "api-s1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/turn", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Session-ID"); got != "api-s1" {
		t.Fatalf("Expected the session ID to be echoed, got %q", got)
	}

	var resp types.TurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected a JSON turn response, got error %v", err)
	}
	if resp.Handler != agents.NameOrders {
		t.Fatalf("Expected the order handler, got %s", resp.Handler)
	}
}

func TestTurnEndpointPlainTextBody(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/turn", strings.NewReader("what is your return policy?"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Session-ID") == "" {
		t.Fatal("Expected a generated session ID in the response header")
	}

	var resp types.TurnResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected a JSON turn response, got error %v", err)
	}
	if resp.Handler != agents.NameFAQ {
		t.Fatalf("Expected the FAQ handler for a policy question, got %s", resp.Handler)
	}
}

func TestTurnEndpointRejectsEmptyBody(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/turn", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an empty body, got %d", rec.Code)
	}
}

func TestTurnEndpointMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/turn", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", rec.Code)
	}
}

func TestTicketEndpoints(t *testing.T) {
	s, ticketMgr := newTestServer()
	handler := s.Routes()

	created := ticketMgr.Create(context.Background(), "Damaged blender", "arrived broken", "jane@example.com", "ORD-2024-001")

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/"+created.ID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 fetching the ticket, got %d", rec.Code)
	}

	var fetched tickets.Ticket
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("Expected a ticket JSON body, got error %v", err)
	}
	if fetched.ID != created.ID || fetched.Status != tickets.StatusOpen {
		t.Fatalf("Expected open ticket %s, got %s/%s", created.ID, fetched.ID, fetched.Status)
	}

	body := `{"status": "resolved"}`
	req = httptest.NewRequest(http.MethodPost, "/api/tickets/"+created.ID+"/status", strings.NewReader(body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 resolving the ticket, got %d: %s", rec.Code, rec.Body.String())
	}

	// open -> open is not a legal transition
	body = `{"status": "open"}`
	req = httptest.NewRequest(http.MethodPost, "/api/tickets/"+created.ID+"/status", strings.NewReader(body))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for an illegal transition, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/tickets?email=jane@example.com", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 listing tickets, got %d", rec.Code)
	}
	var list struct {
		Count   int              `json:"count"`
		Tickets []tickets.Ticket `json:"tickets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("Expected a ticket list, got error %v", err)
	}
	if list.Count != 1 || len(list.Tickets) != 1 {
		t.Fatalf("Expected one ticket for the customer, got %d", list.Count)
	}
}

func TestSessionEndpoint(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	body := `{"message": "hello there", "sessionId": "api-sess"}`
	req := httptest.NewRequest(http.MethodPost, "/api/turn", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for the turn, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/api-sess", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for a known session, got %d", rec.Code)
	}

	// Reading an unknown session must not mint one.
	req = httptest.NewRequest(http.MethodGet, "/api/sessions/never-seen", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for an unknown session, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), types.ErrorCodeSessionNotFound) {
		t.Fatalf("Expected the %s code in the body, got %s", types.ErrorCodeSessionNotFound, rec.Body.String())
	}
}

func TestTicketNotFound(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/tickets/TKT-DOESNOTEXIST", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for an unknown ticket, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer()
	s.AddServiceCheck("llm", func() types.ServiceStatus {
		return types.ServiceStatus{Name: "llm", Status: types.StatusDown, Error: "circuit open"}
	})
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp types.HealthCheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected a health response, got error %v", err)
	}
	if resp.Status != types.StatusDegraded {
		t.Fatalf("Expected degraded health with a down collaborator, got %s", resp.Status)
	}
	if _, ok := resp.Services["llm"]; !ok {
		t.Fatal("Expected the llm service to appear in the health report")
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer()
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/turn", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("Expected CORS headers on the preflight response")
	}
}
