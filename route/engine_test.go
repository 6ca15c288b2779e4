package route

import (
	"context"
	"errors"
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
	"github.com/helpdeskhq/support-router/tickets"
)

func newTestEngine(classifier classify.Classifier) (*Engine, *tickets.Manager) {
	sessions := conversation.NewManager(nil)
	ticketMgr := tickets.NewManager(nil)
	store := orderstore.New(orderstore.SeedOrders())

	esc := escalation.NewAgent(sessions, ticketMgr, nil)
	ord := orders.NewAgent(sessions, store)
	faqAgent := faq.NewAgent(kb.New(kb.SeedFAQs()))

	return NewEngine(classifier, sessions, ticketMgr, esc, ord, faqAgent), ticketMgr
}

func TestEscalationOverridesOrderRouting(t *testing.T) {
	e, _ := newTestEngine(classify.NewRuleClassifier())

	resp, err := e.ProcessTurn(context.Background(), "s1", "This is urgent! My order ORD-2024-001 arrived damaged.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Handler != agents.NameEscalation {
		t.Fatalf("Expected %s despite the order reference, got %s", agents.NameEscalation, resp.Handler)
	}
	if !resp.NeedsEscalation {
		t.Fatal("Expected NeedsEscalation to be set")
	}
}

func TestActiveFlowLockAcrossTurns(t *testing.T) {
	e, _ := newTestEngine(classify.NewRuleClassifier())
	sid := "s2"

	resp, err := e.ProcessTurn(context.Background(), sid, "where is my order?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Handler != agents.NameOrders {
		t.Fatalf("Expected the order handler, got %s", resp.Handler)
	}
	if !strings.Contains(strings.ToLower(resp.Response), "order number") {
		t.Fatalf("Expected a request for the order number, got %q", resp.Response)
	}

	// A policy question mid-flow stays with the handler that asked.
	resp, err = e.ProcessTurn(context.Background(), sid, "what is your return policy?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Handler != agents.NameOrders {
		t.Fatalf("Expected the lock to hold, got %s", resp.Handler)
	}
	if len(resp.RoutingPath) != 3 || resp.RoutingPath[1] != ReasonActiveFlow {
		t.Fatalf("Expected active_flow in the routing path, got %v", resp.RoutingPath)
	}
}

func TestOrderMemoryAcrossTurns(t *testing.T) {
	e, _ := newTestEngine(classify.NewRuleClassifier())
	sid := "s3"

	resp, err := e.ProcessTurn(context.Background(), sid, "where is my order ORD-2024-001?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(resp.Response, "ORD-2024-001") {
		t.Fatalf("Expected a status answer, got %q", resp.Response)
	}

	// The follow-up return refers to the remembered order.
	resp, err = e.ProcessTurn(context.Background(), sid, "I want to return it")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.Handler != agents.NameOrders {
		t.Fatalf("Expected the order handler, got %s", resp.Handler)
	}
	if !strings.Contains(resp.Response, "ORD-2024-001") {
		t.Fatalf("Expected the remembered order in the return flow, got %q", resp.Response)
	}
}

func TestSessionIsolation(t *testing.T) {
	e, _ := newTestEngine(classify.NewRuleClassifier())

	if _, err := e.ProcessTurn(context.Background(), "iso-a", "where is my order ORD-2024-001?"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	resp, err := e.ProcessTurn(context.Background(), "iso-b", "where is my order?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(strings.ToLower(resp.Response), "order number") {
		t.Fatalf("Expected a fresh session to know nothing, got %q", resp.Response)
	}
}

func TestEscalationDialogueEndToEnd(t *testing.T) {
	e, ticketMgr := newTestEngine(classify.NewRuleClassifier())
	sid := "s4"
	ctx := context.Background()

	if _, err := e.ProcessTurn(ctx, sid, "My blender arrived broken and I'm really frustrated"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := e.ProcessTurn(ctx, sid, "you can reach me at jane@example.com"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	resp, err := e.ProcessTurn(ctx, sid, "it was order ORD-2024-003")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if resp.TicketID == "" || !strings.HasPrefix(resp.TicketID, "TKT-") {
		t.Fatalf("Expected a ticket ID, got %q (response %q)", resp.TicketID, resp.Response)
	}
	if !strings.Contains(resp.Response, resp.TicketID) {
		t.Fatalf("Expected the ticket ID in the response, got %q", resp.Response)
	}

	// The announcement only informs the customer; the ticket itself waits
	// for the support team.
	ticket, err := ticketMgr.Get(resp.TicketID)
	if err != nil {
		t.Fatalf("Expected the ticket to exist, got %v", err)
	}
	if ticket.Status != tickets.StatusOpen {
		t.Fatalf("Expected the new ticket to stay open, got %s", ticket.Status)
	}

	view := e.Sessions().View(sid)
	if view.CurrentHandler != "" || view.PendingAction != "" {
		t.Fatalf("Expected cleared lock, got handler=%q pending=%q", view.CurrentHandler, view.PendingAction)
	}
}

// brokenLLM simulates an unreachable model endpoint.
type brokenLLM struct{}

func (brokenLLM) Chat(context.Context, string, string) (string, error) {
	return "", errors.New("dial tcp: connection timed out")
}

func TestModelOutageFallsBackToRules(t *testing.T) {
	e, _ := newTestEngine(classify.NewModelAssisted(brokenLLM{}))

	resp, err := e.ProcessTurn(context.Background(), "s5", "where is my order ORD-2024-002?")
	if err != nil {
		t.Fatalf("Expected no error during a model outage, got %v", err)
	}
	if !classify.KnownIntent(resp.Intent) {
		t.Fatalf("Expected a valid intent from the rule path, got %q", resp.Intent)
	}
	if resp.Handler != agents.NameOrders {
		t.Fatalf("Expected order routing from the rule path, got %s", resp.Handler)
	}
	if !strings.Contains(resp.Response, "ORD-2024-002") {
		t.Fatalf("Expected a working answer, got %q", resp.Response)
	}
}

func TestRejectsEmptyInput(t *testing.T) {
	e, _ := newTestEngine(classify.NewRuleClassifier())

	if _, err := e.ProcessTurn(context.Background(), "s6", "   "); err == nil {
		t.Fatal("Expected an error for an empty message")
	}
	if _, err := e.ProcessTurn(context.Background(), "", "hello"); err == nil {
		t.Fatal("Expected an error for an empty session id")
	}
}
