package route

import (
	"testing"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
)

func freshContext() *conversation.Context {
	return &conversation.Context{
		SessionID:        "test",
		CurrentState:     conversation.StateStarting,
		HandlerState:     map[string]string{},
		CollectedDetails: map[string]string{},
	}
}

func TestEscalationBeatsOrderReference(t *testing.T) {
	p := NewPolicy()
	text := "This is urgent, my order ORD-2024-001 arrived damaged"
	entities := classify.Extract(text)

	d := p.Decide(text, classify.IntentComplaint, entities, freshContext())
	if d.Handler != agents.NameEscalation {
		t.Fatalf("Expected %s despite the order reference, got %s", agents.NameEscalation, d.Handler)
	}
	if d.Reason != ReasonEscalation {
		t.Fatalf("Expected reason %s, got %s", ReasonEscalation, d.Reason)
	}
	if d.EscalationLevel != LevelHigh {
		t.Fatalf("Expected high level for a damaged item, got %s", d.EscalationLevel)
	}
	if d.OrderRef != "ORD-2024-001" {
		t.Fatalf("Expected the order reference to be carried along, got %q", d.OrderRef)
	}
}

func TestEscalationKeywordWithoutComplaintIntent(t *testing.T) {
	p := NewPolicy()
	d := p.Decide("just get me a human please", classify.IntentGeneralChat, nil, freshContext())
	if d.Handler != agents.NameEscalation {
		t.Fatalf("Expected keyword escalation, got %s", d.Handler)
	}
	if d.EscalationLevel != LevelNormal {
		t.Fatalf("Expected normal level, got %s", d.EscalationLevel)
	}
}

func TestConfiguredEscalationKeyword(t *testing.T) {
	p := NewPolicy()
	p.AddEscalationKeywords("ombudsman")

	d := p.Decide("I will contact the ombudsman about this", classify.IntentGeneralChat, nil, freshContext())
	if d.Handler != agents.NameEscalation {
		t.Fatalf("Expected escalation on a configured keyword, got %s", d.Handler)
	}
}

func TestActiveFlowLockWinsOverIntent(t *testing.T) {
	p := NewPolicy()
	sctx := freshContext()
	sctx.CurrentHandler = agents.NameOrders
	sctx.PendingAction = "waiting_for_order_number"

	d := p.Decide("what is your return policy?", classify.IntentFAQ, nil, sctx)
	if d.Handler != agents.NameOrders {
		t.Fatalf("Expected the locked handler, got %s", d.Handler)
	}
	if d.Reason != ReasonActiveFlow {
		t.Fatalf("Expected reason %s, got %s", ReasonActiveFlow, d.Reason)
	}
}

func TestActiveFlowNeedsPendingAction(t *testing.T) {
	p := NewPolicy()
	sctx := freshContext()
	sctx.CurrentHandler = agents.NameOrders
	// No pending action: the lock does not hold.

	d := p.Decide("hello there", classify.IntentGeneralChat, nil, sctx)
	if d.Reason == ReasonActiveFlow {
		t.Fatal("Expected no active-flow lock without a pending action")
	}
}

func TestTopicContinuityKeepsOrderHandler(t *testing.T) {
	p := NewPolicy()
	sctx := freshContext()
	sctx.CurrentState = conversation.StateOrderInquiry
	sctx.CollectedDetails["order_number"] = "ORD-2024-002"

	d := p.Decide("has it shipped yet?", classify.IntentFAQ, nil, sctx)
	if d.Handler != agents.NameOrders {
		t.Fatalf("Expected continuity with the order handler, got %s", d.Handler)
	}
	if d.Reason != ReasonTopicContinuity {
		t.Fatalf("Expected reason %s, got %s", ReasonTopicContinuity, d.Reason)
	}
	if d.OrderRef != "ORD-2024-002" {
		t.Fatalf("Expected remembered order reference, got %q", d.OrderRef)
	}
}

func TestTopicSwitchBreaksContinuity(t *testing.T) {
	p := NewPolicy()
	sctx := freshContext()
	sctx.CurrentState = conversation.StateOrderInquiry
	sctx.CollectedDetails["order_number"] = "ORD-2024-002"

	d := p.Decide("I can't log into my account", classify.IntentAccountIssue, nil, sctx)
	if d.Handler != agents.NameFAQ {
		t.Fatalf("Expected the default handler after a topic switch, got %s", d.Handler)
	}
}

func TestFreshOrderRouting(t *testing.T) {
	p := NewPolicy()
	d := p.Decide("where is my order?", classify.IntentOrderStatus, nil, freshContext())
	if d.Handler != agents.NameOrders {
		t.Fatalf("Expected order routing for an order intent, got %s", d.Handler)
	}
	if d.Reason != ReasonIntentRoute {
		t.Fatalf("Expected reason %s, got %s", ReasonIntentRoute, d.Reason)
	}

	// A bare order reference routes to the order handler too.
	text := "ORD-2024-001"
	d = p.Decide(text, classify.IntentGeneralChat, classify.Extract(text), freshContext())
	if d.Handler != agents.NameOrders {
		t.Fatalf("Expected order routing for a bare reference, got %s", d.Handler)
	}
}

func TestDefaultRouting(t *testing.T) {
	p := NewPolicy()
	d := p.Decide("hello!", classify.IntentGeneralChat, nil, freshContext())
	if d.Handler != agents.NameFAQ {
		t.Fatalf("Expected the FAQ handler by default, got %s", d.Handler)
	}
	if d.Reason != ReasonDefault {
		t.Fatalf("Expected reason %s, got %s", ReasonDefault, d.Reason)
	}
}
