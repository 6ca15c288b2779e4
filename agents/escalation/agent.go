// Package escalation implements the multi-turn escalation handler: a
// slot-filling state machine that collects the issue, a contact email and an
// optional order number, then opens a support ticket.
package escalation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/conversation"
	"github.com/helpdeskhq/support-router/llm"
	"github.com/helpdeskhq/support-router/tickets"
)

// Agent drives escalation conversations to a created ticket.
type Agent struct {
	sessions *conversation.Manager
	tickets  *tickets.Manager
	client   llm.Client
	flows    *flowStore
}

// NewAgent creates the escalation handler. client may be nil; all phrasing
// has deterministic fallbacks.
func NewAgent(sessions *conversation.Manager, ticketMgr *tickets.Manager, client llm.Client) *Agent {
	return &Agent{
		sessions: sessions,
		tickets:  ticketMgr,
		client:   client,
		flows:    newFlowStore(),
	}
}

// Name implements agents.Handler.
func (a *Agent) Name() string { return agents.NameEscalation }

// CanHandle implements agents.Handler. Escalation accepts any turn; the
// routing policy decides when it is the target.
func (a *Agent) CanHandle(*agents.Request) bool { return true }

// Active reports whether the session has an escalation in flight. The engine
// bypasses routing for such sessions.
func (a *Agent) Active(sessionID string) bool { return a.flows.active(sessionID) }

// Process implements agents.Handler.
func (a *Agent) Process(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	f, ok := a.flows.get(req.SessionID)
	if !ok {
		f = a.startFlow(req)
	} else {
		a.consumeAnswer(f, req.Text)
	}

	stage, complete := computeMissing(f.Slots)
	if !complete {
		f.Stage = stage
		a.flows.put(req.SessionID, f)
		a.rememberSlots(req.SessionID, f.Slots)
		a.sessions.SetActiveHandler(req.SessionID, a.Name())
		a.sessions.SetPendingAction(req.SessionID, stage.String())
		return &agents.Response{Text: a.question(ctx, stage, f.Slots, req.Text)}, nil
	}

	return a.finish(ctx, req.SessionID, f.Slots)
}

// startFlow opens a new escalation, pre-filling slots from everything the
// session already knows: collected details, recent history, this message.
func (a *Agent) startFlow(req *agents.Request) *flow {
	s := prefillFromDetails(req.Context.CollectedDetails)
	s = mergeSlots(s, prefillFromHistory(req.Context.RecentMessages(10)))
	s = mergeSlots(s, extractSlots(req.Text))
	if s.Order == "" && req.OrderRef != "" {
		s.Order = req.OrderRef
	}
	return &flow{Slots: s, Stage: StageReason}
}

// consumeAnswer folds the user's reply into the slot the flow is waiting on.
func (a *Agent) consumeAnswer(f *flow, text string) {
	extracted := extractSlots(text)
	f.Slots = mergeSlots(f.Slots, extracted)

	switch f.Stage {
	case StageReason:
		// Any substantive answer to "what happened" is the reason, with or
		// without complaint keywords.
		if strings.TrimSpace(f.Slots.Reason) == "" && strings.TrimSpace(text) != "" {
			f.Slots.Reason = strings.TrimSpace(text)
		}
	case StageOrder:
		if f.Slots.Order != "" {
			break
		}
		if isOrderSkip(text) {
			f.Slots.OrderSkipped = true
			break
		}
		// The order slot is optional; any answer that is not an order
		// number ends the stage rather than re-asking.
		f.Slots.OrderSkipped = true
	}
}

func (a *Agent) question(ctx context.Context, stage Stage, s slots, userText string) string {
	switch stage {
	case StageReason:
		return "I'm sorry you're having trouble. Could you briefly describe the issue so I can escalate it to our support team?"
	case StageEmail:
		if s.Reason != "" {
			suffix := ""
			if s.Order != "" {
				suffix = fmt.Sprintf(" I have your order %s on file.", s.Order)
			}
			issue := s.Reason
			if len(issue) > 80 {
				issue = issue[:80] + "..."
			}
			return fmt.Sprintf("Thanks, I've noted the issue: %q.%s What email address should our team use to follow up?", issue, suffix)
		}
		return llm.GenerateSlotPrompt(ctx, a.client, []string{"email address"}, userText)
	case StageOrder:
		return "Is there an order number related to this issue? If not, just say \"no order\"."
	}
	return ""
}

// finish creates the ticket and releases the conversation lock. Clearing the
// flow, the active handler and the pending action happens together.
func (a *Agent) finish(ctx context.Context, sessionID string, s slots) (*agents.Response, error) {
	subject := llm.GenerateTicketSummary(ctx, a.client, s.Reason, s.Order)
	t := a.tickets.Create(ctx, subject, s.Reason, s.Email, s.Order)

	a.rememberSlots(sessionID, s)
	a.flows.del(sessionID)
	a.sessions.ClearActiveHandler(sessionID)

	log.Printf("[escalation] session=%s ticket=%s priority=%s", sessionID, t.ID, t.Priority)

	text := fmt.Sprintf(
		"I've escalated this to our support team. Ticket ID: %s (priority %s). You'll get an update at %s.",
		t.ID, t.Priority, s.Email)
	return &agents.Response{Text: text, TicketID: t.ID}, nil
}

// rememberSlots mirrors collected slots into the session details so other
// handlers (and later escalations) can reuse them.
func (a *Agent) rememberSlots(sessionID string, s slots) {
	if s.Reason != "" {
		a.sessions.CollectDetail(sessionID, "escalation_reason", s.Reason)
	}
	if s.Email != "" {
		a.sessions.CollectDetail(sessionID, "email", s.Email)
	}
	if s.Order != "" {
		a.sessions.CollectDetail(sessionID, "order_number", s.Order)
	}
}

// HistoryResult is the outcome of the non-interactive escalation path.
type HistoryResult struct {
	TicketID   string
	NeedsEmail bool
	Missing    []string
	Response   string
}

// FromHistory collects escalation details out of a finished conversation
// without asking questions. When no email is on record it reports what is
// missing instead of creating a ticket.
func (a *Agent) FromHistory(ctx context.Context, sessionID string, msgs []conversation.Message) (*HistoryResult, error) {
	s := prefillFromDetails(a.sessions.CollectedDetails(sessionID))
	s = mergeSlots(s, prefillFromHistory(msgs))

	if strings.TrimSpace(s.Email) == "" {
		missing := []string{"email address"}
		if strings.TrimSpace(s.Reason) == "" {
			missing = append(missing, "issue description")
		}
		return &HistoryResult{
			NeedsEmail: true,
			Missing:    missing,
			Response:   llm.GenerateSlotPrompt(ctx, a.client, missing, ""),
		}, nil
	}
	if strings.TrimSpace(s.Reason) == "" {
		s.Reason = "Customer escalation requested"
	}

	subject := llm.GenerateTicketSummary(ctx, a.client, s.Reason, s.Order)
	t := a.tickets.Create(ctx, subject, s.Reason, s.Email, s.Order)
	a.rememberSlots(sessionID, s)

	return &HistoryResult{
		TicketID: t.ID,
		Response: fmt.Sprintf("Ticket ID: %s has been created for your issue.", t.ID),
	}, nil
}
