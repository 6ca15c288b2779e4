package route

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/agents/escalation"
	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
	"github.com/helpdeskhq/support-router/tickets"
	"github.com/helpdeskhq/support-router/types"
)

// LogSink receives routing events for live streaming. Implementations must
// not block.
type LogSink interface {
	BroadcastAgentLog(l *types.AgentLog)
}

// Engine runs one conversation turn end to end: classify, record, route,
// dispatch, record again, persist.
type Engine struct {
	classifier classify.Classifier
	sessions   *conversation.Manager
	tickets    *tickets.Manager
	escalation *escalation.Agent
	handlers   map[string]agents.Handler
	policy     *Policy
	sink       LogSink
}

// NewEngine wires the turn engine. The escalation agent is registered like
// any handler but is also consulted directly for in-flight flows.
func NewEngine(classifier classify.Classifier, sessions *conversation.Manager, ticketMgr *tickets.Manager, esc *escalation.Agent, handlers ...agents.Handler) *Engine {
	e := &Engine{
		classifier: classifier,
		sessions:   sessions,
		tickets:    ticketMgr,
		escalation: esc,
		handlers:   make(map[string]agents.Handler),
		policy:     NewPolicy(),
	}
	e.handlers[esc.Name()] = esc
	for _, h := range handlers {
		e.handlers[h.Name()] = h
	}
	return e
}

// SetLogSink attaches a live log receiver. Pass nil to detach.
func (e *Engine) SetLogSink(sink LogSink) { e.sink = sink }

// Policy returns the routing policy for configuration.
func (e *Engine) Policy() *Policy { return e.policy }

// Sessions exposes the session manager for surfaces that need read access.
func (e *Engine) Sessions() *conversation.Manager { return e.sessions }

// Tickets exposes the ticket manager for surfaces that need read access.
func (e *Engine) Tickets() *tickets.Manager { return e.tickets }

// ProcessTurn handles one user message for a session and returns the reply
// plus routing telemetry. Handler failures degrade to an apologetic reply;
// only invalid input produces an error.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, text string) (*types.TurnResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty message")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("empty session id")
	}
	start := time.Now()

	// Snapshot before recording the new message: routing decisions look at
	// the state the session was in when the message arrived.
	snapshot := e.sessions.View(sessionID)

	result := e.classifier.Classify(ctx, text)
	entities := classify.Extract(text)

	e.sessions.AddMessage(sessionID, conversation.Message{
		Role:       "user",
		Content:    text,
		Intent:     string(result.Intent),
		Confidence: result.Confidence,
		Entities:   entities,
	})

	var logs []types.AgentLog
	logs = append(logs, e.emit(sessionID, types.LogTypeClassify, "classifier", "",
		fmt.Sprintf("intent=%s confidence=%.2f strategy=%s", result.Intent, result.Confidence, result.Validation)))

	var decision Decision
	if e.escalation.Active(sessionID) {
		// An escalation mid-flight owns the session outright, even if the
		// lock in the conversation state was lost.
		decision = Decision{
			Handler:  agents.NameEscalation,
			Reason:   ReasonActiveFlow,
			OrderRef: resolveOrderRef(entities, &snapshot),
		}
	} else {
		decision = e.policy.Decide(text, result.Intent, entities, &snapshot)
	}
	logs = append(logs, e.emit(sessionID, types.LogTypeRouting, "router", decision.Handler,
		fmt.Sprintf("reason=%s order_ref=%q", decision.Reason, decision.OrderRef)))

	handler, ok := e.handlers[decision.Handler]
	if !ok {
		log.Printf("[engine] no handler registered for %q, falling back to %s", decision.Handler, agents.NameFAQ)
		handler = e.handlers[agents.NameFAQ]
		decision.Handler = agents.NameFAQ
	}

	req := &agents.Request{
		SessionID:  sessionID,
		Text:       text,
		Intent:     result.Intent,
		Confidence: result.Confidence,
		Entities:   entities,
		OrderRef:   decision.OrderRef,
		Context:    snapshot,
	}
	if !handler.CanHandle(req) {
		log.Printf("[engine] %s declined session=%s intent=%s, dispatching anyway", handler.Name(), sessionID, result.Intent)
	}

	resp, err := handler.Process(ctx, req)
	out := &types.TurnResponse{
		Intent:          string(result.Intent),
		Confidence:      result.Confidence,
		Entities:        entityPayloads(entities),
		Handler:         decision.Handler,
		RoutingPath:     []string{string(result.Intent), decision.Reason, decision.Handler},
		NeedsEscalation: decision.Handler == agents.NameEscalation,
	}
	if err != nil {
		log.Printf("[engine] handler %s failed session=%s: %v", decision.Handler, sessionID, err)
		logs = append(logs, e.emit(sessionID, types.LogTypeError, decision.Handler, "", err.Error()))
		out.Response = "Something went wrong on our side while handling that. Please try again in a moment."
		out.Error = &types.ErrorDetail{
			Code:        "HANDLER_FAILED",
			Message:     err.Error(),
			Recoverable: true,
		}
	} else {
		out.Response = resp.Text
		out.TicketID = resp.TicketID
	}

	e.sessions.AddMessage(sessionID, conversation.Message{
		Role:    "assistant",
		Content: out.Response,
	})

	// A new ticket stays open for the support team; the turn only announces
	// it to the customer.
	if out.TicketID != "" {
		logs = append(logs, e.emit(sessionID, types.LogTypeTicket, decision.Handler, "",
			fmt.Sprintf("ticket %s created, awaiting support team", out.TicketID)))
	}

	e.sessions.Persist(ctx, sessionID)

	out.Logs = logs
	out.Metadata = &types.ResponseMetadata{
		RequestID:      uuid.NewString(),
		ProcessingTime: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
	return out, nil
}

// emit records a routing event both to the process log and the live sink.
func (e *Engine) emit(sessionID, logType, from, to, content string) types.AgentLog {
	l := types.NewAgentLog(logType, from, content)
	l.To = to
	l.SessionID = sessionID
	if e.sink != nil {
		e.sink.BroadcastAgentLog(l)
	}
	return *l
}

func resolveOrderRef(entities []classify.Entity, sctx *conversation.Context) string {
	if ref := classify.FirstOrderNumber(entities); ref != "" {
		return ref
	}
	return sctx.LastOrderReference()
}

func entityPayloads(entities []classify.Entity) []types.EntityPayload {
	if len(entities) == 0 {
		return nil
	}
	out := make([]types.EntityPayload, 0, len(entities))
	for _, en := range entities {
		out = append(out, types.EntityPayload{
			Type:       string(en.Type),
			Value:      en.Value,
			Canonical:  en.Canonical,
			Confidence: en.Confidence,
		})
	}
	return out
}
