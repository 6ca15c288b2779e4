// Package route contains the routing policy and the turn-processing engine.
// The policy is a strict precedence ladder; the engine wires classification,
// session state, handlers and ticket bookkeeping into one ProcessTurn call.
package route

import (
	"strings"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
)

// Routing reasons, in decision order.
const (
	ReasonActiveFlow      = "active_flow"
	ReasonEscalation      = "escalation"
	ReasonTopicContinuity = "topic_continuity"
	ReasonIntentRoute     = "intent_route"
	ReasonDefault         = "default"
)

// Escalation levels.
const (
	LevelNormal = "normal"
	LevelHigh   = "high"
)

// Decision is the routing outcome for one turn.
type Decision struct {
	Handler         string
	Reason          string
	EscalationLevel string
	// OrderRef is the order reference resolved for this turn: current
	// message first, session memory second.
	OrderRef string
}

// escalationKeywords force the escalation handler regardless of intent.
var escalationKeywords = []string{
	"urgent", "emergency", "asap", "immediately", "angry", "frustrated",
	"complaint", "damaged", "broken", "defective", "manager", "supervisor",
	"human",
}

// highSeverityKeywords raise the escalation level.
var highSeverityKeywords = []string{"damaged", "broken", "urgent", "critical"}

// topicSwitchIntents break order-topic continuity.
var topicSwitchIntents = map[classify.Intent]bool{
	classify.IntentAccountIssue:     true,
	classify.IntentProductInfo:      true,
	classify.IntentTechnicalSupport: true,
	classify.IntentBillingPayment:   true,
}

// Policy holds the keyword lists the precedence ladder consults. The zero
// value is unusable; NewPolicy loads the defaults.
type Policy struct {
	escalationKeywords []string
	highSeverity       []string
}

// NewPolicy returns a policy with the built-in trigger keywords.
func NewPolicy() *Policy {
	return &Policy{
		escalationKeywords: append([]string(nil), escalationKeywords...),
		highSeverity:       append([]string(nil), highSeverityKeywords...),
	}
}

// AddEscalationKeywords extends the escalation triggers, typically from the
// config file.
func (p *Policy) AddEscalationKeywords(kws ...string) {
	for _, kw := range kws {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			p.escalationKeywords = append(p.escalationKeywords, kw)
		}
	}
}

// AddHighSeverityKeywords extends the high-severity triggers.
func (p *Policy) AddHighSeverityKeywords(kws ...string) {
	for _, kw := range kws {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			p.highSeverity = append(p.highSeverity, kw)
		}
	}
}

// Decide applies the routing precedence:
//
//  1. Active-flow lock: a handler waiting on an answer keeps the turn.
//  2. Escalation override: complaint-family intents or escalation keywords.
//  3. Topic continuity: an order conversation keeps order-flavored turns.
//  4. Fresh routing by intent, defaulting to the FAQ handler.
func (p *Policy) Decide(text string, intent classify.Intent, entities []classify.Entity, sctx *conversation.Context) Decision {
	lower := strings.ToLower(text)
	orderRef := classify.FirstOrderNumber(entities)
	remembered := sctx.LastOrderReference()
	if orderRef == "" {
		orderRef = remembered
	}

	// 1. Active-flow lock. Both the handler and a pending action must be
	// set; the new message's intent is irrelevant while a question is open.
	if sctx.CurrentHandler != "" && sctx.PendingAction != "" {
		return Decision{
			Handler:  sctx.CurrentHandler,
			Reason:   ReasonActiveFlow,
			OrderRef: orderRef,
		}
	}

	// 2. Escalation override. Wins over order routing even when the same
	// message carries an order reference.
	if intent == classify.IntentComplaint ||
		intent == classify.IntentEscalationRequest ||
		intent == classify.IntentTicketRequest ||
		containsAny(lower, p.escalationKeywords) {
		level := LevelNormal
		if containsAny(lower, p.highSeverity) {
			level = LevelHigh
		}
		return Decision{
			Handler:         agents.NameEscalation,
			Reason:          ReasonEscalation,
			EscalationLevel: level,
			OrderRef:        orderRef,
		}
	}

	// 3. Topic continuity: an ongoing order conversation holds onto turns
	// that don't clearly switch topic.
	if sctx.CurrentState == conversation.StateOrderInquiry && remembered != "" &&
		!topicSwitchIntents[intent] && intent != classify.IntentGeneralChat {
		return Decision{
			Handler:  agents.NameOrders,
			Reason:   ReasonTopicContinuity,
			OrderRef: orderRef,
		}
	}

	// 4. Fresh routing.
	if classify.IsOrderIntent(intent) || classify.FirstOrderNumber(entities) != "" {
		return Decision{
			Handler:  agents.NameOrders,
			Reason:   ReasonIntentRoute,
			OrderRef: orderRef,
		}
	}

	return Decision{
		Handler:  agents.NameFAQ,
		Reason:   ReasonDefault,
		OrderRef: orderRef,
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
