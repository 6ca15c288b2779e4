// Package conversation holds per-session dialogue state: message history,
// the active handler lock, pending actions and details collected across
// turns. Sessions are fully isolated from each other.
package conversation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/helpdeskhq/support-router/classify"
)

// State describes the coarse topic of a conversation.
type State string

const (
	StateStarting     State = "starting"
	StateOrderInquiry State = "order_inquiry"
	StateComplaint    State = "complaint"
	StateAccountIssue State = "account_issue"
	StateGeneral      State = "general"
	StateEscalation   State = "escalation"
)

// Message is a single turn in the conversation.
type Message struct {
	Role       string            `json:"role"` // "user" or "assistant"
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	Intent     string            `json:"intent,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Entities   []classify.Entity `json:"entities,omitempty"`
}

// Context carries all state for one session. It is not safe for concurrent
// use on its own; the Manager serializes access.
type Context struct {
	SessionID        string            `json:"sessionId"`
	Messages         []Message         `json:"messages"`
	CurrentState     State             `json:"currentState"`
	CurrentHandler   string            `json:"currentHandler,omitempty"`
	HandlerState     map[string]string `json:"handlerState,omitempty"`
	PendingAction    string            `json:"pendingAction,omitempty"`
	CollectedDetails map[string]string `json:"collectedDetails,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	LastActivity     time.Time         `json:"lastActivity"`
}

func newContext(sessionID string) *Context {
	now := time.Now()
	return &Context{
		SessionID:        sessionID,
		CurrentState:     StateStarting,
		HandlerState:     make(map[string]string),
		CollectedDetails: make(map[string]string),
		CreatedAt:        now,
		LastActivity:     now,
	}
}

// addMessage appends a message and refreshes the topic state from user turns.
func (c *Context) addMessage(m Message) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	c.Messages = append(c.Messages, m)
	c.LastActivity = time.Now()

	if m.Role == "user" {
		c.updateStateFromIntent(classify.Intent(m.Intent))
	}
}

func (c *Context) updateStateFromIntent(intent classify.Intent) {
	switch {
	case classify.IsOrderIntent(intent):
		c.CurrentState = StateOrderInquiry
	case intent == classify.IntentComplaint:
		c.CurrentState = StateComplaint
	case intent == classify.IntentAccountIssue:
		c.CurrentState = StateAccountIssue
	case intent == classify.IntentEscalationRequest:
		c.CurrentState = StateEscalation
	default:
		c.CurrentState = StateGeneral
	}
}

// RecentMessages returns up to limit of the latest messages.
func (c *Context) RecentMessages(limit int) []Message {
	if len(c.Messages) <= limit {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-limit:]
}

// LastOrderReference returns the canonical order number mentioned most
// recently. History is scanned newest-first so a correction in a later turn
// wins over a detail collected earlier; the collected detail only covers
// sessions restored without entity annotations.
func (c *Context) LastOrderReference() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role != "user" {
			continue
		}
		if ref := classify.FirstOrderNumber(c.Messages[i].Entities); ref != "" {
			return ref
		}
	}
	return c.CollectedDetails["order_number"]
}

// Summary returns a short description of the conversation so far.
func (c *Context) Summary() string {
	if len(c.Messages) == 0 {
		return "New conversation started."
	}

	userCount := 0
	seen := map[string]bool{}
	var intents []string
	for _, m := range c.Messages {
		if m.Role != "user" {
			continue
		}
		userCount++
		if m.Intent != "" && !seen[m.Intent] {
			seen[m.Intent] = true
			intents = append(intents, m.Intent)
		}
	}
	sort.Strings(intents)

	summary := fmt.Sprintf("Conversation with %d user messages.", userCount)
	if len(intents) > 0 {
		summary += " Topics discussed: " + strings.Join(intents, ", ")
	}
	return summary
}

// ShouldAskFollowup reports whether the last exchange left an obvious gap:
// an order topic without an order number, an in-flight return or complaint,
// or a very short assistant reply.
func (c *Context) ShouldAskFollowup() bool {
	if len(c.Messages) < 2 {
		return false
	}

	var lastUser, lastAssistant *Message
	for i := len(c.Messages) - 1; i >= 0; i-- {
		m := &c.Messages[i]
		if m.Role == "user" && lastUser == nil {
			lastUser = m
		}
		if m.Role == "assistant" && lastAssistant == nil {
			lastAssistant = m
		}
		if lastUser != nil && lastAssistant != nil {
			break
		}
	}
	if lastUser == nil || lastAssistant == nil {
		return false
	}

	switch c.CurrentState {
	case StateOrderInquiry:
		if classify.FirstOrderNumber(lastUser.Entities) == "" {
			return true
		}
	case StateComplaint:
		return true
	}

	return len(strings.Fields(lastAssistant.Content)) < 20
}

// FollowupQuestion returns a canned follow-up matching the current state,
// or "" when none applies.
func (c *Context) FollowupQuestion() string {
	switch c.CurrentState {
	case StateOrderInquiry:
		var lastOrderIntent classify.Intent
		for i := len(c.Messages) - 1; i >= 0; i-- {
			m := c.Messages[i]
			if m.Role == "user" && classify.IsOrderIntent(classify.Intent(m.Intent)) {
				lastOrderIntent = classify.Intent(m.Intent)
				break
			}
		}

		if c.LastOrderReference() == "" {
			if lastOrderIntent == classify.IntentOrderReturn {
				return "Could you please provide your order number so I can help you start the return process?"
			}
			return "Could you please provide your order number so I can look up the details for you?"
		}
		switch lastOrderIntent {
		case classify.IntentOrderStatus:
			return "Would you like me to check the tracking information for your order?"
		case classify.IntentOrderReturn:
			return "To help you start the return process, could you tell me why you're returning the item?"
		}

	case StateComplaint:
		return "I'm sorry to hear you're experiencing issues. Could you provide more details about what happened?"

	case StateAccountIssue:
		return "To better assist with your account issue, could you tell me what specific problem you're experiencing?"
	}

	return ""
}
