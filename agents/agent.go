// Package agents defines the closed set of conversation handlers and the
// request/response contract between them and the routing engine.
package agents

import (
	"context"

	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
)

// Handler names form a closed set known to the routing policy.
const (
	NameFAQ        = "faq_agent"
	NameOrders     = "order_handler"
	NameEscalation = "escalation_agent"
)

// Request carries one classified user turn into a handler.
type Request struct {
	SessionID  string
	Text       string
	Intent     classify.Intent
	Confidence float64
	Entities   []classify.Entity
	// OrderRef is the resolved order reference for this turn: the current
	// message's reference when present, otherwise the remembered one.
	OrderRef string
	// Context is a snapshot of the session at the start of the turn.
	Context conversation.Context
}

// Response is a handler's answer for one turn.
type Response struct {
	Text string
	// TicketID is set when the turn produced a support ticket.
	TicketID string
}

// Handler processes turns routed to it. CanHandle is a capability check the
// engine uses as a sanity assertion; the routing policy picks the target.
type Handler interface {
	Name() string
	CanHandle(req *Request) bool
	Process(ctx context.Context, req *Request) (*Response, error)
}
