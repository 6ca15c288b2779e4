// Package orders implements the order handler: status and tracking answers
// plus a short multi-turn return flow backed by the order database
// collaborator.
package orders

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
	"github.com/helpdeskhq/support-router/orderstore"
	"github.com/helpdeskhq/support-router/types"
)

// Pending actions owned by this handler.
const (
	ActionAwaitOrderNumber  = "waiting_for_order_number"
	ActionAwaitReturnReason = "waiting_for_return_reason"
)

// Handler state keys.
const (
	stateOrderIntent = "order_intent"
	stateReturnStage = "return_stage"
	stateReturnOrder = "return_order"
)

// Return flow stages.
const returnOrderProvided = "order_provided"

// Agent answers order questions and drives the return flow.
type Agent struct {
	sessions *conversation.Manager
	lookup   orderstore.Lookuper
}

// NewAgent creates the order handler.
func NewAgent(sessions *conversation.Manager, lookup orderstore.Lookuper) *Agent {
	return &Agent{sessions: sessions, lookup: lookup}
}

// Name implements agents.Handler.
func (a *Agent) Name() string { return agents.NameOrders }

// CanHandle implements agents.Handler: order intents or any order reference.
func (a *Agent) CanHandle(req *agents.Request) bool {
	return classify.IsOrderIntent(req.Intent) || req.OrderRef != ""
}

// Process implements agents.Handler.
func (a *Agent) Process(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	// A pending action we own means the message answers our last question.
	if req.Context.CurrentHandler == a.Name() {
		switch req.Context.PendingAction {
		case ActionAwaitOrderNumber:
			return a.resumeWithOrderNumber(ctx, req)
		case ActionAwaitReturnReason:
			return a.completeReturn(req)
		}
	}

	switch req.Intent {
	case classify.IntentOrderReturn:
		return a.startReturn(req)
	case classify.IntentOrderRefund:
		return a.refundStatus(ctx, req)
	default:
		return a.orderStatus(ctx, req)
	}
}

// orderStatus answers status/tracking/inquiry questions, asking for the
// order number when the session has none.
func (a *Agent) orderStatus(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	if req.OrderRef == "" {
		a.await(req.SessionID, ActionAwaitOrderNumber, string(req.Intent))
		return &agents.Response{
			Text: "Could you please provide your order number so I can look up the details for you?",
		}, nil
	}

	res, err := a.lookup.Lookup(ctx, req.OrderRef)
	if err != nil {
		log.Printf("[orders] lookup failed for %s: %v", req.OrderRef, err)
		return &agents.Response{
			Text: "I couldn't reach our order system just now. Please try again in a moment.",
		}, nil
	}
	if !res.Found {
		log.Printf("[orders] session=%s: %v", req.SessionID,
			types.NewCollaboratorError(types.ErrorCodeOrderNotFound, res.Message, "orderstore"))
		a.sessions.ClearActiveHandler(req.SessionID)
		return &agents.Response{
			Text: fmt.Sprintf("I couldn't find order %s. Could you double-check the number?", req.OrderRef),
		}, nil
	}

	a.sessions.CollectDetail(req.SessionID, "order_number", res.Order.OrderNumber)
	a.sessions.ClearActiveHandler(req.SessionID)

	text := fmt.Sprintf("Order %s (%s): %s", res.Order.OrderNumber, res.Order.ItemSummary,
		orderstore.StatusDescription(res.Order))
	if res.Order.TrackingNumber != "" && res.Order.Status == orderstore.StatusShipped {
		text += fmt.Sprintf(" Tracking number: %s.", res.Order.TrackingNumber)
	}
	return &agents.Response{Text: text}, nil
}

// startReturn opens the return flow, asking for whichever detail is missing.
func (a *Agent) startReturn(req *agents.Request) (*agents.Response, error) {
	if req.OrderRef == "" {
		a.await(req.SessionID, ActionAwaitOrderNumber, string(classify.IntentOrderReturn))
		return &agents.Response{
			Text: "Could you please provide your order number so I can help you start the return process?",
		}, nil
	}

	a.sessions.SetActiveHandler(req.SessionID, a.Name())
	a.sessions.SetPendingAction(req.SessionID, ActionAwaitReturnReason)
	a.sessions.SetHandlerState(req.SessionID, stateReturnStage, returnOrderProvided)
	a.sessions.SetHandlerState(req.SessionID, stateReturnOrder, req.OrderRef)
	a.sessions.CollectDetail(req.SessionID, "order_number", req.OrderRef)

	return &agents.Response{
		Text: fmt.Sprintf("To help you return order %s, could you tell me why you're returning the item?", req.OrderRef),
	}, nil
}

// resumeWithOrderNumber continues whatever flow asked for an order number.
func (a *Agent) resumeWithOrderNumber(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	if req.OrderRef == "" {
		return &agents.Response{
			Text: "That doesn't look like an order number. It should look like ORD-2024-001.",
		}, nil
	}

	intent := classify.Intent(req.Context.HandlerState[stateOrderIntent])
	resumed := *req
	resumed.Intent = intent
	resumed.Context.PendingAction = ""
	resumed.Context.CurrentHandler = ""

	if intent == classify.IntentOrderReturn {
		return a.startReturn(&resumed)
	}
	return a.orderStatus(ctx, &resumed)
}

// completeReturn records the return reason and closes the flow.
func (a *Agent) completeReturn(req *agents.Request) (*agents.Response, error) {
	order := req.Context.HandlerState[stateReturnOrder]
	reason := strings.TrimSpace(req.Text)
	if reason == "" {
		return &agents.Response{
			Text: "Could you tell me briefly why you're returning the item?",
		}, nil
	}

	a.sessions.CollectDetail(req.SessionID, "return_reason", reason)
	a.sessions.ClearActiveHandler(req.SessionID)

	log.Printf("[orders] return accepted session=%s order=%s", req.SessionID, order)
	return &agents.Response{
		Text: fmt.Sprintf("Your return for order %s is underway. We've emailed you a prepaid return label; refunds are issued within 5-7 business days of us receiving the item.", order),
	}, nil
}

// refundStatus reports refund state for an order.
func (a *Agent) refundStatus(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	if req.OrderRef == "" {
		a.await(req.SessionID, ActionAwaitOrderNumber, string(classify.IntentOrderRefund))
		return &agents.Response{
			Text: "Could you please provide your order number so I can check the refund status?",
		}, nil
	}

	res, err := a.lookup.Lookup(ctx, req.OrderRef)
	if err != nil || !res.Found {
		if err == nil {
			log.Printf("[orders] session=%s: %v", req.SessionID,
				types.NewCollaboratorError(types.ErrorCodeOrderNotFound, res.Message, "orderstore"))
		}
		a.sessions.ClearActiveHandler(req.SessionID)
		return &agents.Response{
			Text: fmt.Sprintf("I couldn't find order %s to check a refund. Could you double-check the number?", req.OrderRef),
		}, nil
	}

	a.sessions.ClearActiveHandler(req.SessionID)
	switch res.Order.Status {
	case orderstore.StatusRefunded:
		return &agents.Response{
			Text: fmt.Sprintf("The refund for order %s has been processed. It can take 5-7 business days to appear on your statement.", res.Order.OrderNumber),
		}, nil
	case orderstore.StatusReturned:
		return &agents.Response{
			Text: fmt.Sprintf("We've received the return for order %s. Your refund is being processed and should arrive within 5-7 business days.", res.Order.OrderNumber),
		}, nil
	default:
		return &agents.Response{
			Text: fmt.Sprintf("Order %s is currently %s, so no refund is in progress yet. Would you like to start a return?", res.Order.OrderNumber, res.Order.Status),
		}, nil
	}
}

// await locks the conversation onto this handler pending an order number.
func (a *Agent) await(sessionID, action, intent string) {
	a.sessions.SetActiveHandler(sessionID, a.Name())
	a.sessions.SetPendingAction(sessionID, action)
	a.sessions.SetHandlerState(sessionID, stateOrderIntent, intent)
}
