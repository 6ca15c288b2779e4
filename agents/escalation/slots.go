package escalation

import (
	"strings"

	"github.com/helpdeskhq/support-router/classify"
	"github.com/helpdeskhq/support-router/conversation"
)

// Stage of the escalation slot-filling flow. Stages only move forward; the
// flow ends when a ticket is created.
type Stage int

const (
	StageReason Stage = iota
	StageEmail
	StageOrder
)

func (s Stage) String() string {
	switch s {
	case StageReason:
		return "waiting_for_reason"
	case StageEmail:
		return "waiting_for_email"
	case StageOrder:
		return "waiting_for_order_number"
	default:
		return "unknown"
	}
}

// slots are the details collected before a ticket can be created. Order is
// optional: OrderSkipped marks an explicit "no order" answer.
type slots struct {
	Reason       string
	Email        string
	Order        string
	OrderSkipped bool
}

// mergeSlots overlays b onto a; non-empty fields on the right win.
func mergeSlots(a, b slots) slots {
	out := a
	if strings.TrimSpace(b.Reason) != "" {
		out.Reason = strings.TrimSpace(b.Reason)
	}
	if strings.TrimSpace(b.Email) != "" {
		out.Email = strings.TrimSpace(b.Email)
	}
	if strings.TrimSpace(b.Order) != "" {
		out.Order = strings.TrimSpace(b.Order)
	}
	if b.OrderSkipped {
		out.OrderSkipped = true
	}
	return out
}

// computeMissing returns the first unfilled stage and whether all slots are
// resolved. The order slot counts as resolved when explicitly skipped.
func computeMissing(s slots) (Stage, bool) {
	if strings.TrimSpace(s.Reason) == "" {
		return StageReason, false
	}
	if strings.TrimSpace(s.Email) == "" {
		return StageEmail, false
	}
	if strings.TrimSpace(s.Order) == "" && !s.OrderSkipped {
		return StageOrder, false
	}
	return StageOrder, true
}

// complaintKeywords flag a message as describing the escalation reason.
var complaintKeywords = []string{
	"defective", "broken", "damaged", "wrong", "issue", "problem",
	"complaint", "not working", "doesn't work", "poor", "bad",
}

// looksLikeReason reports whether text plausibly describes an issue.
func looksLikeReason(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range complaintKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// skipPhrases end the optional order stage without an order number.
var skipPhrases = []string{
	"no order", "no related order", "no order number", "none",
	"n/a", "not found", "skip", "don't have", "dont have",
}

func isOrderSkip(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range skipPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// extractSlots pulls whatever slot values the text carries.
func extractSlots(text string) slots {
	var s slots
	entities := classify.Extract(text)
	s.Email = classify.FirstEmail(entities)
	s.Order = classify.FirstOrderNumber(entities)
	if looksLikeReason(text) {
		s.Reason = strings.TrimSpace(text)
	}
	return s
}

// prefillFromHistory scans recent user messages, oldest first, so newer
// mentions overwrite older ones.
func prefillFromHistory(msgs []conversation.Message) slots {
	var out slots
	for _, m := range msgs {
		if m.Role != "user" {
			continue
		}
		out = mergeSlots(out, extractSlots(m.Content))
	}
	return out
}

// prefillFromDetails loads previously collected session details.
func prefillFromDetails(details map[string]string) slots {
	return slots{
		Reason: details["escalation_reason"],
		Email:  details["email"],
		Order:  details["order_number"],
	}
}
