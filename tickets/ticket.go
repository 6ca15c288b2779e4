// Package tickets implements the support ticket lifecycle: creation with
// derived priority, validated status transitions, notes and per-user
// summaries. Persistence is delegated to a Store and never blocks the
// conversational path.
package tickets

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
	StatusReopened   Status = "reopened"
)

// Priority of a ticket, derived from the reported issue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Note is a timestamped annotation on a ticket.
type Note struct {
	Text      string    `json:"text"`
	Author    string    `json:"author,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is a support escalation record.
type Ticket struct {
	ID            string    `json:"id" gorm:"primaryKey;column:id"`
	Subject       string    `json:"subject" gorm:"column:subject"`
	Description   string    `json:"description" gorm:"column:description"`
	CustomerEmail string    `json:"customerEmail" gorm:"column:customer_email;index"`
	OrderNumber   string    `json:"orderNumber,omitempty" gorm:"column:order_number"`
	Status        Status    `json:"status" gorm:"column:status"`
	Priority      Priority  `json:"priority" gorm:"column:priority"`
	Notes         []Note    `json:"notes,omitempty" gorm:"serializer:json;column:notes"`
	CreatedAt     time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// TableName sets the table used by the GORM store.
func (Ticket) TableName() string { return "tickets" }

// legalTransitions maps each status to the statuses it may move to.
var legalTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed},
	StatusResolved:   {StatusClosed, StatusReopened},
	StatusClosed:     {StatusReopened},
	StatusReopened:   {StatusInProgress, StatusResolved, StatusClosed},
}

// CanTransition reports whether moving from -> to is allowed.
func CanTransition(from, to Status) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var urgentTerms = []string{"critical", "emergency", "asap", "immediately", "urgent"}
var highTerms = []string{"broken", "damaged", "defective", "angry", "frustrated"}

// DerivePriority inspects the issue text for urgency signals.
func DerivePriority(reason string) Priority {
	lower := strings.ToLower(reason)
	for _, t := range urgentTerms {
		if strings.Contains(lower, t) {
			return PriorityUrgent
		}
	}
	for _, t := range highTerms {
		if strings.Contains(lower, t) {
			return PriorityHigh
		}
	}
	return PriorityMedium
}

// orderPlaceholders are values customers type when they have no order to
// attach. They must not end up stored as order numbers.
var orderPlaceholders = []string{
	"no order", "n/a", "not_found", "not found", "none",
	"no related order", "no order number", "ord-1234-5678",
}

// SanitizeOrderNumber clears placeholder phrases, returning "" for them.
func SanitizeOrderNumber(orderNumber string) string {
	v := strings.TrimSpace(orderNumber)
	lower := strings.ToLower(v)
	for _, p := range orderPlaceholders {
		if lower == p {
			return ""
		}
	}
	return v
}
