package types

import (
	"errors"
	"fmt"
	"time"
)

// CollaboratorError represents a failure reported by an external collaborator
// (LLM provider, ticket store, session store, order database).
type CollaboratorError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Service   string            `json:"service,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`

	cause error
}

// Error implements the error interface
func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator error [%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (e *CollaboratorError) Unwrap() error { return e.cause }

// WithCause attaches the underlying error and returns the receiver.
func (e *CollaboratorError) WithCause(err error) *CollaboratorError {
	e.cause = err
	return e
}

// NewCollaboratorError creates a new collaborator error
func NewCollaboratorError(code, message, service string) *CollaboratorError {
	return &CollaboratorError{
		Code:      code,
		Message:   message,
		Service:   service,
		Timestamp: time.Now(),
		Details:   make(map[string]string),
	}
}

// Collaborator error codes
const (
	ErrorCodeLLMTimeout       = "LLM_TIMEOUT"
	ErrorCodeLLMUnavailable   = "LLM_UNAVAILABLE"
	ErrorCodeLLMBadPayload    = "LLM_BAD_PAYLOAD"
	ErrorCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrorCodeOrderNotFound    = "ORDER_NOT_FOUND"
	ErrorCodeSessionNotFound  = "SESSION_NOT_FOUND"
)

// Sentinel errors shared across packages
var (
	// ErrSessionNotFound is returned when a session ID has no context
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidTransition is returned for an illegal ticket status change
	ErrInvalidTransition = errors.New("invalid ticket status transition")

	// ErrTicketNotFound is returned when a ticket ID is unknown
	ErrTicketNotFound = errors.New("ticket not found")
)
