package store

import (
	"context"
	"errors"
	"time"

	"github.com/helpdeskhq/support-router/resilience"
	"github.com/helpdeskhq/support-router/tickets"
	"github.com/helpdeskhq/support-router/types"
)

// RetryingTicketStore retries transient write failures before giving up.
// The ticket manager already tolerates a failing store; the retries just make
// short database blips invisible.
type RetryingTicketStore struct {
	inner tickets.Store
	cfg   *resilience.RetryConfig
}

// WithRetries wraps a ticket store with a short backoff schedule.
func WithRetries(inner tickets.Store) *RetryingTicketStore {
	return &RetryingTicketStore{
		inner: inner,
		cfg: &resilience.RetryConfig{
			MaxAttempts:     3,
			InitialDelay:    50 * time.Millisecond,
			MaxDelay:        1 * time.Second,
			Multiplier:      2.0,
			RandomizeFactor: 0.1,
			RetryIf:         resilience.IsRetryable,
		},
	}
}

// SaveTicket implements tickets.Store.
func (s *RetryingTicketStore) SaveTicket(ctx context.Context, t *tickets.Ticket) error {
	err := resilience.RetryWithConfig(ctx, s.cfg, func() error {
		return s.inner.SaveTicket(ctx, t)
	})
	return wrapExhausted(err, t.ID)
}

// UpdateTicket implements tickets.Store.
func (s *RetryingTicketStore) UpdateTicket(ctx context.Context, t *tickets.Ticket) error {
	err := resilience.RetryWithConfig(ctx, s.cfg, func() error {
		return s.inner.UpdateTicket(ctx, t)
	})
	return wrapExhausted(err, t.ID)
}

// wrapExhausted marks a write that outlived its retry schedule as a store
// outage. Context cancellation and single-shot failures pass through.
func wrapExhausted(err error, ticketID string) error {
	var max resilience.ErrMaxRetriesExceeded
	if !errors.As(err, &max) {
		return err
	}
	ce := types.NewCollaboratorError(types.ErrorCodeStoreUnavailable,
		"ticket store unreachable after retries", "ticket-store").WithCause(err)
	ce.Details["ticket_id"] = ticketID
	return ce
}
