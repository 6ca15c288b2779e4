package tickets

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helpdeskhq/support-router/types"
)

// Store persists tickets. Implementations must be safe for concurrent use.
type Store interface {
	SaveTicket(ctx context.Context, t *Ticket) error
	UpdateTicket(ctx context.Context, t *Ticket) error
}

// Manager owns the in-memory ticket index. Store writes are fire-and-forget:
// a failing store degrades persistence but never a customer conversation.
type Manager struct {
	mu      sync.RWMutex
	tickets map[string]*Ticket
	store   Store
}

// NewManager creates a ticket manager. store may be nil for in-memory only.
func NewManager(store Store) *Manager {
	return &Manager{
		tickets: make(map[string]*Ticket),
		store:   store,
	}
}

// Create opens a new ticket. Priority is derived from the description,
// placeholder order numbers are dropped.
func (m *Manager) Create(ctx context.Context, subject, description, customerEmail, orderNumber string) *Ticket {
	now := time.Now()
	t := &Ticket{
		ID:            newTicketID(),
		Subject:       strings.TrimSpace(subject),
		Description:   strings.TrimSpace(description),
		CustomerEmail: strings.ToLower(strings.TrimSpace(customerEmail)),
		OrderNumber:   SanitizeOrderNumber(orderNumber),
		Status:        StatusOpen,
		Priority:      DerivePriority(description),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	m.mu.Lock()
	m.tickets[t.ID] = t
	m.mu.Unlock()

	log.Printf("[ticket] created %s priority=%s order=%q", t.ID, t.Priority, t.OrderNumber)
	m.persist(ctx, t, true)
	return copyTicket(t)
}

// Get returns the ticket by ID.
func (m *Manager) Get(id string) (*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, types.ErrTicketNotFound
	}
	return copyTicket(t), nil
}

// UpdateStatus moves a ticket through its lifecycle, rejecting transitions
// that are not legal for the current status.
func (m *Manager) UpdateStatus(ctx context.Context, id string, to Status) (*Ticket, error) {
	m.mu.Lock()
	t, ok := m.tickets[id]
	if !ok {
		m.mu.Unlock()
		return nil, types.ErrTicketNotFound
	}
	if !CanTransition(t.Status, to) {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, t.Status, to)
	}
	from := t.Status
	t.Status = to
	t.UpdatedAt = time.Now()
	t.Notes = append(t.Notes, Note{
		Text:      fmt.Sprintf("status changed from %s to %s", from, to),
		Timestamp: t.UpdatedAt,
	})
	out := copyTicket(t)
	m.mu.Unlock()

	m.persist(ctx, out, false)
	return out, nil
}

// AddNote appends an annotation to the ticket.
func (m *Manager) AddNote(ctx context.Context, id, text, author string) (*Ticket, error) {
	m.mu.Lock()
	t, ok := m.tickets[id]
	if !ok {
		m.mu.Unlock()
		return nil, types.ErrTicketNotFound
	}
	t.Notes = append(t.Notes, Note{Text: text, Author: author, Timestamp: time.Now()})
	t.UpdatedAt = time.Now()
	out := copyTicket(t)
	m.mu.Unlock()

	m.persist(ctx, out, false)
	return out, nil
}

// ForUser returns the user's tickets, newest first.
func (m *Manager) ForUser(email string) []*Ticket {
	email = strings.ToLower(strings.TrimSpace(email))

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Ticket
	for _, t := range m.tickets {
		if t.CustomerEmail == email {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// UserSummary formats a short overview of the user's tickets.
func (m *Manager) UserSummary(email string) string {
	ts := m.ForUser(email)
	if len(ts) == 0 {
		return "You have no support tickets on file."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d ticket(s):\n", len(ts))
	for _, t := range ts {
		fmt.Fprintf(&b, "- %s [%s/%s] %s\n", t.ID, t.Status, t.Priority, t.Subject)
	}
	return strings.TrimRight(b.String(), "\n")
}

// persist writes through to the store without blocking the caller's path on
// failures. Errors are logged and swallowed.
func (m *Manager) persist(ctx context.Context, t *Ticket, create bool) {
	if m.store == nil {
		return
	}
	var err error
	if create {
		err = m.store.SaveTicket(ctx, t)
	} else {
		err = m.store.UpdateTicket(ctx, t)
	}
	if err != nil {
		log.Printf("[ticket] store write failed for %s (degraded): %v", t.ID, err)
	}
}

func newTicketID() string {
	return "TKT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func copyTicket(t *Ticket) *Ticket {
	out := *t
	out.Notes = append([]Note(nil), t.Notes...)
	return &out
}
