package tickets

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/helpdeskhq/support-router/types"
)

func TestCreateTicket(t *testing.T) {
	m := NewManager(nil)

	tk := m.Create(context.Background(), "Damaged blender", "the blender arrived broken", "jane@example.com", "ORD-2024-001")

	if !strings.HasPrefix(tk.ID, "TKT-") || len(tk.ID) != 12 {
		t.Fatalf("Expected TKT- prefixed 8-hex ID, got %s", tk.ID)
	}
	if tk.ID != strings.ToUpper(tk.ID) {
		t.Fatalf("Expected uppercase ID, got %s", tk.ID)
	}
	if tk.Status != StatusOpen {
		t.Fatalf("Expected open status, got %s", tk.Status)
	}
	if tk.Priority != PriorityHigh {
		t.Fatalf("Expected high priority for broken item, got %s", tk.Priority)
	}
	if tk.OrderNumber != "ORD-2024-001" {
		t.Fatalf("Expected order number kept, got %q", tk.OrderNumber)
	}
}

func TestDerivePriority(t *testing.T) {
	cases := []struct {
		reason string
		want   Priority
	}{
		{"this is urgent, fix it asap", PriorityUrgent},
		{"critical outage", PriorityUrgent},
		{"the item is damaged", PriorityHigh},
		{"I'm frustrated with this", PriorityHigh},
		{"just a question about sizing", PriorityMedium},
	}
	for _, tc := range cases {
		if got := DerivePriority(tc.reason); got != tc.want {
			t.Errorf("DerivePriority(%q) = %s, expected %s", tc.reason, got, tc.want)
		}
	}
}

func TestSanitizeOrderNumber(t *testing.T) {
	for _, placeholder := range []string{"no order", "N/A", "none", "Not Found", "ORD-1234-5678", "no order number"} {
		if got := SanitizeOrderNumber(placeholder); got != "" {
			t.Errorf("Expected placeholder %q to clear, got %q", placeholder, got)
		}
	}
	if got := SanitizeOrderNumber(" ORD-2024-001 "); got != "ORD-2024-001" {
		t.Fatalf("Expected real order number kept, got %q", got)
	}
}

func TestStatusTransitions(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	tk := m.Create(ctx, "s", "d", "a@b.com", "")

	if _, err := m.UpdateStatus(ctx, tk.ID, StatusInProgress); err != nil {
		t.Fatalf("Expected open -> in_progress to be legal, got %v", err)
	}
	if _, err := m.UpdateStatus(ctx, tk.ID, StatusReopened); err == nil {
		t.Fatal("Expected in_progress -> reopened to be rejected")
	} else if !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
	if _, err := m.UpdateStatus(ctx, tk.ID, StatusResolved); err != nil {
		t.Fatalf("Expected in_progress -> resolved, got %v", err)
	}
	got, err := m.UpdateStatus(ctx, tk.ID, StatusReopened)
	if err != nil {
		t.Fatalf("Expected resolved -> reopened, got %v", err)
	}
	if len(got.Notes) == 0 {
		t.Fatal("Expected transition notes to accumulate")
	}
}

func TestUpdateStatusUnknownTicket(t *testing.T) {
	m := NewManager(nil)
	if _, err := m.UpdateStatus(context.Background(), "TKT-DEADBEEF", StatusClosed); !errors.Is(err, types.ErrTicketNotFound) {
		t.Fatalf("Expected ErrTicketNotFound, got %v", err)
	}
}

func TestAddNoteAndUserSummary(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()
	tk := m.Create(ctx, "Late delivery", "package is late", "jane@example.com", "")

	if _, err := m.AddNote(ctx, tk.ID, "customer called again", "agent-7"); err != nil {
		t.Fatalf("Expected note added, got %v", err)
	}

	got, err := m.Get(tk.ID)
	if err != nil {
		t.Fatalf("Expected ticket, got %v", err)
	}
	if len(got.Notes) != 1 || got.Notes[0].Author != "agent-7" {
		t.Fatalf("Expected one authored note, got %v", got.Notes)
	}

	summary := m.UserSummary("JANE@example.com")
	if !strings.Contains(summary, tk.ID) {
		t.Fatalf("Expected summary to list %s, got %q", tk.ID, summary)
	}
	if m.UserSummary("nobody@example.com") != "You have no support tickets on file." {
		t.Fatal("Expected empty summary message")
	}
}

func TestForUserNewestFirst(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	first := m.Create(ctx, "first", "d", "jane@example.com", "")
	second := m.Create(ctx, "second", "d", "jane@example.com", "")
	third := m.Create(ctx, "third", "d", "jane@example.com", "")
	m.mu.Lock()
	m.tickets[first.ID].CreatedAt = time.Now().Add(-2 * time.Hour)
	m.tickets[second.ID].CreatedAt = time.Now().Add(-1 * time.Hour)
	m.mu.Unlock()

	got := m.ForUser("jane@example.com")
	if len(got) != 3 {
		t.Fatalf("Expected 3 tickets, got %d", len(got))
	}
	if got[0].ID != third.ID || got[1].ID != second.ID || got[2].ID != first.ID {
		t.Fatalf("Expected newest-first order %s,%s,%s, got %s,%s,%s",
			third.ID, second.ID, first.ID, got[0].ID, got[1].ID, got[2].ID)
	}
}

type failingStore struct{ calls int }

func (f *failingStore) SaveTicket(context.Context, *Ticket) error {
	f.calls++
	return errors.New("connection refused")
}
func (f *failingStore) UpdateTicket(context.Context, *Ticket) error {
	f.calls++
	return errors.New("connection refused")
}

func TestPersistenceFailureDoesNotBlock(t *testing.T) {
	fs := &failingStore{}
	m := NewManager(fs)
	ctx := context.Background()

	tk := m.Create(ctx, "s", "d", "a@b.com", "")
	if tk == nil || tk.ID == "" {
		t.Fatal("Expected ticket despite store failure")
	}
	if _, err := m.UpdateStatus(ctx, tk.ID, StatusClosed); err != nil {
		t.Fatalf("Expected status update despite store failure, got %v", err)
	}
	if fs.calls != 2 {
		t.Fatalf("Expected 2 store attempts, got %d", fs.calls)
	}
}
