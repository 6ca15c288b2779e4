package orderstore

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLookupFound(t *testing.T) {
	s := New(SeedOrders())

	res, err := s.Lookup(context.Background(), "ORD-2024-001")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !res.Found || res.Order == nil {
		t.Fatalf("Expected order found, got %+v", res)
	}
	if res.Order.Status != StatusShipped {
		t.Fatalf("Expected shipped status, got %s", res.Order.Status)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	s := New(SeedOrders())

	res, _ := s.Lookup(context.Background(), "ord-2024-001")
	if !res.Found {
		t.Fatal("Expected case-insensitive lookup to find the order")
	}
}

func TestLookupMissing(t *testing.T) {
	s := New(SeedOrders())

	res, err := s.Lookup(context.Background(), "ORD-9999-999")
	if err != nil {
		t.Fatalf("Expected no error for missing order, got %v", err)
	}
	if res.Found {
		t.Fatal("Expected not found")
	}
	if !strings.Contains(res.Message, "not found") {
		t.Fatalf("Expected not-found message, got %q", res.Message)
	}
}

func TestStatusDescription(t *testing.T) {
	o := &Order{Status: StatusShipped, ShippedDate: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)}
	got := StatusDescription(o)
	if !strings.Contains(got, "May 4, 2024") {
		t.Fatalf("Expected shipped date in description, got %q", got)
	}

	o = &Order{Status: StatusRefunded}
	if got := StatusDescription(o); !strings.Contains(got, "refund") {
		t.Fatalf("Expected refund description, got %q", got)
	}
}
