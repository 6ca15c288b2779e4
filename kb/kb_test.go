package kb

import (
	"strings"
	"testing"
)

func TestSearchReturnPolicy(t *testing.T) {
	k := New(SeedFAQs())

	got := k.Search("what is your return policy?")
	if !strings.Contains(got.Response, "30 days") {
		t.Fatalf("Expected return policy answer, got %q", got.Response)
	}
	if got.ShouldEscalate {
		t.Fatalf("Expected confident answer, got confidence %f with escalation", got.Confidence)
	}
}

func TestSearchUnknownTopicOffersEscalation(t *testing.T) {
	k := New(SeedFAQs())

	got := k.Search("can you explain quantum entanglement")
	if !got.ShouldEscalate {
		t.Fatalf("Expected escalation offer for unknown topic, confidence %f", got.Confidence)
	}
	if got.Response == "" {
		t.Fatal("Expected a non-empty fallback response")
	}
}

func TestSearchWeakMatchEscalates(t *testing.T) {
	k := New(SeedFAQs())

	// A single keyword hit on a three-keyword entry stays under the
	// escalation threshold.
	got := k.Search("my card stopped glowing")
	if got.Confidence >= EscalationThreshold {
		t.Fatalf("Expected weak confidence, got %f", got.Confidence)
	}
	if !got.ShouldEscalate {
		t.Fatal("Expected escalation flag on weak match")
	}
}

func TestSearchDeterministic(t *testing.T) {
	k := New(SeedFAQs())

	first := k.Search("how do I track my order")
	for i := 0; i < 20; i++ {
		got := k.Search("how do I track my order")
		if got != first {
			t.Fatalf("Expected identical result, got %v vs %v", got, first)
		}
	}
}
