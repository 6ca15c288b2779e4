package classify

import (
	"context"
	"errors"
	"testing"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Chat(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

func TestModelAssistedFallsBackOnError(t *testing.T) {
	m := NewModelAssisted(&fakeLLM{err: errors.New("deadline exceeded")})

	got := m.Classify(context.Background(), "where is my order ORD-2024-001")
	if got.Intent != IntentOrderStatus {
		t.Fatalf("Expected rule-based order_status, got %s", got.Intent)
	}
	if got.Validation != "rule_based_fallback" {
		t.Fatalf("Expected rule_based_fallback validation, got %s", got.Validation)
	}
}

func TestModelAssistedFallsBackOnGarbage(t *testing.T) {
	cases := []string{
		"sure, happy to help!",                     // no JSON at all
		`{"intent":"weather_report","confidence":0.9}`, // unknown intent
		`{"intent":"","confidence":0.9}`,               // schema violation
		`{"confidence":0.9}`,                           // missing field
	}

	for _, reply := range cases {
		m := NewModelAssisted(&fakeLLM{reply: reply})
		got := m.Classify(context.Background(), "where is my order ORD-2024-001")
		if got.Intent != IntentOrderStatus {
			t.Errorf("reply %q: expected rule-based order_status, got %s", reply, got.Intent)
		}
		if got.Validation != "rule_based_fallback" {
			t.Errorf("reply %q: expected rule_based_fallback, got %s", reply, got.Validation)
		}
	}
}

func TestModelAssistedPrefersConfidentVerdict(t *testing.T) {
	m := NewModelAssisted(&fakeLLM{reply: `The intent is {"intent":"complaint","confidence":0.95}`})

	got := m.Classify(context.Background(), "where is my order ORD-2024-001")
	if got.Intent != IntentComplaint {
		t.Fatalf("Expected llm verdict complaint, got %s", got.Intent)
	}
	if got.Validation != "llm_preferred" {
		t.Fatalf("Expected llm_preferred, got %s", got.Validation)
	}
}

func TestModelAssistedAgreement(t *testing.T) {
	m := NewModelAssisted(&fakeLLM{reply: `{"intent":"order_status","confidence":0.9}`})

	got := m.Classify(context.Background(), "where is my order ORD-2024-001")
	if got.Intent != IntentOrderStatus {
		t.Fatalf("Expected order_status, got %s", got.Intent)
	}
	if got.Validation != "both_agree" {
		t.Fatalf("Expected both_agree, got %s", got.Validation)
	}
}

func TestModelAssistedNilClientUsesRules(t *testing.T) {
	m := NewModelAssisted(nil)

	got := m.Classify(context.Background(), "hello there")
	if got.Intent != IntentGeneralChat {
		t.Fatalf("Expected general_chat, got %s", got.Intent)
	}
	if got.Validation != "rule_based" {
		t.Fatalf("Expected rule_based, got %s", got.Validation)
	}
}
