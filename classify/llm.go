package classify

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/helpdeskhq/support-router/llm"
)

// classifyJSONRe pulls the first JSON object out of a model reply that may be
// wrapped in prose or code fences.
var classifyJSONRe = regexp.MustCompile(`(?s)\{.*\}`)

// verdictSchema validates the model's classification payload before it is
// trusted. Anything that fails validation falls back to the rule engine.
const verdictSchema = `{
  "type": "object",
  "required": ["intent", "confidence"],
  "properties": {
    "intent": {"type": "string", "minLength": 1},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

type llmVerdict struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// ModelAssisted asks a language model for an intent verdict and validates it
// against the rule engine. Any model failure (timeout, bad payload, unknown
// intent) degrades to the rule-based result, so the strategy is always safe
// to use in the turn path.
type ModelAssisted struct {
	rules     *RuleClassifier
	client    llm.Client
	schema    *gojsonschema.Schema
	threshold float64
	timeout   time.Duration
}

// NewModelAssisted wraps the rule classifier with a model verdict. A nil
// client yields pure rule-based behavior.
func NewModelAssisted(client llm.Client) *ModelAssisted {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(verdictSchema))
	if err != nil {
		// Schema is a compile-time constant, failure here is a programming error.
		panic(err)
	}
	return &ModelAssisted{
		rules:     NewRuleClassifier(),
		client:    client,
		schema:    schema,
		threshold: 0.7,
		timeout:   llm.DefaultTimeout,
	}
}

// Classify returns the model verdict when it is confident and well-formed,
// the rule result otherwise. The Validation field records which path won.
func (m *ModelAssisted) Classify(ctx context.Context, text string) Result {
	ruleRes := m.rules.Classify(ctx, text)
	if m.client == nil {
		return ruleRes
	}

	cctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	sys := "Classify a customer support message into exactly one intent. " +
		"Intents: faq, order_inquiry, order_status, order_return, order_refund, complaint, " +
		"account_issue, product_info, technical_support, billing_payment, shipping_delivery, " +
		"general_chat, escalation_request, ticket_request. " +
		`Reply with JSON only: {"intent":"...","confidence":0.0}`
	out, err := m.client.Chat(cctx, sys, text)
	if err != nil {
		log.Printf("[classify] llm unavailable, using rules: %v", err)
		return fallback(ruleRes)
	}

	payload := classifyJSONRe.FindString(out)
	if payload == "" {
		log.Printf("[classify] no JSON in llm reply, using rules")
		return fallback(ruleRes)
	}

	valid, err := m.schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil || !valid.Valid() {
		log.Printf("[classify] llm payload failed schema validation, using rules")
		return fallback(ruleRes)
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return fallback(ruleRes)
	}
	v.Intent = strings.ToLower(strings.TrimSpace(v.Intent))
	if !KnownIntent(v.Intent) {
		log.Printf("[classify] llm returned unknown intent %q, using rules", v.Intent)
		return fallback(ruleRes)
	}

	if Intent(v.Intent) == ruleRes.Intent {
		ruleRes.Validation = "both_agree"
		if v.Confidence > ruleRes.Confidence {
			ruleRes.Confidence = v.Confidence
		}
		return ruleRes
	}

	if v.Confidence >= m.threshold {
		return Result{
			Intent:     Intent(v.Intent),
			Confidence: v.Confidence,
			Validation: "llm_preferred",
		}
	}

	return fallback(ruleRes)
}

func fallback(r Result) Result {
	r.Validation = "rule_based_fallback"
	return r
}
