package classify

import (
	"context"
	"regexp"
	"strings"
)

// Intent is a supported user intent.
type Intent string

const (
	IntentFAQ               Intent = "faq"
	IntentOrderInquiry      Intent = "order_inquiry"
	IntentOrderStatus       Intent = "order_status"
	IntentOrderReturn       Intent = "order_return"
	IntentOrderRefund       Intent = "order_refund"
	IntentComplaint         Intent = "complaint"
	IntentAccountIssue      Intent = "account_issue"
	IntentProductInfo       Intent = "product_info"
	IntentTechnicalSupport  Intent = "technical_support"
	IntentBillingPayment    Intent = "billing_payment"
	IntentShippingDelivery  Intent = "shipping_delivery"
	IntentGeneralChat       Intent = "general_chat"
	IntentEscalationRequest Intent = "escalation_request"
	IntentTicketRequest     Intent = "ticket_request"
)

// Result is the outcome of classifying one message.
type Result struct {
	Intent     Intent
	Confidence float64
	Matches    int
	// Validation records which strategy produced the result:
	// "rule_based", "llm_preferred", "both_agree", "rule_based_fallback".
	// Advisory only, routing never branches on it.
	Validation string
}

// Classifier turns a user message into an intent with a confidence score.
type Classifier interface {
	Classify(ctx context.Context, text string) Result
}

// intentPriority is the tie-break order. More specific intents come first so
// that e.g. a return request is not swallowed by the generic order inquiry.
var intentPriority = []Intent{
	IntentTicketRequest,
	IntentEscalationRequest,
	IntentOrderReturn,
	IntentOrderRefund,
	IntentOrderStatus,
	IntentOrderInquiry,
	IntentComplaint,
	IntentAccountIssue,
	IntentTechnicalSupport,
	IntentBillingPayment,
	IntentShippingDelivery,
	IntentProductInfo,
	IntentFAQ,
	IntentGeneralChat,
}

var intentPatterns = map[Intent][]*regexp.Regexp{
	IntentFAQ: compileAll(
		`\b(what|how|when|where|why|can|do|does|is|are)\b.*\?`,
		`\b(tell me|explain|help|guide|info|information)\b`,
		`\b(about|regarding|concerning)\b`,
		`\b(return policy|refund policy|shipping policy|warranty)\b`,
		`\b(policy|policies|terms|conditions)\b`,
	),
	IntentOrderInquiry: compileAll(
		`\b(order|purchase|buy|transaction)\b.*\b(number|#|id)\b`,
		`\b(my order|order details|order info)\b`,
		`\b(order history|past orders|previous purchases)\b`,
		`\bord-\d+|\d+-\d+|\d{4}-\d{3}\b`,
	),
	IntentOrderStatus: compileAll(
		`\b(order status|status.*order|where.*order|tracking|track)\b`,
		`\b(shipped|delivered|arrived|received)\b.*\b(order|package)\b`,
		`\b(when.*order|order.*arrive|delivery.*time)\b`,
		`\b(what.*status|how.*order|where.*package)\b`,
	),
	IntentOrderReturn: compileAll(
		`\b(return|returning|send back|take back)\b.*\b(order|item|product)\b`,
		`\b(i want to|can i|how do i)\b.*\b(return|send back)\b`,
		`\b(return label|return shipping)\b`,
	),
	IntentOrderRefund: compileAll(
		`\b(refund|money back|reimbursement)\b`,
		`\b(refund status|refund process|when.*refund)\b`,
		`\b(credit|chargeback|reversal)\b`,
	),
	IntentComplaint: compileAll(
		`\b(angry|frustrated|disappointed|unhappy|terrible|awful|horrible)\b`,
		`\b(complaint|complain|issue|problem|trouble|wrong|mistake|error)\b`,
		`\b(not working|doesn't work|won't work)\b`,
		`\b(broken|damaged|defective|defected|faulty|bad quality)\b`,
		`\b(received wrong|wrong item|incorrect item|wrong product)\b`,
		`\b(poor|bad|unsatisfied|dissatisfied)\b`,
		`\b(waste|useless|garbage|junk)\b`,
	),
	IntentAccountIssue: compileAll(
		`\b(account|login|password|sign in|sign up|register)\b`,
		`\b(profile|settings|preferences|personal info)\b`,
		`\b(email|phone|address|contact.*info)\b`,
	),
	IntentProductInfo: compileAll(
		`\b(product|item|inventory|stock|available|in stock)\b`,
		`\b(details|specs|specifications|features|description)\b`,
		`\b(size|color|model|version|type)\b`,
	),
	IntentTechnicalSupport: compileAll(
		`\b(technical|tech|support|help|assistance)\b`,
		`\b(error|bug|glitch|crash|freeze|not working)\b`,
		`\b(website|app|application|system|platform)\b`,
	),
	IntentBillingPayment: compileAll(
		`\b(payment|pay|billing|bill|charge|fee|cost|price)\b`,
		`\b(card|credit|debit|paypal|apple pay|google pay)\b`,
		`\b(invoice|receipt|statement|balance)\b`,
	),
	IntentShippingDelivery: compileAll(
		`\b(shipping|delivery|ship|deliver|courier|carrier)\b`,
		`\b(address|location|destination|international|overseas)\b`,
		`\b(package|parcel|box|mail)\b`,
	),
	IntentEscalationRequest: compileAll(
		`\b(speak|talk|contact|manager|supervisor|human)\b`,
		`\b(escalate|transfer|higher|authority|representative)\b`,
		`\b(not helpful|not working|need help|urgent|emergency)\b`,
	),
	IntentTicketRequest: compileAll(
		`\b(create.*ticket|raise.*ticket|open.*ticket|new.*ticket)\b`,
		`\b(support.*ticket|issue.*ticket|help.*ticket)\b`,
		`\b(ticket|tickets|support request)\b.*\b(create|raise|open|new|request)\b`,
		`\b(report.*issue|file.*complaint|lodge.*complaint)\b`,
	),
	IntentGeneralChat: compileAll(
		`\b(hello|hi|hey|greetings|good|thanks|thank you)\b`,
		`\b(bye|goodbye|see you|farewell)\b`,
		`\b(how are you|how.*going|what.*up)\b`,
	),
}

func compileAll(exprs ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		res = append(res, regexp.MustCompile(e))
	}
	return res
}

// RuleClassifier matches keyword patterns in a fixed priority order. It is
// pure and deterministic: identical input always yields identical output.
type RuleClassifier struct{}

// NewRuleClassifier creates a rule-based classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify returns the highest-priority intent with at least one pattern hit.
// Confidence is the fraction of the intent's patterns that matched, capped at
// 1.0. A message matching nothing falls back to faq at 0.3.
func (c *RuleClassifier) Classify(_ context.Context, text string) Result {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, intent := range intentPriority {
		patterns := intentPatterns[intent]
		matches := 0
		for _, p := range patterns {
			if p.MatchString(lower) {
				matches++
			}
		}
		if matches > 0 {
			conf := float64(matches) / float64(len(patterns))
			if conf > 1.0 {
				conf = 1.0
			}
			return Result{Intent: intent, Confidence: conf, Matches: matches, Validation: "rule_based"}
		}
	}

	return Result{Intent: IntentFAQ, Confidence: 0.3, Validation: "rule_based"}
}

// Describe returns a human-readable description of an intent.
func Describe(intent Intent) string {
	switch intent {
	case IntentFAQ:
		return "General FAQ question"
	case IntentOrderInquiry:
		return "Order information inquiry"
	case IntentOrderStatus:
		return "Order status check"
	case IntentOrderReturn:
		return "Return request or information"
	case IntentOrderRefund:
		return "Refund request or status"
	case IntentComplaint:
		return "Customer complaint or issue"
	case IntentAccountIssue:
		return "Account or login problem"
	case IntentProductInfo:
		return "Product information request"
	case IntentTechnicalSupport:
		return "Technical support needed"
	case IntentBillingPayment:
		return "Billing or payment issue"
	case IntentShippingDelivery:
		return "Shipping or delivery question"
	case IntentGeneralChat:
		return "General conversation"
	case IntentEscalationRequest:
		return "Request to speak to human"
	case IntentTicketRequest:
		return "Support ticket request"
	default:
		return "Unknown intent"
	}
}

// KnownIntent reports whether s names one of the supported intents.
func KnownIntent(s string) bool {
	_, ok := intentPatterns[Intent(s)]
	return ok || Intent(s) == IntentGeneralChat
}

// IsOrderIntent reports whether the intent belongs to the order family.
func IsOrderIntent(intent Intent) bool {
	switch intent {
	case IntentOrderInquiry, IntentOrderStatus, IntentOrderReturn, IntentOrderRefund:
		return true
	}
	return false
}
