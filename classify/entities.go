package classify

import (
	"regexp"
	"sort"
	"strings"
)

// Entity types produced by the extractor.
const (
	EntityOrderNumber    = "order_number"
	EntityEmail          = "email"
	EntityPhone          = "phone"
	EntityTrackingNumber = "tracking_number"
)

// Entity is a value extracted from a user message. Value keeps the raw match,
// Canonical the normalized form used for dedup and downstream lookups.
type Entity struct {
	Type       string
	Value      string
	Canonical  string
	Confidence float64
}

var (
	orderNumberRe   = regexp.MustCompile(`(?i)\bORD[-\s]?\d{4}[-\s]?\d{3,4}\b`)
	orderLooseRe    = regexp.MustCompile(`(?i)\bORD[-\s]?\d{4,8}\b`)
	orderPrefixedRe = regexp.MustCompile(`(?i)\b(?:order|ord|#|no\.?|number)\s*[:#-]?\s*(ORD[-\s]?\d+(?:[-\s]?\d+)*)\b`)
	bareOrderRe     = regexp.MustCompile(`(?i)\b(?:order|ord)\s+#?\s*(\d{4}[-\s]?\d{3,4})\b`)
	emailRe         = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe         = regexp.MustCompile(`\b(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	trackingRe      = regexp.MustCompile(`(?i)\b(?:tracking|track)\s*(?:number|#|id)?\s*[:\-]?\s*([A-Z0-9]{10,25})\b`)
	trackingUPSRe   = regexp.MustCompile(`\b1Z[A-Z0-9]{16}\b`)
	sepRunRe        = regexp.MustCompile(`[-\s]+`)
	ordPrefixRe     = regexp.MustCompile(`(?i)ORD[-\s]*`)
	nonDigitRe      = regexp.MustCompile(`\D`)
	digitRunRe      = regexp.MustCompile(`^\d{4,8}$`)
)

// Context keywords that raise confidence when they appear near an entity.
var contextKeywords = map[string][]string{
	EntityOrderNumber:    {"order", "purchase", "transaction", "ord", "#"},
	EntityEmail:          {"email", "e-mail", "contact", "address"},
	EntityPhone:          {"phone", "mobile", "cell", "contact", "number"},
	EntityTrackingNumber: {"tracking", "track", "package", "delivery", "shipping"},
}

// Extract pulls order numbers, emails, phone numbers and tracking numbers out
// of a message. Results are deduplicated (substring matches of the same type
// collapse onto the longer value) and sorted by confidence, highest first.
func Extract(text string) []Entity {
	lower := strings.ToLower(text)
	var found []Entity

	for _, m := range orderNumberRe.FindAllString(text, -1) {
		found = append(found, newOrderEntity(m, lower))
	}
	for _, m := range orderLooseRe.FindAllString(text, -1) {
		found = append(found, newOrderEntity(m, lower))
	}
	for _, m := range orderPrefixedRe.FindAllStringSubmatch(text, -1) {
		found = append(found, newOrderEntity(m[1], lower))
	}
	// "order 2024 001" with no ORD prefix still refers to an order.
	for _, m := range bareOrderRe.FindAllStringSubmatch(text, -1) {
		found = append(found, newOrderEntity("ORD-"+m[1], lower))
	}

	for _, m := range emailRe.FindAllString(text, -1) {
		canon := strings.ToLower(strings.TrimSpace(m))
		found = append(found, Entity{
			Type:       EntityEmail,
			Value:      m,
			Canonical:  canon,
			Confidence: entityConfidence(EntityEmail, canon, lower),
		})
	}

	for _, m := range phoneRe.FindAllString(text, -1) {
		canon := strings.TrimSpace(m)
		found = append(found, Entity{
			Type:       EntityPhone,
			Value:      m,
			Canonical:  canon,
			Confidence: entityConfidence(EntityPhone, canon, lower),
		})
	}

	for _, m := range trackingRe.FindAllStringSubmatch(text, -1) {
		canon := strings.ToUpper(m[1])
		found = append(found, Entity{
			Type:       EntityTrackingNumber,
			Value:      m[1],
			Canonical:  canon,
			Confidence: entityConfidence(EntityTrackingNumber, canon, lower),
		})
	}
	for _, m := range trackingUPSRe.FindAllString(text, -1) {
		found = append(found, Entity{
			Type:       EntityTrackingNumber,
			Value:      m,
			Canonical:  strings.ToUpper(m),
			Confidence: entityConfidence(EntityTrackingNumber, m, lower),
		})
	}

	deduped := dedupe(found)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Confidence > deduped[j].Confidence
	})
	return deduped
}

func newOrderEntity(raw, lowerQuery string) Entity {
	canon := CanonicalOrderNumber(raw)
	return Entity{
		Type:       EntityOrderNumber,
		Value:      strings.TrimSpace(raw),
		Canonical:  canon,
		Confidence: entityConfidence(EntityOrderNumber, canon, lowerQuery),
	}
}

// CanonicalOrderNumber normalizes an order reference to ORD-XXXXXXX form:
// "ord 2024 001", "ORD2024-001" and "ORD-2024-001" all become "ORD-2024001"
// style canonical values with a single ORD- prefix and hyphen separators
// collapsed between digit groups.
func CanonicalOrderNumber(raw string) string {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if strings.HasPrefix(v, "ORD") {
		v = ordPrefixRe.ReplaceAllString(v, "ORD-")
		v = sepRunRe.ReplaceAllString(v, "-")
		return v
	}
	digits := sepRunRe.ReplaceAllString(v, "")
	if digitRunRe.MatchString(digits) {
		return "ORD-" + digits
	}
	return v
}

func entityConfidence(entityType, value, lowerQuery string) float64 {
	conf := 0.7

	for _, kw := range contextKeywords[entityType] {
		if strings.Contains(lowerQuery, kw) {
			conf += 0.1
			break
		}
	}

	switch entityType {
	case EntityOrderNumber:
		if len(value) >= 6 && strings.IndexFunc(value, isDigit) >= 0 {
			conf += 0.1
		}
		if strings.HasPrefix(strings.ToUpper(value), "ORD-") {
			conf += 0.2
		}
	case EntityEmail:
		if at := strings.Index(value, "@"); at >= 0 && strings.Contains(value[at:], ".") {
			conf += 0.2
		}
	case EntityPhone:
		digits := nonDigitRe.ReplaceAllString(value, "")
		if len(digits) >= 10 && len(digits) <= 15 {
			conf += 0.1
		}
	case EntityTrackingNumber:
		if len(value) >= 10 {
			conf += 0.1
		}
	}

	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// dedupe removes duplicate entities. Order numbers additionally collapse
// substring relationships, keeping the longer canonical value.
func dedupe(entities []Entity) []Entity {
	var out []Entity

	for _, e := range entities {
		key := strings.ToLower(e.Canonical)
		replaced := false
		skip := false

		for i, kept := range out {
			if kept.Type != e.Type {
				continue
			}
			keptKey := strings.ToLower(kept.Canonical)
			if keptKey == key {
				if e.Confidence > kept.Confidence {
					out[i] = e
				}
				skip = true
				break
			}
			if e.Type == EntityOrderNumber {
				if strings.Contains(keptKey, key) {
					skip = true
					break
				}
				if strings.Contains(key, keptKey) {
					out[i] = e
					replaced = true
					break
				}
			}
		}

		if !skip && !replaced {
			out = append(out, e)
		}
	}
	return out
}

// FirstOrderNumber returns the canonical order reference with the highest
// confidence, or "" when none is present.
func FirstOrderNumber(entities []Entity) string {
	for _, e := range entities {
		if e.Type == EntityOrderNumber {
			return e.Canonical
		}
	}
	return ""
}

// FirstEmail returns the first extracted email address, or "".
func FirstEmail(entities []Entity) string {
	for _, e := range entities {
		if e.Type == EntityEmail {
			return e.Canonical
		}
	}
	return ""
}
