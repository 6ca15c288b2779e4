// Package kb is the knowledge base collaborator behind the FAQ handler. It
// scores seeded FAQ entries by keyword overlap and reports when its best
// answer is too weak to stand on its own.
package kb

import (
	"strings"
)

// EscalationThreshold is the confidence below which the FAQ handler offers
// to escalate instead of trusting the answer.
const EscalationThreshold = 0.5

// Entry is one FAQ item.
type Entry struct {
	Question string
	Answer   string
	Category string
	Keywords []string
}

// Result of a knowledge base search.
type Result struct {
	Response        string
	Confidence      float64
	Category        string
	ShouldEscalate  bool
	MatchedQuestion string
}

// KB is an in-memory keyword-scored FAQ corpus.
type KB struct {
	entries []Entry
}

// New creates a knowledge base over the given entries. Pass SeedFAQs() for
// the standard corpus.
func New(entries []Entry) *KB {
	return &KB{entries: entries}
}

// Search returns the best matching entry. Confidence is the fraction of the
// entry's keywords found in the query, discounted when only one keyword hit.
func (k *KB) Search(query string) Result {
	lower := strings.ToLower(query)
	words := tokenize(lower)

	best := Result{
		Response:       "I'm not sure about that. Would you like me to connect you with a support agent?",
		Confidence:     0,
		ShouldEscalate: true,
	}

	for _, e := range k.entries {
		hits := 0
		for _, kw := range e.Keywords {
			if containsKeyword(lower, words, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		conf := float64(hits) / float64(len(e.Keywords))
		if hits == 1 {
			conf *= 0.8
		}
		if conf > 1.0 {
			conf = 1.0
		}
		if conf > best.Confidence {
			best = Result{
				Response:        e.Answer,
				Confidence:      conf,
				Category:        e.Category,
				ShouldEscalate:  conf < EscalationThreshold,
				MatchedQuestion: e.Question,
			}
		}
	}

	return best
}

func tokenize(lower string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		out[w] = true
	}
	return out
}

// containsKeyword matches single words exactly and phrases by substring.
func containsKeyword(lower string, words map[string]bool, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(lower, kw)
	}
	return words[kw]
}
