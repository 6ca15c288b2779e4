// Package faq implements the default handler: knowledge base answers for
// policy and general questions, with an escalation offer when the best
// answer is weak.
package faq

import (
	"context"

	"github.com/helpdeskhq/support-router/agents"
	"github.com/helpdeskhq/support-router/kb"
)

// Agent answers questions from the knowledge base.
type Agent struct {
	kb *kb.KB
}

// NewAgent creates the FAQ handler.
func NewAgent(knowledge *kb.KB) *Agent {
	return &Agent{kb: knowledge}
}

// Name implements agents.Handler.
func (a *Agent) Name() string { return agents.NameFAQ }

// CanHandle implements agents.Handler. FAQ is the default handler and takes
// anything.
func (a *Agent) CanHandle(*agents.Request) bool { return true }

// Process implements agents.Handler.
func (a *Agent) Process(_ context.Context, req *agents.Request) (*agents.Response, error) {
	res := a.kb.Search(req.Text)

	text := res.Response
	if res.ShouldEscalate && res.MatchedQuestion != "" {
		text += " If that doesn't answer it, I can create a support ticket so a specialist follows up."
	}
	return &agents.Response{Text: text}, nil
}
