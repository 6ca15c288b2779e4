package llm

import (
	"context"
	"errors"
	"time"

	"github.com/helpdeskhq/support-router/resilience"
	"github.com/helpdeskhq/support-router/types"
)

// GuardedClient wraps a Client with a circuit breaker. When the provider
// keeps failing, calls are rejected immediately and the callers' rule-based
// fallbacks take over without waiting out the timeout each turn.
type GuardedClient struct {
	inner   Client
	breaker *resilience.CircuitBreaker
}

// Guard wraps client with a breaker that opens after maxFailures consecutive
// errors and probes again after resetTimeout.
func Guard(client Client, maxFailures int, resetTimeout time.Duration) *GuardedClient {
	return &GuardedClient{
		inner:   client,
		breaker: resilience.NewCircuitBreaker(maxFailures, resetTimeout),
	}
}

// Chat implements Client. Breaker rejections and timeouts surface as typed
// collaborator errors so callers and logs can tell an outage from a bad
// payload.
func (g *GuardedClient) Chat(ctx context.Context, system, user string) (string, error) {
	var out string
	err := g.breaker.Execute(func() error {
		var callErr error
		out, callErr = g.inner.Chat(ctx, system, user)
		return callErr
	})
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "", types.NewCollaboratorError(types.ErrorCodeLLMUnavailable,
			"model provider circuit open, using rule-based fallback", "llm").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return "", types.NewCollaboratorError(types.ErrorCodeLLMTimeout,
			"model call exceeded its deadline", "llm").WithCause(err)
	}
	return "", err
}

// State exposes the breaker state for health reporting.
func (g *GuardedClient) State() resilience.State {
	return g.breaker.GetState()
}
