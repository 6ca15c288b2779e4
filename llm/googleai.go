// Package llm - Google AI provider via langchaingo.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// GoogleAIClient implements the Client interface with the langchaingo
// Google AI (Gemini) model bindings.
type GoogleAIClient struct {
	llm   *googleai.GoogleAI
	model string
}

// NewGoogleAIClient creates a Gemini-backed client.
func NewGoogleAIClient(ctx context.Context, apiKey, model string) (*GoogleAIClient, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	m, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("googleai: create client: %w", err)
	}
	return &GoogleAIClient{llm: m, model: model}, nil
}

// Chat implements the Client interface. Gemini has no dedicated system role,
// so the system prompt is prepended to the user message.
func (c *GoogleAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	prompt := user
	if strings.TrimSpace(system) != "" {
		prompt = fmt.Sprintf("System Instructions: %s\n\nUser: %s", system, user)
	}

	out, err := c.llm.Call(ctx, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("googleai: call: %w", err)
	}
	return strings.TrimSpace(out), nil
}
