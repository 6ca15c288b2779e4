package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/helpdeskhq/support-router/types"
)

// AnthropicClient talks to the Anthropic messages API. Selected with
// LLM_PROVIDER=anthropic; same Chat contract as the OpenAI-compatible client,
// with the system prompt carried in the request's dedicated field.
type AnthropicClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

type anthropicReq struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResp struct {
	Content []anthropicBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewAnthropicClient creates a client. Base URL precedence:
// ANTHROPIC_BASE_URL > the public endpoint.
func NewAnthropicClient(apiKey, model string, timeout time.Duration) *AnthropicClient {
	base := firstNonEmpty(os.Getenv("ANTHROPIC_BASE_URL"))
	if base == "" {
		base = "https://api.anthropic.com"
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AnthropicClient{
		BaseURL: strings.TrimRight(base, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Chat sends a synchronous messages request.
func (c *AnthropicClient) Chat(ctx context.Context, system, user string) (string, error) {
	reqBody := anthropicReq{
		Model:     c.Model,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
		MaxTokens: 320,
		System:    strings.TrimSpace(system),
	}
	b, _ := json.Marshal(reqBody)

	endpoint := c.BaseURL + "/v1/messages"
	httpReq, _ := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	var out anthropicResp
	if err := json.Unmarshal(body, &out); err != nil {
		return "", types.NewCollaboratorError(types.ErrorCodeLLMBadPayload,
			fmt.Sprintf("decode failed: %v; raw=%s", err, strings.TrimSpace(string(body))), "anthropic")
	}
	if out.Error != nil {
		return "", fmt.Errorf("anthropic: %s: %s", out.Error.Type, strings.TrimSpace(out.Error.Message))
	}
	for _, blk := range out.Content {
		if blk.Type == "text" && strings.TrimSpace(blk.Text) != "" {
			return strings.TrimSpace(blk.Text), nil
		}
	}
	return "", errors.New("anthropic: empty content")
}
