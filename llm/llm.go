// Package llm provides a small, pluggable chat client abstraction used for
// optional model-assisted classification and response phrasing. Providers are
// selected from the environment; everything degrades to rule-based behavior
// when no provider is configured.
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

var ErrLLMDisabled = errors.New("llm client disabled (missing key or base url)")

// DefaultTimeout bounds a single model call. The routing engine never waits
// longer than this before falling back to the rule-based path.
const DefaultTimeout = 15 * time.Second

// Client is the minimal interface the engine and handlers depend on.
type Client interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient is an OpenAI-compatible HTTP client (chat.completions).
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string      `json:"message"`
		Type    string      `json:"type,omitempty"`
		Code    interface{} `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

// NewFromEnv creates a client using relaxed env precedence.
// Provider selection: LLM_PROVIDER = "openai" (default), "googleai", "anthropic".
// Base URL precedence: LLM_BASE_URL > LLM_URL > default OpenAI-compatible Google endpoint.
// Key precedence: LLM_API_KEY > GEMINI_API_KEY > GOOGLE_API_KEY > OPENAI_API_KEY > ANTHROPIC_API_KEY.
// Local hosts (localhost/127.0.0.1) allow empty key or LLM_ALLOW_NO_KEY=true.
func NewFromEnv() (Client, error) {
	key := firstNonEmpty(
		os.Getenv("LLM_API_KEY"),
		os.Getenv("GEMINI_API_KEY"),
		os.Getenv("GOOGLE_API_KEY"),
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("ANTHROPIC_API_KEY"),
	)

	model := firstNonEmpty(os.Getenv("LLM_MODEL"))
	timeout := DefaultTimeout
	if v := strings.TrimSpace(os.Getenv("LLM_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))) {
	case "googleai", "gemini":
		if key == "" {
			return nil, ErrLLMDisabled
		}
		return NewGoogleAIClient(context.Background(), key, model)
	case "anthropic":
		if key == "" {
			return nil, ErrLLMDisabled
		}
		return NewAnthropicClient(key, model, timeout), nil
	}

	base := firstNonEmpty(
		os.Getenv("LLM_BASE_URL"),
		os.Getenv("LLM_URL"),
	)
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta/openai"
	}
	base = normalizeBase(base)

	if model == "" {
		model = "gemini-2.5-flash"
	}

	allowNoKey := strings.EqualFold(os.Getenv("LLM_ALLOW_NO_KEY"), "true") ||
		strings.Contains(base, "localhost") || strings.Contains(base, "127.0.0.1")

	if key == "" && !allowNoKey {
		return nil, ErrLLMDisabled
	}

	return &OpenAIClient{
		BaseURL: strings.TrimRight(base, "/"),
		APIKey:  key,
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
	}, nil
}

// Chat sends a synchronous chat.completions request.
func (c *OpenAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatReq{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		MaxTokens:   320,
		Temperature: 0,
	}
	b, _ := json.Marshal(reqBody)

	endpoint := c.BaseURL + "/chat/completions"
	httpReq, _ := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.APIKey) != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	var out chatResp
	if err := json.Unmarshal(body, &out); err != nil {
		return "", types.NewCollaboratorError(types.ErrorCodeLLMBadPayload,
			fmt.Sprintf("decode failed: %v; raw=%s", err, strings.TrimSpace(string(body))), "openai")
	}
	if out.Error != nil {
		return "", errors.New(strings.TrimSpace(out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// ---------- Domain helpers (safe fallbacks inside) ----------

// GenerateSlotPrompt returns ONE short question asking only for the missing
// escalation details. Always returns a non-empty string (falls back if the
// model fails or no client is configured).
func GenerateSlotPrompt(ctx context.Context, c Client, missing []string, userText string) string {
	if len(missing) == 0 {
		missing = []string{"issue description", "email address"}
	}
	miss := strings.Join(missing, ", ")

	if c != nil {
		sys := "You generate ONE short clarification question asking a support customer only for the missing details of their escalation."
		user := fmt.Sprintf("User text: %q\nMissing details: %s\nReturn exactly ONE concise question. No list, no explanation.", strings.TrimSpace(userText), miss)
		if out, err := c.Chat(ctx, sys, user); err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
	}

	return "Could you share the following so I can escalate this: " + miss + "?"
}

// GenerateTicketSummary returns a one-line subject for a support ticket.
// Always returns a non-empty string.
func GenerateTicketSummary(ctx context.Context, c Client, reason, orderNumber string) string {
	if c != nil {
		sys := "Summarize a customer support issue as ONE short ticket subject line. No quotes, no explanation."
		user := fmt.Sprintf("issue=%s, order=%s. One short line.", nz(reason), nz(orderNumber))
		if out, err := c.Chat(ctx, sys, user); err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
	}

	subject := strings.TrimSpace(reason)
	if len(subject) > 60 {
		subject = subject[:60]
	}
	if subject == "" {
		subject = "Customer escalation"
	}
	if orderNumber != "" {
		subject += " (" + orderNumber + ")"
	}
	return subject
}

// ---------- shared helpers (LLM-side only) ----------

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// normalizeBase adds /v1 for local OpenAI-compatible servers if necessary.
func normalizeBase(u string) string {
	s := strings.TrimRight(strings.TrimSpace(u), "/")
	if s == "" {
		return s
	}
	isLocal := strings.Contains(s, "localhost") || strings.Contains(s, "127.0.0.1")
	if isLocal {
		if !strings.HasSuffix(s, "/v1") && !strings.Contains(s, "/openai/v1") {
			s += "/v1"
		}
	}
	return s
}

func nz(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}
