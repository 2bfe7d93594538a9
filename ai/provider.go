package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// EmptyReplyText is returned when a provider answers without any text
const EmptyReplyText = "AI 没有返回内容"

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	defaultTimeout     = 60 * time.Second
)

// ErrMissingAPIKey is returned when a provider is built without credentials
var ErrMissingAPIKey = errors.New("ai: api key is required")

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Usage reports token accounting for one completion
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Reply is a provider's answer
type Reply struct {
	Text  string
	Usage Usage
}

// Options tune a single completion request
type Options struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

func (o Options) temperature() float64 {
	if o.Temperature != nil {
		return *o.Temperature
	}
	return DefaultTemperature
}

// Provider is a chat-completion backend
type Provider interface {
	Kind() ProviderKind
	Complete(ctx context.Context, messages []Message, opts Options) (*Reply, error)
}

// ProviderError is a non-2xx answer from a provider API
type ProviderError struct {
	Kind       ProviderKind
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

// Config selects and configures a provider
type Config struct {
	Kind        ProviderKind
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
}

// NewProvider builds the provider for cfg.Kind.
// httpClient is used by the OpenAI-compatible providers and may be nil.
func NewProvider(ctx context.Context, cfg Config, httpClient *http.Client) (Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	switch cfg.Kind {
	case KindGemini:
		return NewGemini(ctx, cfg.APIKey)
	case KindOpenAI, KindDeepSeek, KindSiliconFlow:
		return NewOpenAICompatible(cfg.Kind, cfg.APIKey, cfg.BaseURL, httpClient), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Kind)
	}
}
