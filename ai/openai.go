package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAICompatible talks to any API implementing the OpenAI chat completions
// wire format (OpenAI, DeepSeek, SiliconFlow).
type OpenAICompatible struct {
	kind       ProviderKind
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAICompatible creates a provider for kind. An empty baseURL falls back
// to the kind's default endpoint.
func NewOpenAICompatible(kind ProviderKind, apiKey, baseURL string, httpClient *http.Client) *OpenAICompatible {
	if baseURL == "" {
		baseURL = kind.DefaultBaseURL()
	}
	return &OpenAICompatible{
		kind:       kind,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (p *OpenAICompatible) Kind() ProviderKind {
	return p.kind
}

type openaiRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a non-streaming chat completion request
func (p *OpenAICompatible) Complete(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	model := opts.Model
	if model == "" {
		model = p.kind.DefaultModel()
	}

	body, err := json.Marshal(openaiRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.temperature(),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", p.kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", p.kind, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", p.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.readError(resp)
	}

	var wire openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", p.kind, err)
	}

	reply := &Reply{Text: EmptyReplyText}
	if len(wire.Choices) > 0 && wire.Choices[0].Message.Content != "" {
		reply.Text = wire.Choices[0].Message.Content
	}
	if wire.Usage != nil {
		reply.Usage = Usage{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		}
	}
	return reply, nil
}

// readError extracts {"error":{"message":...}} when present, else the raw body
func (p *OpenAICompatible) readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var wire struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &wire) == nil && wire.Error.Message != "" {
		message = wire.Error.Message
	}

	return &ProviderError{Kind: p.kind, StatusCode: resp.StatusCode, Message: message}
}
