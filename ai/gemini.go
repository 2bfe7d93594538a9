package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini uses the Google GenAI SDK
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Kind() ProviderKind {
	return KindGemini
}

// Complete runs a single GenerateContent call
func (g *Gemini) Complete(ctx context.Context, messages []Message, opts Options) (*Reply, error) {
	model := opts.Model
	if model == "" {
		model = KindGemini.DefaultModel()
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	system, contents := toGeminiContents(messages)
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.temperature())),
		MaxOutputTokens: int32(maxTokens),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	reply := &Reply{Text: EmptyReplyText}
	if text := resp.Text(); text != "" {
		reply.Text = text
	}
	if resp.UsageMetadata != nil {
		reply.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return reply, nil
}

// toGeminiContents splits system messages out into a single instruction.
// Assistant turns map to the "model" role.
func toGeminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}

	return strings.Join(system, "\n\n"), contents
}
