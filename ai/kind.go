package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned for provider names outside ProviderKind
var ErrUnknownProvider = errors.New("ai: unknown provider")

// ProviderKind enumerates the supported chat-completion backends
type ProviderKind string

const (
	KindGemini      ProviderKind = "gemini"
	KindOpenAI      ProviderKind = "openai"
	KindDeepSeek    ProviderKind = "deepseek"
	KindSiliconFlow ProviderKind = "siliconflow"
)

// ParseProviderKind maps a stored provider name to a ProviderKind
func ParseProviderKind(name string) (ProviderKind, error) {
	switch kind := ProviderKind(strings.ToLower(strings.TrimSpace(name))); kind {
	case KindGemini, KindOpenAI, KindDeepSeek, KindSiliconFlow:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// DefaultBaseURL is used when no base URL is configured
func (k ProviderKind) DefaultBaseURL() string {
	switch k {
	case KindDeepSeek:
		return "https://api.deepseek.com"
	case KindSiliconFlow:
		return "https://api.siliconflow.cn/v1"
	case KindOpenAI:
		return "https://api.openai.com/v1"
	default:
		return ""
	}
}

// DefaultModel is used when no model name is configured
func (k ProviderKind) DefaultModel() string {
	switch k {
	case KindDeepSeek:
		return "deepseek-chat"
	case KindSiliconFlow:
		return "deepseek-ai/DeepSeek-V3"
	case KindOpenAI:
		return "gpt-4o-mini"
	default:
		return "gemini-1.5-flash"
	}
}
