package outline

import (
	"context"
	"fmt"
)

// LLMClient abstracts a single completion call so providers can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Settings selects and authenticates a provider for one request. The key is
// request-scoped: it is forwarded to the provider's auth header and dropped
// afterwards, never stored and never logged.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// defaultModel picks a small, widely available model per provider for
// requests that do not name one.
func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	case "anthropic":
		return "claude-3-haiku-20240307"
	case "gemini":
		return "gemini-1.5-flash"
	}
	return ""
}

// NewClient builds the provider client for the given settings. A nil client
// with a nil error means no provider is in play (provider "none" or no API
// key) and the caller should use the fallback builder directly.
func NewClient(s Settings) (LLMClient, error) {
	switch s.Provider {
	case "", "none":
		return nil, nil
	case "openai", "anthropic", "gemini":
	default:
		return nil, fmt.Errorf("unknown provider %q", s.Provider)
	}
	if s.APIKey == "" {
		return nil, nil
	}
	if s.Model == "" {
		s.Model = defaultModel(s.Provider)
	}
	switch s.Provider {
	case "openai":
		return newOpenAIClient(s), nil
	case "anthropic":
		return newAnthropicClient(s), nil
	default:
		return newGeminiClient(s), nil
	}
}
