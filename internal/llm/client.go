package llm

import (
	"context"
	"fmt"
)

// Chat roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request carries the messages and sampling parameters for one completion.
type Request struct {
	Messages         []Message
	Temperature      float32
	MaxTokens        int
	PresencePenalty  float32
	FrequencyPenalty float32
	// JSONObject asks the provider to constrain output to a JSON object when it supports it.
	JSONObject bool
}

// Client defines the interface for interacting with different LLM providers.
type Client interface {
	// Complete sends one completion request and returns the raw text of the first choice.
	Complete(ctx context.Context, req Request) (string, error)
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Options configures the provider client built by New.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the Client for the configured provider.
func New(opts Options) (Client, error) {
	switch opts.Provider {
	case "", ProviderOpenAI:
		return NewOpenAIClientFromKey(opts.APIKey, opts.Model, opts.BaseURL)
	case ProviderAnthropic:
		return NewAnthropicClient(opts.APIKey, opts.Model, opts.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrLLMUnknownProvider, opts.Provider)
	}
}
