package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// DefaultAnthropicModel is used when no model name is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicClient implements Client on top of the Anthropic Messages API.
// System messages are lifted into the request's system blocks and assistant
// turns before the first user turn are dropped.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClient creates an Anthropic API client.
func NewAnthropicClient(apiKey, model, baseURL string, extra ...option.RequestOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: anthropic", ErrLLMAPIKeyMissing)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}, nil
}

// Complete implements Client. JSONObject has no native switch here; the
// prompt's own format instruction carries it.
func (a *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", ErrLLMNoMessages
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = 1024
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			// the Messages API requires the conversation to open with a user turn
			if len(params.Messages) == 0 {
				continue
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(params.Messages) == 0 {
		return "", ErrLLMNoMessages
	}

	log.Debug().Str("model", a.model).Int("messages", len(params.Messages)).Msg("Sending request to Anthropic API")
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		log.Error().Err(err).Msg("Anthropic API call failed")
		return "", fmt.Errorf("%w: %w", ErrLLMCompletion, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", ErrLLMEmptyResponse
	}
	return out.String(), nil
}
