package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model name is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIClient implements Client on top of the OpenAI chat completions API.
type OpenAIClient struct {
	client    *openai.Client
	modelName string
}

// NewOpenAIClient wraps a configured go-openai client.
func NewOpenAIClient(client *openai.Client, modelName string) (*OpenAIClient, error) {
	if client == nil {
		return nil, ErrLLMClientNil
	}
	if modelName == "" {
		log.Warn().Msg("modelName is empty for OpenAIClient, defaulting to " + DefaultOpenAIModel)
		modelName = DefaultOpenAIModel
	}
	return &OpenAIClient{client: client, modelName: modelName}, nil
}

// NewOpenAIClientFromKey builds the SDK client from an API key and optional base URL.
func NewOpenAIClientFromKey(apiKey, modelName, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai", ErrLLMAPIKeyMissing)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewOpenAIClient(openai.NewClientWithConfig(cfg), modelName)
}

// Complete implements Client.
func (o *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if o.client == nil {
		return "", ErrLLMClientNil
	}
	if len(req.Messages) == 0 {
		return "", ErrLLMNoMessages
	}

	chatReq := openai.ChatCompletionRequest{
		Model:            o.modelName,
		Messages:         make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if req.JSONObject {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	log.Debug().Str("model", o.modelName).Int("messages", len(chatReq.Messages)).Msg("Sending request to OpenAI API")
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		log.Error().Err(err).Msg("OpenAI API call failed")
		return "", fmt.Errorf("%w: %w", ErrLLMCompletion, err)
	}
	if len(resp.Choices) == 0 {
		log.Error().Msg("Received an empty response (no choices) from OpenAI")
		return "", ErrLLMEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	log.Debug().Int("total_tokens", resp.Usage.TotalTokens).Msg("Received response from OpenAI API")
	return content, nil
}
