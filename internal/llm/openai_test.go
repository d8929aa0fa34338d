package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	t.Run("Nil_OpenAI_Client", func(t *testing.T) {
		_, err := NewOpenAIClient(nil, "test-model")
		assert.ErrorIs(t, err, ErrLLMClientNil)
	})

	t.Run("Empty_ModelName_Defaults", func(t *testing.T) {
		c, err := NewOpenAIClient(openai.NewClient("dummy-key"), "")
		require.NoError(t, err)
		assert.Equal(t, DefaultOpenAIModel, c.modelName)
	})

	t.Run("Missing_API_Key", func(t *testing.T) {
		_, err := NewOpenAIClientFromKey("", "", "")
		assert.ErrorIs(t, err, ErrLLMAPIKeyMissing)
	})
}

func newMockOpenAI(t *testing.T, status int, body string, seen *openai.ChatCompletionRequest) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintln(w, body)
	}))
	t.Cleanup(server.Close)

	c, err := NewOpenAIClientFromKey("dummy-api-key", "test-model", server.URL+"/v1")
	require.NoError(t, err)
	return c
}

func TestOpenAIClient_Complete(t *testing.T) {
	var seen openai.ChatCompletionRequest
	c := newMockOpenAI(t, http.StatusOK, `{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1677652300, "model": "test-model",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"reply\":\"hi\"}"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
	}`, &seen)

	out, err := c.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "be kind"},
			{Role: RoleUser, Content: "hello"},
		},
		Temperature:      0.8,
		MaxTokens:        1800,
		PresencePenalty:  0.4,
		FrequencyPenalty: 0.3,
		JSONObject:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"hi"}`, out)

	assert.Equal(t, "test-model", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, RoleSystem, seen.Messages[0].Role)
	assert.Equal(t, "hello", seen.Messages[1].Content)
	assert.InDelta(t, 0.8, seen.Temperature, 1e-6)
	assert.Equal(t, 1800, seen.MaxTokens)
	assert.InDelta(t, 0.4, seen.PresencePenalty, 1e-6)
	assert.InDelta(t, 0.3, seen.FrequencyPenalty, 1e-6)
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, seen.ResponseFormat.Type)
}

func TestOpenAIClient_Complete_Errors(t *testing.T) {
	t.Run("API_Error", func(t *testing.T) {
		c := newMockOpenAI(t, http.StatusInternalServerError, `{"error": {"message": "boom", "type": "server_error"}}`, nil)
		_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
		assert.ErrorIs(t, err, ErrLLMCompletion)
	})

	t.Run("No_Choices", func(t *testing.T) {
		c := newMockOpenAI(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": []}`, nil)
		_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
		assert.ErrorIs(t, err, ErrLLMEmptyResponse)
	})

	t.Run("No_Messages", func(t *testing.T) {
		c := newMockOpenAI(t, http.StatusOK, `{}`, nil)
		_, err := c.Complete(context.Background(), Request{})
		assert.ErrorIs(t, err, ErrLLMNoMessages)
	})
}
