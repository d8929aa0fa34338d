package llm

import "errors"

// Sentinel errors for LLM client and parsing operations.

// ErrLLMClientNil indicates the provider SDK client was nil when used.
var ErrLLMClientNil = errors.New("LLM client cannot be nil")

// ErrLLMAPIKeyMissing indicates no API key was configured for the selected provider.
var ErrLLMAPIKeyMissing = errors.New("LLM API key not set")

// ErrLLMNoMessages indicates a completion was requested without any messages.
var ErrLLMNoMessages = errors.New("completion request has no messages")

// ErrLLMCompletion indicates an error occurred during the LLM API call (network, quota, bad request).
// The underlying SDK error is wrapped.
var ErrLLMCompletion = errors.New("failed to create LLM completion")

// ErrLLMEmptyResponse indicates the LLM returned no usable content.
var ErrLLMEmptyResponse = errors.New("received an empty response from LLM")

// ErrLLMResponseJSONFind indicates no JSON object could be found in the LLM response.
var ErrLLMResponseJSONFind = errors.New("failed to find JSON object in LLM response")

// ErrLLMUnknownProvider indicates the configured provider name is not supported.
var ErrLLMUnknownProvider = errors.New("unknown LLM provider")
