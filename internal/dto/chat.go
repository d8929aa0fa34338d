package dto

import (
	"encoding/json"

	"github.com/nyra-health/nyra-coach/internal/coach"
)

// Reply modes accepted by the conversation endpoint
const (
	ChatModeJSON = "json"
	ChatModeText = "text"
)

// ChatRequest is the conversation endpoint payload. Messages is kept raw so a
// non-array value can be answered with the fallback reply.
type ChatRequest struct {
	Messages json.RawMessage `json:"messages" swaggertype:"array,object"`
	Persona  map[string]any  `json:"persona,omitempty"`
	Intent   string          `json:"intent,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Mode     string          `json:"mode,omitempty" enums:"json,text"`
}

// ChatResponse is the conversation endpoint reply
type ChatResponse struct {
	Reply             string         `json:"reply"`
	Actions           []coach.Action `json:"actions"`
	FollowUpQuestions []string       `json:"followUpQuestions,omitempty"`
}
