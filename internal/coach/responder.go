// Package coach runs one conversational turn: it composes the system prompt
// from the persona, calls the model and shapes the reply for the client.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/nyra-health/nyra-coach/internal/llm"
	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
)

// Fixed user-facing lines.
const (
	FallbackReply = "hmm, kuch issue aa gaya. try again?"
	MissingReply  = "kuch missing lag raha hai 🤔"
)

// DefaultHistoryWindow is the number of trailing turns sent with each request.
const DefaultHistoryWindow = 20

const (
	conversationTemperature = 0.8
	presencePenalty         = 0.4
	frequencyPenalty        = 0.3
	planMaxTokens           = 2500
	replyMaxTokens          = 1800
)

var planIntents = map[string]bool{"diet_plan": true, "workout_plan": true}

const jsonFormatInstruction = `--------------------
RESPONSE FORMAT (CRITICAL)
--------------------
Respond with valid JSON ONLY, using this schema:
{
  "reply": "string (your conversational response, following every rule above)",
  "followUpQuestions": ["string", "string", "string"] (3-4 short follow-up questions the user might ask next)
}

Example:
{
  "reply": "samajh gayi! diet plan ready hai...",
  "followUpQuestions": ["High protein options?", "Veg alternatives?", "Exercise suggestion?"]
}`

// Turn is one history entry as sent by the client.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is the input for one conversational turn.
type TurnRequest struct {
	History []Turn
	Persona *models.Persona
	Intent  string
	// RequestingUserID is optional; when both it and the persona owner are set they must match.
	RequestingUserID string
	// Structured asks for a JSON reply with follow-up questions.
	Structured bool
}

// TurnResult is what the client receives. Failure is set when the model call
// failed and Reply carries the apology; it is never serialized.
type TurnResult struct {
	Reply     string   `json:"reply"`
	Actions   []Action `json:"actions"`
	FollowUps []string `json:"followUpQuestions,omitempty"`
	Failure   error    `json:"-"`
}

// Responder answers conversational turns.
type Responder struct {
	client        llm.Client
	historyWindow int
}

// NewResponder creates a Responder. A non-positive window uses DefaultHistoryWindow.
func NewResponder(client llm.Client, historyWindow int) (*Responder, error) {
	if client == nil {
		return nil, llm.ErrLLMClientNil
	}
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Responder{client: client, historyWindow: historyWindow}, nil
}

// Respond runs one turn. The only returned errors are validation and
// authorization failures; a failed model call degrades into an apology.
func (r *Responder) Respond(ctx context.Context, req TurnRequest) (TurnResult, error) {
	for i, t := range req.History {
		if !models.ValidRole(t.Role) {
			return TurnResult{}, fmt.Errorf("%w: message %d has invalid role %q", persona.ErrValidation, i, t.Role)
		}
	}
	if req.Persona != nil && req.Persona.UserID != "" && req.RequestingUserID != "" &&
		!persona.SameUser(req.Persona.UserID, req.RequestingUserID) {
		log.Warn().
			Str("user_id", req.RequestingUserID).
			Str("persona_user_id", req.Persona.UserID).
			Msg("Persona does not belong to requesting user")
		return TurnResult{}, persona.ErrAuthorization
	}

	system := persona.Compose(req.Persona, req.Intent)
	if req.Structured {
		system += "\n\n" + jsonFormatInstruction
	}

	messages := make([]llm.Message, 0, r.historyWindow+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, t := range r.window(req.History) {
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}

	maxTokens := replyMaxTokens
	if planIntents[req.Intent] {
		maxTokens = planMaxTokens
	}

	raw, err := r.client.Complete(ctx, llm.Request{
		Messages:         messages,
		Temperature:      conversationTemperature,
		MaxTokens:        maxTokens,
		PresencePenalty:  presencePenalty,
		FrequencyPenalty: frequencyPenalty,
		JSONObject:       req.Structured,
	})
	if err != nil {
		failure := fmt.Errorf("%w: %w", persona.ErrUpstream, err)
		log.Error().Err(failure).Str("intent", req.Intent).Msg("Conversation completion failed")
		return TurnResult{Reply: FallbackReply, Actions: []Action{}, Failure: failure}, nil
	}

	result := TurnResult{Actions: ActionsFor(req.Intent, req.Persona)}
	if req.Structured {
		result.Reply, result.FollowUps = parseStructured(raw)
	} else {
		result.Reply = strings.TrimSpace(raw)
	}
	if result.Reply == "" {
		result.Reply = FallbackReply
	}
	return result, nil
}

func (r *Responder) window(history []Turn) []Turn {
	if len(history) <= r.historyWindow {
		return history
	}
	return history[len(history)-r.historyWindow:]
}

// parseStructured decodes the JSON reply. Output with no JSON object is
// returned as the reply itself. Each field is decoded on its own so a
// malformed followUpQuestions only loses the follow-ups; a missing or
// non-string reply yields an empty reply.
func parseStructured(raw string) (string, []string) {
	var fields map[string]json.RawMessage
	obj, err := llm.FindJSONObject(raw)
	if err == nil {
		err = json.Unmarshal(obj, &fields)
	}
	if err != nil {
		log.Warn().Err(errors.Join(persona.ErrParse, err)).Msg("Structured reply not parseable, using raw text")
		return strings.TrimSpace(raw), nil
	}

	var reply string
	if msg, ok := fields["reply"]; ok {
		if err := json.Unmarshal(msg, &reply); err != nil {
			log.Warn().Err(errors.Join(persona.ErrParse, err)).Msg("Structured reply field is not a string")
		}
	}
	return strings.TrimSpace(reply), decodeFollowUps(fields["followUpQuestions"])
}

// decodeFollowUps keeps the non-blank strings of a JSON array. Anything else
// decodes to no follow-ups.
func decodeFollowUps(msg json.RawMessage) []string {
	if len(msg) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(msg, &items); err != nil {
		log.Warn().Err(errors.Join(persona.ErrParse, err)).Msg("Follow-up questions are not a list, dropping them")
		return nil
	}
	return lo.FilterMap(items, func(item any, _ int) (string, bool) {
		q, ok := item.(string)
		q = strings.TrimSpace(q)
		return q, ok && q != ""
	})
}
