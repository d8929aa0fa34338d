package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nyra-health/nyra-coach/internal/coach"
	"github.com/nyra-health/nyra-coach/internal/dto"
	"github.com/nyra-health/nyra-coach/internal/persona"
	"github.com/nyra-health/nyra-coach/internal/utils"
)

// TurnResponder answers one conversational turn
type TurnResponder interface {
	Respond(ctx context.Context, req coach.TurnRequest) (coach.TurnResult, error)
}

// ConversationHandler serves the coaching chat endpoint
type ConversationHandler struct {
	responder TurnResponder
}

// NewConversationHandler creates a new ConversationHandler instance
func NewConversationHandler(responder TurnResponder) *ConversationHandler {
	return &ConversationHandler{responder: responder}
}

func writeMissing(w http.ResponseWriter) {
	utils.WriteJSONResponse(w, http.StatusBadRequest, dto.ChatResponse{
		Reply:   coach.MissingReply,
		Actions: []coach.Action{},
	})
}

// Chat handles one conversational turn
// @Summary Chat with the coach
// @Description Sends the conversation history with the persona context to the LLM and returns the coach's reply
// @Tags chat
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Conversation turn"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} dto.ChatResponse "Malformed messages"
// @Failure 403 {object} dto.ErrorResponse "Persona belongs to another user"
// @Router /api/chat [post]
func (h *ConversationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := utils.DecodeJSONBody(w, r, &req); err != nil {
		log.Warn().Err(err).Msg("Undecodable chat request")
		writeMissing(w)
		return
	}

	raw := bytes.TrimSpace(req.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		writeMissing(w)
		return
	}
	var history []coach.Turn
	if err := json.Unmarshal(raw, &history); err != nil {
		log.Warn().Err(err).Msg("Chat messages are not a list of turns")
		writeMissing(w)
		return
	}

	var structured bool
	switch req.Mode {
	case "", dto.ChatModeJSON:
		structured = true
	case dto.ChatModeText:
	default:
		writeMissing(w)
		return
	}

	result, err := h.responder.Respond(r.Context(), coach.TurnRequest{
		History:          history,
		Persona:          persona.FromMap(req.Persona),
		Intent:           req.Intent,
		RequestingUserID: req.UserID,
		Structured:       structured,
	})
	switch {
	case errors.Is(err, persona.ErrAuthorization):
		utils.WriteErrorResponse(w, http.StatusForbidden, "Forbidden", "Persona does not belong to the requesting user")
		return
	case errors.Is(err, persona.ErrValidation):
		writeMissing(w)
		return
	case err != nil:
		log.Error().Err(err).Msg("Chat turn failed")
		utils.WriteJSONResponse(w, http.StatusOK, dto.ChatResponse{Reply: coach.FallbackReply, Actions: []coach.Action{}})
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.ChatResponse{
		Reply:             result.Reply,
		Actions:           result.Actions,
		FollowUpQuestions: result.FollowUps,
	})
}
