package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nyra-health/nyra-coach/internal/dto"
	"github.com/nyra-health/nyra-coach/internal/persona"
	"github.com/nyra-health/nyra-coach/internal/utils"
)

// PersonaExtractor pulls persona fields out of a user message
type PersonaExtractor interface {
	Extract(ctx context.Context, req persona.ExtractRequest) (persona.ExtractResult, error)
}

// PersonaHandler serves persona extraction and the caller's persona record
type PersonaHandler struct {
	extractor PersonaExtractor
	store     persona.Store
}

// NewPersonaHandler creates a new PersonaHandler instance
func NewPersonaHandler(extractor PersonaExtractor, store persona.Store) *PersonaHandler {
	return &PersonaHandler{extractor: extractor, store: store}
}

func writeExtractError(w http.ResponseWriter, status int, msg string) {
	utils.WriteJSONResponse(w, status, dto.ExtractPersonaError{Success: false, Error: msg})
}

// ExtractPersona extracts persona fields from a user message and saves them
// @Summary Extract persona fields
// @Description Uses the LLM to find explicitly stated profile details in a message and merges them into the user's persona
// @Tags persona
// @Accept json
// @Produce json
// @Param payload body dto.ExtractPersonaRequest true "Message and user id"
// @Success 200 {object} dto.ExtractPersonaResponse
// @Failure 400 {object} dto.ExtractPersonaError "Missing fields or malformed user id"
// @Failure 403 {object} dto.ExtractPersonaError "Persona belongs to another user"
// @Failure 500 {object} dto.ExtractPersonaError "Extraction failed"
// @Router /api/extract-persona [post]
func (h *PersonaHandler) ExtractPersona(w http.ResponseWriter, r *http.Request) {
	var req dto.ExtractPersonaRequest
	if err := utils.DecodeJSONBody(w, r, &req); err != nil {
		writeExtractError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" || strings.TrimSpace(req.UserID) == "" {
		writeExtractError(w, http.StatusBadRequest, "Missing userMessage or userId")
		return
	}

	result, err := h.extractor.Extract(r.Context(), persona.ExtractRequest{
		UserID:  req.UserID,
		Message: req.UserMessage,
	})
	if err != nil {
		switch {
		case errors.Is(err, persona.ErrValidation):
			writeExtractError(w, http.StatusBadRequest, "Invalid user ID format")
		case errors.Is(err, persona.ErrAuthorization):
			writeExtractError(w, http.StatusForbidden, "Unauthorized")
		case errors.Is(err, persona.ErrIntegrity):
			writeExtractError(w, http.StatusInternalServerError, "Data integrity error")
		default:
			log.Error().Err(err).Msg("Persona extraction failed")
			writeExtractError(w, http.StatusInternalServerError, "Failed to extract persona")
		}
		return
	}

	message := "No persona information found"
	if result.Persona != nil {
		message = "Persona updated successfully"
	}
	fields := result.Fields
	if fields == nil {
		fields = persona.Patch{}
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.ExtractPersonaResponse{
		Success:         true,
		ExtractedFields: fields,
		UpdatedPersona:  result.Persona,
		Message:         message,
	})
}

// GetPersona returns the caller's persona
// @Summary Get my persona
// @Tags persona
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.PersonaResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/persona [get]
func (h *PersonaHandler) GetPersona(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	p, err := h.store.GetPersona(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load persona")
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", "Failed to load persona")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.PersonaResponse{Persona: p})
}

// SavePersona explicitly saves fields of the caller's persona
// @Summary Save my persona
// @Description Merges the given fields into the caller's persona. Unknown keys and empty values are ignored
// @Tags persona
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object true "Persona fields"
// @Success 200 {object} dto.PersonaResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/persona [put]
func (h *PersonaHandler) SavePersona(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	var raw map[string]any
	if err := utils.DecodeJSONRequest(w, r, &raw); err != nil {
		return
	}
	patch, dropped := persona.Clean(raw)
	if len(patch) == 0 {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "No valid persona fields provided")
		return
	}
	if len(dropped) > 0 {
		log.Debug().Strs("dropped", dropped).Str("user_id", userID).Msg("Ignored persona fields")
	}

	saved, err := h.store.UpsertPersona(r.Context(), userID, patch)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save persona")
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", "Failed to save persona")
		return
	}
	if err := persona.VerifyOwnership(r.Context(), h.store, saved, userID); err != nil {
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Data integrity error", "Persona could not be saved")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.PersonaResponse{Persona: saved})
}
