package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nyra-health/nyra-coach/internal/dto"
	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/store"
	"github.com/nyra-health/nyra-coach/internal/utils"
)

// UserStore reads and creates user accounts
type UserStore interface {
	UpsertGoogleUser(ctx context.Context, email, name string, avatarURL *string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	users UserStore
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(users UserStore) *AuthHandler {
	return &AuthHandler{users: users}
}

// Me returns the authenticated user's account
// @Summary Get current user
// @Description Get the signed-in user's account
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse "Unauthorized or token does not match account"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "User not found", "User account does not exist")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load user")
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", "Failed to load user")
		return
	}

	// the token must still describe this account
	if email, ok := utils.GetEmailFromContext(r.Context()); ok && !strings.EqualFold(email, user.Email) {
		log.Warn().Str("user_id", userID).Msg("Token email does not match account")
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Token does not match account")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.NewUserResponse(user))
}
