package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nyra-health/nyra-coach/internal/dto"
	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/store"
	"github.com/nyra-health/nyra-coach/internal/utils"
)

// ChatStore persists chats and their messages, scoped by user
type ChatStore interface {
	ListChats(ctx context.Context, userID string) ([]models.Chat, error)
	CreateChat(ctx context.Context, userID, title string) (*models.Chat, error)
	RenameChat(ctx context.Context, userID, chatID, title string) (*models.Chat, error)
	DeleteChat(ctx context.Context, userID, chatID string) error
	ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error)
	AddMessage(ctx context.Context, userID, chatID, role, content string) (*models.Message, error)
}

const (
	defaultChatTitle = "New chat"
	maxTitleRunes    = 50
)

// ChatsHandler manages chat history endpoints
type ChatsHandler struct {
	store ChatStore
}

// NewChatsHandler creates a new ChatsHandler
func NewChatsHandler(store ChatStore) *ChatsHandler {
	return &ChatsHandler{store: store}
}

// chatTitle picks the stored title: the explicit one, else the start of the
// first message, else a default.
func chatTitle(title, firstMessage string) string {
	if title = strings.TrimSpace(title); title != "" {
		return truncateRunes(title, maxTitleRunes)
	}
	if firstMessage = strings.Join(strings.Fields(firstMessage), " "); firstMessage != "" {
		return truncateRunes(firstMessage, maxTitleRunes)
	}
	return defaultChatTitle
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// chatRequestContext extracts the user id and the {id} path value. It writes
// the error response and returns ok=false when either is unusable.
func chatRequestContext(w http.ResponseWriter, r *http.Request, needChat bool) (userID, chatID string, ok bool) {
	userID, ok = utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid user context")
		return "", "", false
	}
	if !needChat {
		return userID, "", true
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Chat not found")
		return "", "", false
	}
	return userID, id.String(), true
}

func writeStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "Chat not found")
		return
	}
	log.Error().Err(err).Msg(what)
	utils.WriteErrorResponse(w, http.StatusInternalServerError, "Database error", what)
}

// ListChats handles GET /api/chats
// @Summary List my chats
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ChatListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/chats [get]
func (h *ChatsHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := chatRequestContext(w, r, false)
	if !ok {
		return
	}
	chats, err := h.store.ListChats(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err, "Failed to list chats")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.ChatListResponse{Chats: chats})
}

// CreateChat handles POST /api/chats
// @Summary Create a chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateChatRequest true "Chat payload"
// @Success 201 {object} models.Chat
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/chats [post]
func (h *ChatsHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := chatRequestContext(w, r, false)
	if !ok {
		return
	}
	var req dto.CreateChatRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	chat, err := h.store.CreateChat(r.Context(), userID, chatTitle(req.Title, req.FirstMessage))
	if err != nil {
		writeStoreError(w, err, "Failed to create chat")
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, chat)
}

// RenameChat handles PATCH /api/chats/{id}
// @Summary Rename a chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param payload body dto.RenameChatRequest true "New title"
// @Success 200 {object} models.Chat
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/chats/{id} [patch]
func (h *ChatsHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := chatRequestContext(w, r, true)
	if !ok {
		return
	}
	var req dto.RenameChatRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "title is required")
		return
	}

	chat, err := h.store.RenameChat(r.Context(), userID, chatID, truncateRunes(title, maxTitleRunes))
	if err != nil {
		writeStoreError(w, err, "Failed to rename chat")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, chat)
}

// DeleteChat handles DELETE /api/chats/{id}
// @Summary Delete a chat and its messages
// @Tags chats
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/chats/{id} [delete]
func (h *ChatsHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := chatRequestContext(w, r, true)
	if !ok {
		return
	}
	if err := h.store.DeleteChat(r.Context(), userID, chatID); err != nil {
		writeStoreError(w, err, "Failed to delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMessages handles GET /api/chats/{id}/messages
// @Summary List a chat's messages
// @Tags chats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} dto.MessageListResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/chats/{id}/messages [get]
func (h *ChatsHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := chatRequestContext(w, r, true)
	if !ok {
		return
	}
	messages, err := h.store.ListMessages(r.Context(), userID, chatID)
	if err != nil {
		writeStoreError(w, err, "Failed to list messages")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageListResponse{Messages: messages})
}

// AddMessage handles POST /api/chats/{id}/messages
// @Summary Append a message to a chat
// @Tags chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param payload body dto.AddMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/chats/{id}/messages [post]
func (h *ChatsHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	userID, chatID, ok := chatRequestContext(w, r, true)
	if !ok {
		return
	}
	var req dto.AddMessageRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}
	if !models.ValidRole(req.Role) {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "role must be user or assistant")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "content is required")
		return
	}

	msg, err := h.store.AddMessage(r.Context(), userID, chatID, req.Role, req.Content)
	if err != nil {
		writeStoreError(w, err, "Failed to add message")
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, msg)
}
