package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyra-health/nyra-coach/internal/dto"
	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/store"
)

// chatsMux routes through a ServeMux so {id} path values are populated.
func chatsMux(h *ChatsHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/chats", h.ListChats)
	mux.HandleFunc("POST /api/chats", h.CreateChat)
	mux.HandleFunc("PATCH /api/chats/{id}", h.RenameChat)
	mux.HandleFunc("DELETE /api/chats/{id}", h.DeleteChat)
	mux.HandleFunc("GET /api/chats/{id}/messages", h.ListMessages)
	mux.HandleFunc("POST /api/chats/{id}/messages", h.AddMessage)
	return mux
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestChats_Lifecycle(t *testing.T) {
	mux := chatsMux(NewChatsHandler(store.NewMemory()))

	rec := serve(mux, authedRequest(http.MethodPost, "/api/chats", `{"firstMessage": "mujhe weight loss ke liye diet plan chahiye please help karo"}`, userA))
	require.Equal(t, http.StatusCreated, rec.Code)
	var chat models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, "mujhe weight loss ke liye diet plan chahiye please", chat.Title)

	rec = serve(mux, authedRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", `{"role": "user", "content": "hi"}`, userA))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = serve(mux, authedRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", `{"role": "assistant", "content": "namaste!"}`, userA))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(mux, authedRequest(http.MethodGet, "/api/chats/"+chat.ID+"/messages", "", userA))
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs dto.MessageListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs.Messages, 2)
	assert.Equal(t, "hi", msgs.Messages[0].Content)

	rec = serve(mux, authedRequest(http.MethodPatch, "/api/chats/"+chat.ID, `{"title": "Diet"}`, userA))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Diet"`)

	rec = serve(mux, authedRequest(http.MethodGet, "/api/chats", "", userA))
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ChatListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Chats, 1)

	rec = serve(mux, authedRequest(http.MethodDelete, "/api/chats/"+chat.ID, "", userA))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(mux, authedRequest(http.MethodGet, "/api/chats/"+chat.ID+"/messages", "", userA))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChats_ScopedByUser(t *testing.T) {
	mux := chatsMux(NewChatsHandler(store.NewMemory()))

	rec := serve(mux, authedRequest(http.MethodPost, "/api/chats", `{"title": "mine"}`, userA))
	require.Equal(t, http.StatusCreated, rec.Code)
	var chat models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))

	for _, req := range []*http.Request{
		authedRequest(http.MethodGet, "/api/chats/"+chat.ID+"/messages", "", userB),
		authedRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", `{"role": "user", "content": "x"}`, userB),
		authedRequest(http.MethodPatch, "/api/chats/"+chat.ID, `{"title": "theirs"}`, userB),
		authedRequest(http.MethodDelete, "/api/chats/"+chat.ID, "", userB),
	} {
		rec := serve(mux, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", req.Method, req.URL.Path)
	}

	rec = serve(mux, authedRequest(http.MethodGet, "/api/chats", "", userB))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"chats": []}`, rec.Body.String())
}

func TestChats_Validation(t *testing.T) {
	mux := chatsMux(NewChatsHandler(store.NewMemory()))

	rec := serve(mux, authedRequest(http.MethodPost, "/api/chats", `{}`, userA))
	require.Equal(t, http.StatusCreated, rec.Code)
	var chat models.Chat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	assert.Equal(t, defaultChatTitle, chat.Title)

	rec = serve(mux, authedRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", `{"role": "system", "content": "x"}`, userA))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, authedRequest(http.MethodPost, "/api/chats/"+chat.ID+"/messages", `{"role": "user", "content": "  "}`, userA))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, authedRequest(http.MethodPatch, "/api/chats/"+chat.ID, `{"title": " "}`, userA))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, authedRequest(http.MethodGet, "/api/chats/not-a-uuid/messages", "", userA))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/chats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatTitle(t *testing.T) {
	assert.Equal(t, "Explicit", chatTitle("  Explicit ", "ignored"))
	assert.Equal(t, "hello world", chatTitle("", "  hello\n  world "))
	assert.Equal(t, defaultChatTitle, chatTitle("", "   "))
	long := strings.Repeat("नमस्ते", 20)
	assert.Equal(t, maxTitleRunes, len([]rune(chatTitle(long, ""))))
}
