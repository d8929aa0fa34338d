package dto

import "github.com/nyra-health/nyra-coach/internal/models"

// CreateChatRequest creates a chat. A blank title is derived from FirstMessage
type CreateChatRequest struct {
	Title        string `json:"title,omitempty"`
	FirstMessage string `json:"firstMessage,omitempty"`
}

// RenameChatRequest renames a chat
type RenameChatRequest struct {
	Title string `json:"title"`
}

// AddMessageRequest appends a message to a chat
type AddMessageRequest struct {
	Role    string `json:"role" enums:"user,assistant"`
	Content string `json:"content"`
}

// ChatListResponse lists the caller's chats, newest first
type ChatListResponse struct {
	Chats []models.Chat `json:"chats"`
}

// MessageListResponse lists a chat's messages, oldest first
type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
}
