package models

import "time"

// Chat is a conversation container owned by one user
type Chat struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message roles accepted by the chat log and the conversation endpoint
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat's append-only log
type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidRole reports whether role is one of the two chat roles
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
