package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nyra-health/nyra-coach/internal/models"
)

const chatColumns = `id::text, user_id::text, title, created_at`

const messageColumns = `id::text, chat_id::text, user_id::text, role, content, created_at`

// ListChats returns the user's chats, newest first.
func (s *Postgres) ListChats(ctx context.Context, userID string) ([]models.Chat, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		var c models.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// CreateChat inserts a new chat for the user.
func (s *Postgres) CreateChat(ctx context.Context, userID, title string) (*models.Chat, error) {
	var c models.Chat
	err := s.db.QueryRow(ctx,
		`INSERT INTO chats (user_id, title) VALUES ($1, $2) RETURNING `+chatColumns,
		userID, title).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &c, nil
}

// RenameChat updates the title of a chat the user owns.
func (s *Postgres) RenameChat(ctx context.Context, userID, chatID, title string) (*models.Chat, error) {
	var c models.Chat
	err := s.db.QueryRow(ctx,
		`UPDATE chats SET title = $3 WHERE id = $1 AND user_id = $2 RETURNING `+chatColumns,
		chatID, userID, title).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rename chat: %w", err)
	}
	return &c, nil
}

// DeleteChat deletes the chat's messages and then the chat in one transaction.
func (s *Postgres) DeleteChat(ctx context.Context, userID, chatID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM messages WHERE chat_id = $1 AND user_id = $2`, chatID, userID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *Postgres) ownsChat(ctx context.Context, userID, chatID string) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chats WHERE id = $1 AND user_id = $2)`, chatID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check chat: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// ListMessages returns a chat's messages, oldest first.
func (s *Postgres) ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	if err := s.ownsChat(ctx, userID, chatID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id = $1 AND user_id = $2 ORDER BY created_at ASC, id ASC`,
		chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// AddMessage appends a message to a chat the user owns.
func (s *Postgres) AddMessage(ctx context.Context, userID, chatID, role, content string) (*models.Message, error) {
	var m models.Message
	err := s.db.QueryRow(ctx,
		`INSERT INTO messages (chat_id, user_id, role, content)
		 SELECT id, user_id, $3, $4 FROM chats WHERE id = $1 AND user_id = $2
		 RETURNING `+messageColumns,
		chatID, userID, role, content).Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return &m, nil
}
