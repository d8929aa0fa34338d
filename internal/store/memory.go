package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
)

// Memory is a process-local store with the same semantics as Postgres.
type Memory struct {
	mu       sync.Mutex
	users    map[string]models.User
	personas map[string]models.Persona // keyed by user id
	chats    []models.Chat
	messages []models.Message
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    map[string]models.User{},
		personas: map[string]models.Persona{},
		now:      time.Now,
	}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) GetPersona(_ context.Context, userID string) (*models.Persona, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.personas[strings.ToLower(userID)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) UpsertPersona(_ context.Context, userID string, patch persona.Patch) (*models.Persona, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(userID)
	now := m.now()
	var current *models.Persona
	if p, ok := m.personas[key]; ok {
		current = &p
	}
	merged, _ := persona.Merge(current, key, patch)
	if merged.ID == "" {
		merged.ID = uuid.NewString()
		merged.CreatedAt = &now
	}
	merged.UpdatedAt = &now
	m.personas[key] = merged
	return &merged, nil
}

func (m *Memory) DeletePersona(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, p := range m.personas {
		if p.ID == id {
			delete(m.personas, key)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListChats(_ context.Context, userID string) ([]models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chats := lo.Filter(m.chats, func(c models.Chat, _ int) bool { return c.UserID == userID })
	slices.Reverse(chats)
	return chats, nil
}

func (m *Memory) CreateChat(_ context.Context, userID, title string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := models.Chat{ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: m.now()}
	m.chats = append(m.chats, c)
	return &c, nil
}

func (m *Memory) chatIndex(userID, chatID string) int {
	return slices.IndexFunc(m.chats, func(c models.Chat) bool { return c.ID == chatID && c.UserID == userID })
}

func (m *Memory) RenameChat(_ context.Context, userID, chatID, title string) (*models.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.chatIndex(userID, chatID)
	if i < 0 {
		return nil, ErrNotFound
	}
	m.chats[i].Title = title
	c := m.chats[i]
	return &c, nil
}

func (m *Memory) DeleteChat(_ context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.chatIndex(userID, chatID)
	if i < 0 {
		return ErrNotFound
	}
	m.messages = lo.Reject(m.messages, func(msg models.Message, _ int) bool {
		return msg.ChatID == chatID && msg.UserID == userID
	})
	m.chats = slices.Delete(m.chats, i, i+1)
	return nil
}

func (m *Memory) ListMessages(_ context.Context, userID, chatID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chatIndex(userID, chatID) < 0 {
		return nil, ErrNotFound
	}
	return lo.Filter(m.messages, func(msg models.Message, _ int) bool {
		return msg.ChatID == chatID && msg.UserID == userID
	}), nil
}

func (m *Memory) AddMessage(_ context.Context, userID, chatID, role, content string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chatIndex(userID, chatID) < 0 {
		return nil, ErrNotFound
	}
	msg := models.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: m.now(),
	}
	m.messages = append(m.messages, msg)
	return &msg, nil
}

func (m *Memory) UpsertGoogleUser(_ context.Context, email, name string, avatarURL *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == email {
			u.Name = name
			u.AvatarURL = avatarURL
			u.LoginMethod = models.LoginMethodGoogle
			m.users[id] = u
			return &u, nil
		}
	}
	u := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		Name:        name,
		AvatarURL:   avatarURL,
		LoginMethod: models.LoginMethodGoogle,
		CreatedAt:   m.now(),
	}
	m.users[u.ID] = u
	return &u, nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
