package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
)

const testUser = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

func TestMemory_PersonaUpsertMerges(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	p, err := m.GetPersona(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, p)

	first, err := m.UpsertPersona(ctx, testUser, persona.Patch{"age": 25})
	require.NoError(t, err)
	require.NotNil(t, first.Age)
	assert.NotEmpty(t, first.ID)

	second, err := m.UpsertPersona(ctx, testUser, persona.Patch{"height_cm": 180.0})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.Age)
	require.NotNil(t, second.HeightCM)
	assert.Equal(t, 25, *second.Age)
	assert.Equal(t, 180.0, *second.HeightCM)
	assert.Equal(t, testUser, second.UserID)
}

func TestMemory_UpsertEmptyPatch(t *testing.T) {
	_, err := NewMemory().UpsertPersona(context.Background(), testUser, persona.Patch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)
}

func TestMemory_DeletePersona(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p, err := m.UpsertPersona(ctx, testUser, persona.Patch{"gender": "Female"})
	require.NoError(t, err)

	require.NoError(t, m.DeletePersona(ctx, p.ID))
	got, err := m.GetPersona(ctx, testUser)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, m.DeletePersona(ctx, p.ID), ErrNotFound)
}

func TestMemory_ChatsScopedByUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	const other = "9b2c6a4e-1111-4c2b-8f00-5a6b7c8d9e0f"

	older, err := m.CreateChat(ctx, testUser, "first")
	require.NoError(t, err)
	newer, err := m.CreateChat(ctx, testUser, "second")
	require.NoError(t, err)
	_, err = m.CreateChat(ctx, other, "not mine")
	require.NoError(t, err)

	chats, err := m.ListChats(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, newer.ID, chats[0].ID)
	assert.Equal(t, older.ID, chats[1].ID)

	_, err = m.RenameChat(ctx, other, older.ID, "hijack")
	assert.ErrorIs(t, err, ErrNotFound)

	renamed, err := m.RenameChat(ctx, testUser, older.ID, "renamed")
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.Title)
}

func TestMemory_MessagesAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	chat, err := m.CreateChat(ctx, testUser, "chat")
	require.NoError(t, err)

	_, err = m.AddMessage(ctx, testUser, chat.ID, models.RoleUser, "hi")
	require.NoError(t, err)
	_, err = m.AddMessage(ctx, testUser, chat.ID, models.RoleAssistant, "hello!")
	require.NoError(t, err)

	msgs, err := m.ListMessages(ctx, testUser, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "hello!", msgs[1].Content)

	_, err = m.AddMessage(ctx, "someone-else", chat.ID, models.RoleUser, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteChat(ctx, testUser, chat.ID))
	_, err = m.ListMessages(ctx, testUser, chat.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, m.messages)
}

func TestMemory_UpsertGoogleUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u1, err := m.UpsertGoogleUser(ctx, "a@example.com", "A", nil)
	require.NoError(t, err)
	avatar := "https://img.example.com/a.png"
	u2, err := m.UpsertGoogleUser(ctx, "a@example.com", "A B", &avatar)
	require.NoError(t, err)

	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, "A B", u2.Name)
	assert.Equal(t, models.LoginMethodGoogle, u2.LoginMethod)

	got, err := m.GetUser(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, &avatar, got.AvatarURL)
}
