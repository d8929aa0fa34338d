package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
)

// newTestPostgres connects to NYRA_TEST_DATABASE_URL and migrates it, or
// skips the test when the variable is unset.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("NYRA_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("NYRA_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool, "up"))
	return NewPostgres(pool)
}

func TestPostgres_PersonaUpsert(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()
	userID := uuid.NewString()

	p, err := s.GetPersona(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, p)

	first, err := s.UpsertPersona(ctx, userID, persona.Patch{"age": 25, "diet_preference": "Vegetarian"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DeletePersona(ctx, first.ID) })

	second, err := s.UpsertPersona(ctx, userID, persona.Patch{"height_cm": 180.5})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, userID, second.UserID)
	require.NotNil(t, second.Age)
	assert.Equal(t, 25, *second.Age)
	require.NotNil(t, second.HeightCM)
	assert.Equal(t, 180.5, *second.HeightCM)
	require.NotNil(t, second.DietPreference)
	assert.Equal(t, "Vegetarian", *second.DietPreference)

	got, err := s.GetPersona(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestPostgres_ChatLifecycle(t *testing.T) {
	s := newTestPostgres(t)
	ctx := context.Background()

	user, err := s.UpsertGoogleUser(ctx, uuid.NewString()+"@example.com", "Test", nil)
	require.NoError(t, err)

	chat, err := s.CreateChat(ctx, user.ID, "hello")
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, user.ID, chat.ID, models.RoleUser, "hi")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, user.ID, chat.ID, models.RoleAssistant, "namaste!")
	require.NoError(t, err)

	msgs, err := s.ListMessages(ctx, user.ID, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)

	_, err = s.RenameChat(ctx, uuid.NewString(), chat.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteChat(ctx, user.ID, chat.ID))
	assert.ErrorIs(t, s.DeleteChat(ctx, user.ID, chat.ID), ErrNotFound)
}
