package persona_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyra-health/nyra-coach/internal/llm"
	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
	"github.com/nyra-health/nyra-coach/internal/store"
)

const (
	userA = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	userB = "9b2c6a4e-1111-4c2b-8f00-5a6b7c8d9e0f"
)

type stubLLM struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

// countingStore records writes on top of the in-memory store.
type countingStore struct {
	*store.Memory
	upserts int
	deletes []string
	// ownerOverride rewrites the user id on rows returned from UpsertPersona.
	ownerOverride string
	getErr        error
}

func (c *countingStore) GetPersona(ctx context.Context, userID string) (*models.Persona, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.Memory.GetPersona(ctx, userID)
}

func (c *countingStore) UpsertPersona(ctx context.Context, userID string, patch persona.Patch) (*models.Persona, error) {
	c.upserts++
	p, err := c.Memory.UpsertPersona(ctx, userID, patch)
	if err == nil && c.ownerOverride != "" {
		p.UserID = c.ownerOverride
	}
	return p, err
}

func (c *countingStore) DeletePersona(ctx context.Context, id string) error {
	c.deletes = append(c.deletes, id)
	return c.Memory.DeletePersona(ctx, id)
}

func newExtractor(t *testing.T, reply string) (*persona.Extractor, *stubLLM, *countingStore) {
	t.Helper()
	client := &stubLLM{reply: reply}
	st := &countingStore{Memory: store.NewMemory()}
	ex, err := persona.NewExtractor(client, st)
	require.NoError(t, err)
	return ex, client, st
}

func TestExtract_AgeAndDiet(t *testing.T) {
	ex, client, st := newExtractor(t, `{"age": 25, "diet_preference": "Vegetarian"}`)

	res, err := ex.Extract(context.Background(), persona.ExtractRequest{
		UserID:  userA,
		Message: "I'm 25 years old and vegetarian",
	})
	require.NoError(t, err)

	assert.Equal(t, persona.Patch{"age": 25, "diet_preference": "Vegetarian"}, res.Fields)
	require.NotNil(t, res.Persona)
	assert.Equal(t, userA, res.Persona.UserID)
	require.NotNil(t, res.Persona.Age)
	assert.Equal(t, 25, *res.Persona.Age)
	require.NotNil(t, res.Persona.DietPreference)
	assert.Equal(t, "Vegetarian", *res.Persona.DietPreference)
	assert.Len(t, res.Changes, 2)
	assert.Equal(t, 1, st.upserts)

	require.Len(t, client.last.Messages, 1)
	assert.Equal(t, llm.RoleUser, client.last.Messages[0].Role)
	assert.Contains(t, client.last.Messages[0].Content, `"I'm 25 years old and vegetarian"`)
	assert.Contains(t, client.last.Messages[0].Content, "No existing persona")
	assert.InDelta(t, 0.3, client.last.Temperature, 1e-6)
	assert.Equal(t, 600, client.last.MaxTokens)
}

func TestExtract_MergesWithStoredPersona(t *testing.T) {
	ex, client, st := newExtractor(t, `{"height_cm": 180}`)
	_, err := st.Memory.UpsertPersona(context.Background(), userA, persona.Patch{"age": 25})
	require.NoError(t, err)

	res, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "I'm 180cm tall"})
	require.NoError(t, err)

	require.NotNil(t, res.Persona.Age)
	require.NotNil(t, res.Persona.HeightCM)
	assert.Equal(t, 25, *res.Persona.Age)
	assert.Equal(t, 180.0, *res.Persona.HeightCM)
	assert.Contains(t, client.last.Messages[0].Content, `"age": 25`)
}

func TestExtract_NoWritesForEmptyPatch(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "empty object", reply: `{}`},
		{name: "null and empty values", reply: `{"age": null, "weight_kg": ""}`},
		{name: "unparseable reply", reply: `sorry, I could not find anything`},
		{name: "only identity keys", reply: `{"user_id": "` + userB + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, _, st := newExtractor(t, tt.reply)
			res, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "hello there"})
			require.NoError(t, err)
			assert.Empty(t, res.Fields)
			assert.Nil(t, res.Persona)
			assert.Zero(t, st.upserts)
		})
	}
}

func TestExtract_ToleratesFencedJSON(t *testing.T) {
	ex, _, _ := newExtractor(t, "Here you go:\n```json\n{\"stress_level\": \"High\"}\n```")
	res, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "work is stressing me out a lot"})
	require.NoError(t, err)
	assert.Equal(t, persona.Patch{"stress_level": "High"}, res.Fields)
}

func TestExtract_Validation(t *testing.T) {
	ex, client, _ := newExtractor(t, `{}`)

	_, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: "not-a-uuid", Message: "hi"})
	assert.ErrorIs(t, err, persona.ErrValidation)

	_, err = ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "   "})
	assert.ErrorIs(t, err, persona.ErrValidation)

	assert.Zero(t, client.calls)
}

func TestExtract_CanonicalizesUserID(t *testing.T) {
	ex, _, _ := newExtractor(t, `{"age": 40}`)
	res, err := ex.Extract(context.Background(), persona.ExtractRequest{
		UserID:  "3F2504E0-4F89-11D3-9A0C-0305E82C3301",
		Message: "I am 40",
	})
	require.NoError(t, err)
	assert.Equal(t, userA, res.Persona.UserID)
}

func TestExtract_SuppliedPersonaOwnedByOtherUser(t *testing.T) {
	ex, client, st := newExtractor(t, `{"age": 25}`)

	_, err := ex.Extract(context.Background(), persona.ExtractRequest{
		UserID:  userA,
		Message: "I'm 25",
		Current: &models.Persona{UserID: userB},
	})
	assert.ErrorIs(t, err, persona.ErrAuthorization)
	assert.Zero(t, client.calls)
	assert.Zero(t, st.upserts)
}

func TestExtract_IntegrityRollback(t *testing.T) {
	ex, _, st := newExtractor(t, `{"age": 25}`)
	st.ownerOverride = userB

	_, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "I'm 25"})
	assert.ErrorIs(t, err, persona.ErrIntegrity)
	require.Len(t, st.deletes, 1)

	p, err := st.Memory.GetPersona(context.Background(), userA)
	require.NoError(t, err)
	assert.Nil(t, p, "the mismatched row is removed")
}

func TestExtract_UpstreamFailure(t *testing.T) {
	ex, client, st := newExtractor(t, "")
	client.err = llm.ErrLLMCompletion

	_, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "I'm 25"})
	assert.ErrorIs(t, err, persona.ErrUpstream)
	assert.ErrorIs(t, err, llm.ErrLLMCompletion)
	assert.Zero(t, st.upserts)
}

func TestExtract_StoreUnavailable(t *testing.T) {
	ex, client, st := newExtractor(t, `{"age": 25}`)
	st.getErr = errors.New("connection refused")

	_, err := ex.Extract(context.Background(), persona.ExtractRequest{UserID: userA, Message: "I'm 25"})
	assert.ErrorIs(t, err, persona.ErrExtraction)
	assert.Zero(t, client.calls)
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := persona.BuildExtractionPrompt(nil, "I sleep at 11pm")
	for _, f := range persona.Fields {
		assert.Contains(t, prompt, "- "+f.Key+": ")
	}
	assert.Contains(t, prompt, "No existing persona")
	assert.Contains(t, prompt, `"I sleep at 11pm"`)
}

func TestNewExtractor_NilArgs(t *testing.T) {
	_, err := persona.NewExtractor(nil, store.NewMemory())
	assert.ErrorIs(t, err, llm.ErrLLMClientNil)

	_, err = persona.NewExtractor(&stubLLM{}, nil)
	assert.Error(t, err)
}
