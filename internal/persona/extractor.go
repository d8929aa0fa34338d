package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nyra-health/nyra-coach/internal/llm"
	"github.com/nyra-health/nyra-coach/internal/models"
)

// Store is the persona persistence the extractor needs.
type Store interface {
	// GetPersona returns nil, nil when the user has no persona yet.
	GetPersona(ctx context.Context, userID string) (*models.Persona, error)
	// UpsertPersona inserts or updates the user's persona with patch in one operation.
	UpsertPersona(ctx context.Context, userID string, patch Patch) (*models.Persona, error)
	DeletePersona(ctx context.Context, id string) error
}

const (
	extractionTemperature = 0.3
	extractionMaxTokens   = 600
)

// Extractor pulls explicitly stated profile fields out of a user message and
// merges them into the stored persona.
type Extractor struct {
	client llm.Client
	store  Store
}

// NewExtractor creates an Extractor.
func NewExtractor(client llm.Client, store Store) (*Extractor, error) {
	if client == nil {
		return nil, llm.ErrLLMClientNil
	}
	if store == nil {
		return nil, errors.New("persona store cannot be nil")
	}
	return &Extractor{client: client, store: store}, nil
}

// ExtractRequest is the input for one extraction. Current may be supplied by
// the caller; when nil the persona is read from the store.
type ExtractRequest struct {
	UserID  string
	Message string
	Current *models.Persona
}

// ExtractResult holds the cleaned fields and the persisted persona.
// Persona is nil when nothing was extracted.
type ExtractResult struct {
	Fields  Patch
	Persona *models.Persona
	Changes []FieldChange
}

// Extract runs one extraction. An unparseable model reply yields an empty
// result rather than an error.
func (e *Extractor) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	userID, err := CanonicalUserID(req.UserID)
	if err != nil {
		return ExtractResult{}, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return ExtractResult{}, fmt.Errorf("%w: userMessage is required", ErrValidation)
	}

	current := req.Current
	if current == nil {
		current, err = e.store.GetPersona(ctx, userID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Persona fetch failed")
			return ExtractResult{}, fmt.Errorf("%w: %w", ErrExtraction, err)
		}
	}
	if current != nil && !SameUser(current.UserID, userID) {
		log.Error().Str("user_id", userID).Str("persona_user_id", current.UserID).Msg("Persona ownership mismatch before extraction")
		return ExtractResult{}, ErrAuthorization
	}

	raw, err := e.client.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: BuildExtractionPrompt(current, req.Message)}},
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		return ExtractResult{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	log.Debug().Str("user_id", userID).Str("raw_response", raw).Msg("LLM extraction response")

	fields, err := parseExtraction(raw)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Extraction reply not parseable, treating as no fields")
		return ExtractResult{Fields: Patch{}}, nil
	}
	patch, dropped := Clean(fields)
	if len(dropped) > 0 {
		log.Debug().Strs("dropped", dropped).Str("user_id", userID).Msg("Dropped extracted fields")
	}
	if len(patch) == 0 {
		log.Info().Str("user_id", userID).Msg("No persona info found in message")
		return ExtractResult{Fields: patch}, nil
	}

	_, changes := Merge(current, userID, patch)
	for _, c := range changes {
		log.Info().
			Str("user_id", userID).
			Str("field", c.Field).
			Interface("before", c.Before).
			Interface("after", c.After).
			Msg("Persona field merged")
	}

	saved, err := e.store.UpsertPersona(ctx, userID, patch)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Persona upsert failed")
		return ExtractResult{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	if err := VerifyOwnership(ctx, e.store, saved, userID); err != nil {
		return ExtractResult{}, err
	}

	return ExtractResult{Fields: patch, Persona: saved, Changes: changes}, nil
}

// VerifyOwnership checks a just-written persona belongs to userID. On a
// mismatch the row is deleted and ErrIntegrity returned.
func VerifyOwnership(ctx context.Context, store Store, saved *models.Persona, userID string) error {
	if saved != nil && SameUser(saved.UserID, userID) {
		return nil
	}
	if saved == nil {
		log.Error().Str("user_id", userID).Msg("Persona upsert returned no row")
		return fmt.Errorf("%w: upsert returned no row", ErrIntegrity)
	}
	log.Error().Str("user_id", userID).Str("persona_user_id", saved.UserID).Str("persona_id", saved.ID).
		Msg("Persisted persona has wrong user_id, reverting write")
	if err := store.DeletePersona(ctx, saved.ID); err != nil {
		log.Error().Err(err).Str("persona_id", saved.ID).Msg("Failed to delete mismatched persona")
	}
	return ErrIntegrity
}

func parseExtraction(raw string) (map[string]any, error) {
	obj, err := llm.FindJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	var fields map[string]any
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return fields, nil
}

// BuildExtractionPrompt assembles the field schema, the current persona and
// the literal user message into the extraction instruction.
func BuildExtractionPrompt(current *models.Persona, message string) string {
	var b strings.Builder

	b.WriteString("You are an expert at extracting health & wellness information from conversations.\n\n")

	b.WriteString("PERSONA FIELDS TO EXTRACT (if mentioned):\n")
	for _, f := range Fields {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", f.Key, f.Kind, f.Hint)
	}

	b.WriteString("\nCURRENT PERSONA (for context, avoid overwriting if user doesn't mention):\n")
	if current == nil {
		b.WriteString("No existing persona\n")
	} else if data, err := json.MarshalIndent(current, "", "  "); err == nil {
		b.Write(data)
		b.WriteString("\n")
	}

	b.WriteString("\nUSER MESSAGE:\n")
	b.WriteString(`"` + message + `"` + "\n\n")

	b.WriteString(`TASK:
1. Decide whether the message contains ANY persona information
2. Extract ONLY the fields the user explicitly mentioned
3. Return JSON with ONLY the fields that should be updated
4. If no persona information is found, return an empty object {}
5. Do NOT infer or assume anything not explicitly stated
6. For age, height and weight return numbers only
7. Convert times to the HH:MM AM/PM format
8. Normalize health goals and diet preferences to the example values when the wording matches

IMPORTANT:
- Do NOT overwrite existing values unless the user explicitly mentions a change
- Be conservative: only extract what the user clearly stated
- Extract activity type, frequency and duration separately when all are mentioned
- List every mentioned medical condition, separated by commas

Return ONLY valid JSON with the extracted fields, no explanations.`)

	return b.String()
}
