package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/nyra-health/nyra-coach/internal/models"
	"github.com/nyra-health/nyra-coach/internal/persona"
)

var personaColumns = strings.Join(append(
	append([]string{"id::text", "user_id::text"}, lo.Map(persona.Fields, func(f persona.Field, _ int) string { return f.Key })...),
	"created_at", "updated_at",
), ", ")

func scanPersona(row pgx.Row) (*models.Persona, error) {
	var p models.Persona
	targets := []any{&p.ID, &p.UserID}
	for _, f := range persona.Fields {
		targets = append(targets, f.ScanTarget(&p))
	}
	targets = append(targets, &p.CreatedAt, &p.UpdatedAt)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPersona returns the user's persona, or nil when none exists.
func (s *Postgres) GetPersona(ctx context.Context, userID string) (*models.Persona, error) {
	p, err := scanPersona(s.db.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get persona: %w", err)
	}
	return p, nil
}

// UpsertPersona writes patch in a single INSERT ... ON CONFLICT statement so
// concurrent first writes for one user cannot create two rows.
func (s *Postgres) UpsertPersona(ctx context.Context, userID string, patch persona.Patch) (*models.Persona, error) {
	keys := patch.Keys()
	if len(keys) == 0 {
		return nil, ErrEmptyPatch
	}

	columns := []string{"user_id"}
	placeholders := []string{"$1"}
	updates := make([]string, 0, len(keys)+1)
	args := []any{userID}
	for i, key := range keys {
		columns = append(columns, key)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", key, key))
		args = append(args, patch[key])
	}
	updates = append(updates, "updated_at = now()")

	query := fmt.Sprintf(
		`INSERT INTO personas (%s) VALUES (%s)
		 ON CONFLICT (user_id) DO UPDATE SET %s
		 RETURNING %s`,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
		personaColumns,
	)

	p, err := scanPersona(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert persona: %w", err)
	}
	return p, nil
}

// DeletePersona removes a persona row by its id.
func (s *Postgres) DeletePersona(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete persona: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
