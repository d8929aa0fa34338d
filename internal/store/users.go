package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nyra-health/nyra-coach/internal/models"
)

const userColumns = `id::text, email, name, avatar_url, login_method, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.LoginMethod, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertGoogleUser creates the user on first Google login and refreshes the
// profile details on later logins.
func (s *Postgres) UpsertGoogleUser(ctx context.Context, email, name string, avatarURL *string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (email, name, avatar_url, login_method)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url, login_method = EXCLUDED.login_method
		 RETURNING `+userColumns,
		email, name, avatarURL, models.LoginMethodGoogle))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, fmt.Errorf("upsert user (%s): %w", pgErr.Code, err)
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// GetUser returns a user by id.
func (s *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
