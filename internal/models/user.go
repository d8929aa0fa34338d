package models

import "time"

// LoginMethodGoogle is the only sign-in method users are created with
const LoginMethodGoogle = "google"

// User represents a signed-in account in public.users
type User struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	Name        string    `json:"name" db:"name"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	LoginMethod string    `json:"login_method" db:"login_method"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
