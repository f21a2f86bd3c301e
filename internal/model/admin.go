package model

import "time"

// Admin is the single administrative account that manages the site. Passwords
// are stored as bcrypt hashes. TokenVersion is embedded in every issued JWT;
// bumping it invalidates all outstanding tokens for the account.
type Admin struct {
	ID           int64      `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Name         string     `json:"name" db:"name"`
	TokenVersion int64      `json:"-" db:"token_version"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
