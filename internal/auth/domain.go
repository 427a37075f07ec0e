// Package auth manages user accounts and bearer tokens.
package auth

import (
	"fmt"
	"time"

	"github.com/worklog-hq/worklog/internal/platform/httpx"
)

var (
	// ErrEmailTaken is returned when registering an email twice.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", httpx.ErrConflict)
	// ErrInvalidToken is returned for missing, expired, or revoked tokens.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", httpx.ErrUnauthorized)
)

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the Postgres audit record of an issued token.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
