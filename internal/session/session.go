// Package session keeps server-side login sessions. A session binds an opaque id,
// carried in a signed cookie, to a user id and user type until it expires.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/eventboard/backend/internal/models"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session is one authenticated login.
type Session struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	UserType  models.UserType `json:"userType"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store persists sessions. Get must return ErrNotFound for missing or expired ids.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
