// Package models holds the auth entities: user credentials and login
// sessions. Profile data beyond role lives in the marketplace's profile
// system, not here.
package models

import (
	"time"

	"github.com/google/uuid"

	"tradematch/pkg/domain"
)

// User is an authenticated account with exactly one role.
type User struct {
	ID           domain.UserID
	Email        string
	PasswordHash string
	Role         domain.Role
	CreatedAt    time.Time
}

// Session records one login. Device is a parsed user-agent summary kept for
// the account's session overview.
type Session struct {
	ID        uuid.UUID
	UserID    domain.UserID
	Role      domain.Role
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its TTL.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
