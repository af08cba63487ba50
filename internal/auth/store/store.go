// Package store persists auth users and sessions.
package store

import (
	"context"

	"github.com/google/uuid"

	"tradematch/internal/auth/models"
	"tradematch/pkg/domain"
)

// UserStore persists accounts. Create returns sentinel.ErrAlreadyUsed when
// the email is taken.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id domain.UserID) (*models.User, error)
}

// SessionStore persists login sessions with a TTL. FindByID returns
// sentinel.ErrNotFound for unknown ids and sentinel.ErrExpired past the TTL.
type SessionStore interface {
	Save(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}
