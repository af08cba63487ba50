// Package store persists interviews. Implementations return sentinel errors;
// the service layer translates them into domain errors.
package store

import (
	"context"

	"tradematch/internal/interview/models"
	"tradematch/pkg/domain"
)

// Store is the interview persistence port. ActiveExists reports whether any
// non-cancelled interview exists for an application; it backs the transition
// engine's interviewScheduled gate.
type Store interface {
	Create(ctx context.Context, iv *models.Interview) error
	FindByID(ctx context.Context, id domain.InterviewID) (*models.Interview, error)
	Update(ctx context.Context, iv *models.Interview) error
	ListByApplication(ctx context.Context, applicationID domain.ApplicationID) ([]*models.Interview, error)
	ActiveExists(ctx context.Context, applicationID domain.ApplicationID) (bool, error)
}
