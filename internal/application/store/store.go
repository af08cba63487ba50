// Package store persists applications. Implementations return sentinel
// errors; the service layer translates them into domain errors.
package store

import (
	"context"
	"time"

	"tradematch/internal/application/models"
	"tradematch/pkg/domain"
)

// Store is the application persistence port.
//
// CreateIfAbsent is the authoritative duplicate-application guard: it must
// atomically refuse a second non-withdrawn application for the same
// (applicant, job) pair, returning sentinel.ErrAlreadyUsed. The Postgres
// implementation leans on a partial unique index; the in-memory one on a
// locked check-and-insert.
//
// UpdateStatusIf implements optimistic concurrency: the write succeeds only
// when the row still holds the status the caller read, otherwise it returns
// sentinel.ErrConflict (or sentinel.ErrNotFound for a missing row).
type Store interface {
	CreateIfAbsent(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error)
	FindActive(ctx context.Context, applicantID domain.UserID, jobID domain.JobID) (*models.Application, error)
	UpdateStatusIf(ctx context.Context, id domain.ApplicationID, from, to models.Status, now time.Time) error
	ListByApplicant(ctx context.Context, applicantID domain.UserID) ([]*models.Application, error)
	ListByJobs(ctx context.Context, jobIDs []domain.JobID) ([]*models.Application, error)
}
