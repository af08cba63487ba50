package job

import (
	"context"

	"tradematch/pkg/domain"
)

// Store reads job listings. Create exists for seeding and tests; the listing
// system owns job writes in production.
type Store interface {
	FindByID(ctx context.Context, id domain.JobID) (*Job, error)
	ListByEmployer(ctx context.Context, employerID domain.UserID) ([]*Job, error)
	Create(ctx context.Context, j *Job) error
}
