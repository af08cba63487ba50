// Package job is the read model over the marketplace's job listings. The
// lifecycle core consults job status and ownership; it never mutates jobs.
package job

import (
	"time"

	"tradematch/pkg/domain"
)

// Status mirrors the listing system's job states.
type Status string

const (
	StatusOpen    Status = "open"
	StatusFlagged Status = "flagged"
	StatusClosed  Status = "closed"
	StatusPending Status = "pending"
)

// Job is the subset of a listing this core needs: identity, owner, and
// whether it accepts applications.
type Job struct {
	ID         domain.JobID
	EmployerID domain.UserID
	Title      string
	Status     Status
	CreatedAt  time.Time
}

// AcceptsApplications reports whether candidates may apply.
func (j *Job) AcceptsApplications() bool {
	return j.Status == StatusOpen
}
