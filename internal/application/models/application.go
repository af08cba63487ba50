// Package models holds the Application entity and its status machine. The
// edge set lives here so the transition engine, handlers, and tests share one
// definition.
package models

import (
	"time"

	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

// Status is an application's position in its lifecycle.
type Status string

const (
	StatusPending            Status = "pending"
	StatusUnderReview        Status = "underReview"
	StatusShortlisted        Status = "shortlisted"
	StatusInterviewScheduled Status = "interviewScheduled"
	StatusAccepted           Status = "accepted"
	StatusRejected           Status = "rejected"
	StatusWithdrawn          Status = "withdrawn"
)

// ParseStatus validates a raw status string at trust boundaries.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusUnderReview, StatusShortlisted,
		StatusInterviewScheduled, StatusAccepted, StatusRejected, StatusWithdrawn:
		return Status(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown application status %q", s)
	}
}

// Terminal reports whether no further transitions may leave this status.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

// forward holds the employer-driven review pipeline. Rejection and
// withdrawal are handled separately because they are reachable from any
// non-terminal status.
var forward = map[Status]map[Status]bool{
	StatusPending:            {StatusUnderReview: true},
	StatusUnderReview:        {StatusShortlisted: true},
	StatusShortlisted:        {StatusInterviewScheduled: true},
	StatusInterviewScheduled: {StatusAccepted: true, StatusRejected: true},
}

// AllowedEdge reports whether (from, to) is a legal transition and, if so,
// which role owns the edge.
func AllowedEdge(from, to Status) (domain.Role, bool) {
	if from.Terminal() || from == to {
		return "", false
	}
	switch to {
	case StatusWithdrawn:
		return domain.RoleCandidate, true
	case StatusRejected:
		return domain.RoleEmployer, true
	}
	if forward[from][to] {
		return domain.RoleEmployer, true
	}
	return "", false
}

// Application is one candidate's claim on one job.
type Application struct {
	ID          domain.ApplicationID
	JobID       domain.JobID
	ApplicantID domain.UserID
	Status      Status
	CoverLetter string
	ResumeURL   string
	SubmittedAt time.Time
	UpdatedAt   time.Time
}
