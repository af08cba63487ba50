// Package domain holds typed identifiers and enums shared across components.
// IDs are distinct types over uuid.UUID so the compiler rejects cross-entity
// assignment; parsing enforces validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "tradematch/pkg/domain-errors"
)

type (
	// UserID identifies a candidate, employer, or admin principal.
	UserID uuid.UUID
	// JobID identifies a job posting. Jobs are owned by the marketplace's
	// listing system; this core only reads them.
	JobID uuid.UUID
	// ApplicationID identifies a candidate's application to one job.
	ApplicationID uuid.UUID
	// InterviewID identifies a scheduled interview.
	InterviewID uuid.UUID
	// NotificationID identifies a per-user notification row.
	NotificationID uuid.UUID
)

func parse(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parse("user id", s)
	return UserID(u), err
}

func ParseJobID(s string) (JobID, error) {
	u, err := parse("job id", s)
	return JobID(u), err
}

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parse("application id", s)
	return ApplicationID(u), err
}

func ParseInterviewID(s string) (InterviewID, error) {
	u, err := parse("interview id", s)
	return InterviewID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parse("notification id", s)
	return NotificationID(u), err
}

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id JobID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id InterviewID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id JobID) String() string          { return uuid.UUID(id).String() }
func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id InterviewID) String() string    { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
