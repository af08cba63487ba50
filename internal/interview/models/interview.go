// Package models holds the Interview entity. An interview belongs to exactly
// one application and is retained indefinitely for audit.
package models

import (
	"time"

	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

// Status is an interview's lifecycle state.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// ParseStatus validates a raw status string at trust boundaries.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusRescheduled:
		return Status(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown interview status %q", s)
	}
}

// Type is the interview format.
type Type string

const (
	TypePhone    Type = "phone"
	TypeVideo    Type = "video"
	TypeInPerson Type = "in-person"
)

// ParseType validates a raw interview type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypePhone, TypeVideo, TypeInPerson:
		return Type(s), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown interview type %q", s)
	}
}

// CanUpdateTo reports whether an interview may move from its current status
// to the target. Completed and cancelled are final; a rescheduled interview
// may still complete, cancel, or move again.
func (s Status) CanUpdateTo(target Status) bool {
	if s != StatusScheduled && s != StatusRescheduled {
		return false
	}
	return target == StatusCompleted || target == StatusCancelled || target == StatusRescheduled
}

// Interview is a scheduled meeting tied to one application.
type Interview struct {
	ID             domain.InterviewID
	ApplicationID  domain.ApplicationID
	InterviewDate  time.Time
	Status         Status
	Type           Type
	Location       string
	InterviewerIDs []domain.UserID
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
