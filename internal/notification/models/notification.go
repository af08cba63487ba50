// Package models holds the Notification entity: an immutable per-user fact
// about a domain event. Only the read flag ever changes after insert.
package models

import (
	"time"

	"tradematch/pkg/domain"
)

// Type classifies a notification for UI routing and filtering.
type Type string

const (
	TypeApplicationStatus  Type = "application_status"
	TypeInterviewScheduled Type = "interview_scheduled"
	TypeInterviewReminder  Type = "interview_reminder"
	TypeJobUpdate          Type = "job_update"
	TypeSystemAlert        Type = "system_alert"
	TypeCompanyNews        Type = "company_news"
)

// Metadata keys carried for deep-linking without a further lookup.
const (
	MetaApplicationID = "applicationId"
	MetaJobID         = "jobId"
	MetaInterviewID   = "interviewId"
)

// Notification is addressed to exactly one user.
type Notification struct {
	ID        domain.NotificationID
	UserID    domain.UserID
	Type      Type
	Title     string
	Message   string
	Read      bool
	Metadata  map[string]string
	CreatedAt time.Time
}
