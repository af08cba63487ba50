// Package events defines the domain events emitted by the lifecycle services
// and the publisher port they emit through. The notification dispatcher is the
// production publisher; tests substitute recorders.
package events

import (
	"context"
	"time"

	"tradematch/pkg/domain"
)

// Kind discriminates domain events.
type Kind string

const (
	KindApplicationSubmitted Kind = "application_submitted"
	KindStatusChanged        Kind = "status_changed"
	KindInterviewScheduled   Kind = "interview_scheduled"
	KindInterviewUpdated     Kind = "interview_updated"
)

// Event is a fact about a completed mutation. It carries both involved
// parties plus the actor so the dispatcher can fan out to everyone except
// whoever caused it.
type Event struct {
	Kind          Kind
	Actor         domain.UserID
	CandidateID   domain.UserID
	EmployerID    domain.UserID
	JobID         domain.JobID
	ApplicationID domain.ApplicationID
	InterviewID   domain.InterviewID

	// StatusChanged fields.
	FromStatus string
	ToStatus   string

	// Interview fields.
	InterviewStatus string
	InterviewDate   time.Time

	OccurredAt time.Time
}

// Recipients returns the involved parties minus the actor, deduplicated.
// The actor never receives a notification about its own action.
func (e Event) Recipients() []domain.UserID {
	seen := make(map[domain.UserID]struct{}, 2)
	var out []domain.UserID
	for _, id := range []domain.UserID{e.CandidateID, e.EmployerID} {
		if id.IsNil() || id == e.Actor {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Publisher delivers an event to every affected party. The durable half of
// delivery is fail-closed: a non-nil error means the triggering operation
// must surface the failure instead of swallowing it.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
