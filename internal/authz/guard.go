// Package authz is the single mutation predicate. Every service consults
// CanMutate before writing; the store's row-level enforcement remains the
// authoritative backstop, this predicate exists to fail fast with a typed
// Forbidden instead of a late storage error.
package authz

import (
	"tradematch/pkg/domain"
)

// EntityKind names the entity a mutation targets.
type EntityKind string

const (
	EntityApplication  EntityKind = "application"
	EntityInterview    EntityKind = "interview"
	EntityNotification EntityKind = "notification"
)

// Action names the mutation being attempted.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionWithdraw   Action = "withdraw"
	ActionTransition Action = "transition"
	ActionSchedule   Action = "schedule"
	ActionUpdate     Action = "update"
	ActionMarkRead   Action = "mark_read"
	ActionDelete     Action = "delete"
)

// OwnerRefs carries the ownership references of the target entity. Fields
// irrelevant to the entity kind stay zero.
type OwnerRefs struct {
	ApplicantID domain.UserID // application: the candidate who owns it
	EmployerID  domain.UserID // application/interview: owner of the backing job
	UserID      domain.UserID // notification: the addressed user
}

// CanMutate decides whether actor may perform action on the entity described
// by kind and refs. It must stay behaviorally identical to the row-level
// policies the store enforces.
func CanMutate(kind EntityKind, refs OwnerRefs, actor domain.Principal, action Action) bool {
	if !actor.IsValid() {
		return false
	}

	switch kind {
	case EntityApplication:
		switch action {
		case ActionSubmit:
			return actor.Role == domain.RoleCandidate
		case ActionWithdraw:
			// Withdrawal is personal: not even admins withdraw on a
			// candidate's behalf.
			return actor.Role == domain.RoleCandidate && actor.UserID == refs.ApplicantID
		case ActionTransition:
			if actor.Role == domain.RoleAdmin {
				return true
			}
			return actor.Role == domain.RoleEmployer && actor.UserID == refs.EmployerID
		}
	case EntityInterview:
		switch action {
		case ActionSchedule, ActionUpdate:
			if actor.Role == domain.RoleAdmin {
				return true
			}
			return actor.Role == domain.RoleEmployer && actor.UserID == refs.EmployerID
		}
	case EntityNotification:
		switch action {
		case ActionMarkRead, ActionDelete:
			// Notifications are strictly personal, including for admins.
			return actor.UserID == refs.UserID
		}
	}
	return false
}
