package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"tradematch/internal/application/models"
	"tradematch/internal/authz"
	"tradematch/internal/events"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
	"tradematch/pkg/platform/sentinel"
)

// Transition validates and applies one edge of the application status graph.
//
// Checks run in this order: existence, edge legality, role/ownership, the
// interview gate for interviewScheduled, then the optimistic write. A lost
// optimistic write surfaces as ConcurrencyConflict so the caller can retry
// with fresh state instead of silently clobbering a concurrent transition.
func (s *Service) Transition(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID, target models.Status) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Transition")
	defer span.End()

	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	edgeRole, ok := models.AllowedEdge(app.Status, target)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "no transition from %s to %s", app.Status, target)
	}

	switch edgeRole {
	case domain.RoleCandidate:
		if !authz.CanMutate(authz.EntityApplication, authz.OwnerRefs{ApplicantID: app.ApplicantID}, actor, authz.ActionWithdraw) {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the applicant may take this transition")
		}
	case domain.RoleEmployer:
		posting, err := s.jobs.FindByID(ctx, app.JobID)
		if err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job for ownership check", err)
		}
		refs := authz.OwnerRefs{ApplicantID: app.ApplicantID, EmployerID: posting.EmployerID}
		if !authz.CanMutate(authz.EntityApplication, refs, actor, authz.ActionTransition) {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the employer owning the job may take this transition")
		}
	}

	if target == models.StatusInterviewScheduled {
		exists, err := s.interviews.ActiveExists(ctx, applicationID)
		if err != nil {
			span.RecordError(err)
			return nil, dErrors.Wrap(dErrors.CodeInternal, "check interviews", err)
		}
		if !exists {
			return nil, dErrors.New(dErrors.CodeInvalidState, "no scheduled interview exists for this application")
		}
	}

	return s.applyTransition(ctx, span, actor, app, target, true)
}

// MarkInterviewScheduled is the scheduler's internal edge into
// interviewScheduled. It validates ownership and the edge like Transition but
// does not emit a StatusChanged event: the scheduler's own InterviewScheduled
// notification already informs the candidate, and a second notification for
// the same user action would break fan-out exactness.
func (s *Service) MarkInterviewScheduled(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.MarkInterviewScheduled")
	defer span.End()

	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status == models.StatusInterviewScheduled {
		return app, nil
	}
	if _, ok := models.AllowedEdge(app.Status, models.StatusInterviewScheduled); !ok {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "no transition from %s to %s", app.Status, models.StatusInterviewScheduled)
	}
	posting, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job for ownership check", err)
	}
	refs := authz.OwnerRefs{ApplicantID: app.ApplicantID, EmployerID: posting.EmployerID}
	if !authz.CanMutate(authz.EntityApplication, refs, actor, authz.ActionTransition) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the employer owning the job may take this transition")
	}
	return s.applyTransition(ctx, span, actor, app, models.StatusInterviewScheduled, false)
}

// applyTransition performs the optimistic status write, then emits the
// StatusChanged event. Event delivery is fail-closed: the status is already
// persisted, so a durable notification failure is surfaced, not dropped.
func (s *Service) applyTransition(ctx context.Context, span trace.Span, actor domain.Principal, app *models.Application, target models.Status, emit bool) (*models.Application, error) {
	from := app.Status
	now := s.now().UTC()

	if err := s.apps.UpdateStatusIf(ctx, app.ID, from, target, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.Newf(dErrors.CodeConflict, "application left %s concurrently, retry with fresh state", from)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "application does not exist")
		default:
			span.RecordError(err)
			return nil, dErrors.Wrap(dErrors.CodeInternal, "update application status", err)
		}
	}
	s.metrics.StatusTransitions.WithLabelValues(string(from), string(target)).Inc()

	updated := *app
	updated.Status = target
	updated.UpdatedAt = now

	if !emit {
		return &updated, nil
	}

	posting, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job for notification", err)
	}
	ev := events.Event{
		Kind:          events.KindStatusChanged,
		Actor:         actor.UserID,
		CandidateID:   app.ApplicantID,
		EmployerID:    posting.EmployerID,
		JobID:         app.JobID,
		ApplicationID: app.ID,
		FromStatus:    string(from),
		ToStatus:      string(target),
		OccurredAt:    now,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "status persisted but notification delivery failed", err)
	}
	return &updated, nil
}
