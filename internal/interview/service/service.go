// Package service implements the interview scheduler. Scheduling creates the
// interview row first (the interview is the source of truth) and then bumps
// the parent application's status as a best-effort, retryable side effect.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	appmodels "tradematch/internal/application/models"
	"tradematch/internal/authz"
	"tradematch/internal/events"
	"tradematch/internal/interview/models"
	"tradematch/internal/interview/store"
	"tradematch/internal/job"
	"tradematch/internal/platform/metrics"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
	"tradematch/pkg/platform/sentinel"
)

// ApplicationDirectory is the port onto the application registry: lookups
// plus the internal edge into interviewScheduled.
type ApplicationDirectory interface {
	FindByID(ctx context.Context, id domain.ApplicationID) (*appmodels.Application, error)
	MarkInterviewScheduled(ctx context.Context, actor domain.Principal, id domain.ApplicationID) (*appmodels.Application, error)
}

// JobReader resolves job ownership for authorization.
type JobReader interface {
	FindByID(ctx context.Context, id domain.JobID) (*job.Job, error)
}

// Service schedules and updates interviews.
type Service struct {
	interviews store.Store
	apps       ApplicationDirectory
	jobs       JobReader
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

func New(interviews store.Store, apps ApplicationDirectory, jobs JobReader, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		interviews: interviews,
		apps:       apps,
		jobs:       jobs,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("tradematch/interview"),
		now:        time.Now,
	}
}

// ScheduleParams carries the caller-supplied fields for a new interview.
type ScheduleParams struct {
	ApplicationID  domain.ApplicationID
	Date           time.Time
	Type           models.Type
	Location       string
	InterviewerIDs []domain.UserID
}

// Schedule creates an interview for a non-terminal application owned by the
// acting employer, then bumps the application into interviewScheduled.
//
// When the secondary status bump fails for any reason other than the
// application already being interviewScheduled, the interview row is kept
// and the transition error is returned alongside it for reconciliation: the
// interview is authoritative, the status bump is retryable.
func (s *Service) Schedule(ctx context.Context, actor domain.Principal, params ScheduleParams) (*models.Interview, error) {
	ctx, span := s.tracer.Start(ctx, "interview.Schedule")
	defer span.End()

	if params.Date.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "interview date is required")
	}
	if _, err := models.ParseType(string(params.Type)); err != nil {
		return nil, err
	}

	app, err := s.findApplication(ctx, params.ApplicationID)
	if err != nil {
		return nil, err
	}
	posting, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job for ownership check", err)
	}
	if !authz.CanMutate(authz.EntityInterview, authz.OwnerRefs{EmployerID: posting.EmployerID}, actor, authz.ActionSchedule) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the employer owning the job may schedule interviews")
	}
	if app.Status.Terminal() {
		return nil, dErrors.Newf(dErrors.CodeInvalidState, "application is already %s", app.Status)
	}

	now := s.now().UTC()
	iv := &models.Interview{
		ID:             domain.InterviewID(uuid.New()),
		ApplicationID:  params.ApplicationID,
		InterviewDate:  params.Date.UTC(),
		Status:         models.StatusScheduled,
		Type:           params.Type,
		Location:       params.Location,
		InterviewerIDs: params.InterviewerIDs,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.interviews.Create(ctx, iv); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create interview", err)
	}
	s.metrics.InterviewsScheduled.Inc()

	ev := events.Event{
		Kind:          events.KindInterviewScheduled,
		Actor:         actor.UserID,
		CandidateID:   app.ApplicantID,
		EmployerID:    posting.EmployerID,
		JobID:         app.JobID,
		ApplicationID: app.ID,
		InterviewID:   iv.ID,
		InterviewDate: iv.InterviewDate,
		OccurredAt:    now,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "interview recorded but notification delivery failed", err)
	}

	if _, err := s.apps.MarkInterviewScheduled(ctx, actor, app.ID); err != nil {
		// Interview stays; the caller retries the status bump with fresh
		// state or reconciles out of band.
		s.logger.WarnContext(ctx, "interview created but application status bump failed",
			"interview_id", iv.ID,
			"application_id", app.ID,
			"error", err,
		)
		span.RecordError(err)
		return iv, dErrors.Wrap(dErrors.CodeConflict, "interview created but application status bump failed, retry the transition", err)
	}
	return iv, nil
}

// UpdateStatus moves an interview to completed, cancelled, or rescheduled.
// Rescheduling requires a new date and leaves the status rescheduled with
// the updated date. The parent application's status is deliberately left
// untouched: advancing a candidate after an interview is an explicit
// employer decision, not a side effect.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Principal, interviewID domain.InterviewID, target models.Status, newDate time.Time) (*models.Interview, error) {
	ctx, span := s.tracer.Start(ctx, "interview.UpdateStatus")
	defer span.End()

	iv, err := s.interviews.FindByID(ctx, interviewID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "interview does not exist")
	}
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up interview", err)
	}

	app, err := s.findApplication(ctx, iv.ApplicationID)
	if err != nil {
		return nil, err
	}
	posting, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job for ownership check", err)
	}
	if !authz.CanMutate(authz.EntityInterview, authz.OwnerRefs{EmployerID: posting.EmployerID}, actor, authz.ActionUpdate) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the employer owning the job may update interviews")
	}

	if !iv.Status.CanUpdateTo(target) {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "no interview transition from %s to %s", iv.Status, target)
	}
	if target == models.StatusRescheduled {
		if newDate.IsZero() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "rescheduling requires a new date")
		}
		iv.InterviewDate = newDate.UTC()
	}
	iv.Status = target
	iv.UpdatedAt = s.now().UTC()

	if err := s.interviews.Update(ctx, iv); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "update interview", err)
	}

	ev := events.Event{
		Kind:            events.KindInterviewUpdated,
		Actor:           actor.UserID,
		CandidateID:     app.ApplicantID,
		EmployerID:      posting.EmployerID,
		JobID:           app.JobID,
		ApplicationID:   app.ID,
		InterviewID:     iv.ID,
		InterviewStatus: string(target),
		InterviewDate:   iv.InterviewDate,
		OccurredAt:      iv.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "interview updated but notification delivery failed", err)
	}
	return iv, nil
}

// ListByApplication returns an application's interviews for either party.
func (s *Service) ListByApplication(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID) ([]*models.Interview, error) {
	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && actor.UserID != app.ApplicantID {
		posting, err := s.jobs.FindByID(ctx, app.JobID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job", err)
		}
		if actor.UserID != posting.EmployerID {
			return nil, dErrors.New(dErrors.CodeForbidden, "not a party to this application")
		}
	}
	out, err := s.interviews.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list interviews", err)
	}
	return out, nil
}

func (s *Service) findApplication(ctx context.Context, id domain.ApplicationID) (*appmodels.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up application", err)
	}
	return app, nil
}
