// Package service implements the application registry and the status
// transition engine. Handlers stay thin; every rule about who may move an
// application, and to where, lives here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tradematch/internal/application/models"
	"tradematch/internal/application/store"
	"tradematch/internal/authz"
	"tradematch/internal/events"
	"tradematch/internal/job"
	"tradematch/internal/platform/metrics"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
	"tradematch/pkg/platform/sentinel"
)

// JobReader is the port onto the listing read model.
type JobReader interface {
	FindByID(ctx context.Context, id domain.JobID) (*job.Job, error)
	ListByEmployer(ctx context.Context, employerID domain.UserID) ([]*job.Job, error)
}

// InterviewChecker reports whether a non-cancelled interview exists for an
// application. It gates the edge into interviewScheduled.
type InterviewChecker interface {
	ActiveExists(ctx context.Context, applicationID domain.ApplicationID) (bool, error)
}

// Service is the application registry plus the transition engine.
type Service struct {
	apps       store.Store
	jobs       JobReader
	interviews InterviewChecker
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

func New(apps store.Store, jobs JobReader, interviews InterviewChecker, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		apps:       apps,
		jobs:       jobs,
		interviews: interviews,
		publisher:  publisher,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("tradematch/application"),
		now:        time.Now,
	}
}

// Submit creates a pending application for an open job. The in-process
// duplicate pre-check is advisory; the store's conditional insert is the
// guarantee that holds under concurrent submits.
func (s *Service) Submit(ctx context.Context, actor domain.Principal, jobID domain.JobID, coverLetter, resumeURL string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Submit")
	defer span.End()

	if !authz.CanMutate(authz.EntityApplication, authz.OwnerRefs{}, actor, authz.ActionSubmit) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only candidates submit applications")
	}
	if jobID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "job id is required")
	}

	posting, err := s.jobs.FindByID(ctx, jobID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "job does not exist")
	}
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up job", err)
	}
	if !posting.AcceptsApplications() {
		return nil, dErrors.Newf(dErrors.CodeJobNotOpen, "job is %s, not accepting applications", posting.Status)
	}

	// Fast-path duplicate check for a friendly error before attempting the
	// insert. Never sufficient on its own.
	if _, err := s.apps.FindActive(ctx, actor.UserID, jobID); err == nil {
		return nil, dErrors.New(dErrors.CodeDuplicateApplication, "an active application for this job already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "check existing application", err)
	}

	now := s.now().UTC()
	app := &models.Application{
		ID:          domain.ApplicationID(uuid.New()),
		JobID:       jobID,
		ApplicantID: actor.UserID,
		Status:      models.StatusPending,
		CoverLetter: coverLetter,
		ResumeURL:   resumeURL,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.apps.CreateIfAbsent(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeDuplicateApplication, "an active application for this job already exists")
		}
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create application", err)
	}
	s.metrics.ApplicationsSubmitted.Inc()

	ev := events.Event{
		Kind:          events.KindApplicationSubmitted,
		Actor:         actor.UserID,
		CandidateID:   actor.UserID,
		EmployerID:    posting.EmployerID,
		JobID:         jobID,
		ApplicationID: app.ID,
		ToStatus:      string(models.StatusPending),
		OccurredAt:    now,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		// The application row exists; the durable half of notification
		// delivery failed and must not be swallowed.
		span.RecordError(err)
		return nil, dErrors.Wrap(dErrors.CodeInternal, "application recorded but notification delivery failed", err)
	}
	return app, nil
}

// Withdraw moves the caller's own application to withdrawn.
func (s *Service) Withdraw(ctx context.Context, actor domain.Principal, applicationID domain.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Withdraw")
	defer span.End()

	app, err := s.findApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !authz.CanMutate(authz.EntityApplication, authz.OwnerRefs{ApplicantID: app.ApplicantID}, actor, authz.ActionWithdraw) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the applicant may withdraw an application")
	}
	if app.Status.Terminal() {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition, "application is already %s", app.Status)
	}
	return s.applyTransition(ctx, span, actor, app, models.StatusWithdrawn, true)
}

// ListForCandidate returns the candidate's own applications.
func (s *Service) ListForCandidate(ctx context.Context, actor domain.Principal, candidateID domain.UserID) ([]*models.Application, error) {
	if actor.UserID != candidateID && actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "candidates see only their own applications")
	}
	apps, err := s.apps.ListByApplicant(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list applications", err)
	}
	return apps, nil
}

// ListForEmployer returns applications against all jobs the employer owns.
func (s *Service) ListForEmployer(ctx context.Context, actor domain.Principal, employerID domain.UserID) ([]*models.Application, error) {
	if actor.UserID != employerID && actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "employers see only applications to their own jobs")
	}
	postings, err := s.jobs.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list jobs", err)
	}
	if len(postings) == 0 {
		return nil, nil
	}
	jobIDs := make([]domain.JobID, len(postings))
	for i, p := range postings {
		jobIDs[i] = p.ID
	}
	apps, err := s.apps.ListByJobs(ctx, jobIDs)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list applications", err)
	}
	return apps, nil
}

// FindByID resolves an application with storage sentinels translated. The
// interview scheduler reaches applications through this.
func (s *Service) FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error) {
	return s.findApplication(ctx, id)
}

func (s *Service) findApplication(ctx context.Context, id domain.ApplicationID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "application does not exist")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up application", err)
	}
	return app, nil
}
