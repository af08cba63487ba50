package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	appmodels "tradematch/internal/application/models"
	appservice "tradematch/internal/application/service"
	appstore "tradematch/internal/application/store"
	"tradematch/internal/events"
	"tradematch/internal/interview/models"
	"tradematch/internal/interview/store"
	"tradematch/internal/job"
	"tradematch/internal/platform/metrics"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

// capturePublisher records published events in order.
type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

type InterviewServiceSuite struct {
	suite.Suite
	ctx        context.Context
	apps       *appstore.InMemory
	jobs       *job.InMemoryStore
	interviews *store.InMemory
	publisher  *capturePublisher
	svc        *Service

	employer  domain.Principal
	candidate domain.Principal
}

func TestInterviewServiceSuite(t *testing.T) {
	suite.Run(t, new(InterviewServiceSuite))
}

func (s *InterviewServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.apps = appstore.NewInMemory()
	s.jobs = job.NewInMemoryStore()
	s.interviews = store.NewInMemory()
	s.publisher = &capturePublisher{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	appSvc := appservice.New(s.apps, s.jobs, s.interviews, s.publisher, m, logger)
	s.svc = New(s.interviews, appSvc, s.jobs, s.publisher, m, logger)

	s.employer = domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleEmployer}
	s.candidate = domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleCandidate}
}

// seedApplication plants an application at the given status against a fresh
// job, so the duplicate-application guard never interferes between subtests.
func (s *InterviewServiceSuite) seedApplication(status appmodels.Status) *appmodels.Application {
	j := &job.Job{
		ID:         domain.JobID(uuid.New()),
		EmployerID: s.employer.UserID,
		Title:      "Master Electrician",
		Status:     job.StatusOpen,
		CreatedAt:  time.Now(),
	}
	s.Require().NoError(s.jobs.Create(s.ctx, j))

	now := time.Now().UTC()
	app := &appmodels.Application{
		ID:          domain.ApplicationID(uuid.New()),
		JobID:       j.ID,
		ApplicantID: s.candidate.UserID,
		Status:      status,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	s.Require().NoError(s.apps.CreateIfAbsent(s.ctx, app))
	return app
}

func (s *InterviewServiceSuite) params(applicationID domain.ApplicationID) ScheduleParams {
	return ScheduleParams{
		ApplicationID:  applicationID,
		Date:           time.Now().Add(72 * time.Hour),
		Type:           models.TypeVideo,
		Location:       "https://meet.example/room",
		InterviewerIDs: []domain.UserID{domain.UserID(uuid.New())},
	}
}

func (s *InterviewServiceSuite) TestSchedule() {
	s.Run("creates the interview and bumps the application", func() {
		app := s.seedApplication(appmodels.StatusShortlisted)

		iv, err := s.svc.Schedule(s.ctx, s.employer, s.params(app.ID))
		s.Require().NoError(err)
		s.Equal(models.StatusScheduled, iv.Status)

		stored, err := s.apps.FindByID(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(appmodels.StatusInterviewScheduled, stored.Status)

		// Exactly one notification-bearing event for the whole operation.
		s.Require().Len(s.publisher.events, 1)
		s.Equal(events.KindInterviewScheduled, s.publisher.events[0].Kind)
	})

	s.Run("keeps the interview when the status bump is illegal", func() {
		app := s.seedApplication(appmodels.StatusPending)

		iv, err := s.svc.Schedule(s.ctx, s.employer, s.params(app.ID))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Require().NotNil(iv, "the interview row is authoritative and survives")

		stored, findErr := s.interviews.FindByID(s.ctx, iv.ID)
		s.Require().NoError(findErr)
		s.Equal(models.StatusScheduled, stored.Status)
	})

	s.Run("leaves the bump alone when already interviewScheduled", func() {
		app := s.seedApplication(appmodels.StatusInterviewScheduled)

		_, err := s.svc.Schedule(s.ctx, s.employer, s.params(app.ID))
		s.Require().NoError(err, "a second interview for the same application is allowed")
	})

	s.Run("rejects terminal applications", func() {
		app := s.seedApplication(appmodels.StatusWithdrawn)
		_, err := s.svc.Schedule(s.ctx, s.employer, s.params(app.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("rejects candidates", func() {
		app := s.seedApplication(appmodels.StatusShortlisted)
		_, err := s.svc.Schedule(s.ctx, s.candidate, s.params(app.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects a non-owning employer", func() {
		app := s.seedApplication(appmodels.StatusShortlisted)
		other := domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleEmployer}
		_, err := s.svc.Schedule(s.ctx, other, s.params(app.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("validates date and type", func() {
		app := s.seedApplication(appmodels.StatusShortlisted)

		p := s.params(app.ID)
		p.Date = time.Time{}
		_, err := s.svc.Schedule(s.ctx, s.employer, p)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		p = s.params(app.ID)
		p.Type = "carrier-pigeon"
		_, err = s.svc.Schedule(s.ctx, s.employer, p)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *InterviewServiceSuite) TestUpdateStatus() {
	schedule := func() *models.Interview {
		app := s.seedApplication(appmodels.StatusShortlisted)
		iv, err := s.svc.Schedule(s.ctx, s.employer, s.params(app.ID))
		s.Require().NoError(err)
		return iv
	}

	s.Run("completion leaves the application status untouched", func() {
		iv := schedule()

		updated, err := s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusCompleted, time.Time{})
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, updated.Status)

		app, err := s.apps.FindByID(s.ctx, iv.ApplicationID)
		s.Require().NoError(err)
		s.Equal(appmodels.StatusInterviewScheduled, app.Status,
			"advancing the candidate is an explicit decision, not a side effect")
	})

	s.Run("cancellation leaves the application status untouched", func() {
		iv := schedule()

		_, err := s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusCancelled, time.Time{})
		s.Require().NoError(err)

		app, err := s.apps.FindByID(s.ctx, iv.ApplicationID)
		s.Require().NoError(err)
		s.Equal(appmodels.StatusInterviewScheduled, app.Status)
	})

	s.Run("rescheduling requires a new date", func() {
		iv := schedule()
		_, err := s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusRescheduled, time.Time{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rescheduling records the new date and stays updatable", func() {
		iv := schedule()
		newDate := time.Now().Add(120 * time.Hour).UTC()

		updated, err := s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusRescheduled, newDate)
		s.Require().NoError(err)
		s.Equal(models.StatusRescheduled, updated.Status)
		s.WithinDuration(newDate, updated.InterviewDate, time.Second)

		_, err = s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusCompleted, time.Time{})
		s.Require().NoError(err)
	})

	s.Run("completed interviews are final", func() {
		iv := schedule()
		_, err := s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusCompleted, time.Time{})
		s.Require().NoError(err)

		_, err = s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusCancelled, time.Time{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("emits an interview update event", func() {
		iv := schedule()
		before := len(s.publisher.events)

		_, err := s.svc.UpdateStatus(s.ctx, s.employer, iv.ID, models.StatusCompleted, time.Time{})
		s.Require().NoError(err)

		s.Require().Len(s.publisher.events, before+1)
		ev := s.publisher.events[len(s.publisher.events)-1]
		s.Equal(events.KindInterviewUpdated, ev.Kind)
		s.Equal(string(models.StatusCompleted), ev.InterviewStatus)
	})

	s.Run("unknown interview is NotFound", func() {
		_, err := s.svc.UpdateStatus(s.ctx, s.employer, domain.InterviewID(uuid.New()), models.StatusCompleted, time.Time{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InterviewServiceSuite) TestListByApplication() {
	app := s.seedApplication(appmodels.StatusShortlisted)
	_, err := s.svc.Schedule(s.ctx, s.employer, s.params(app.ID))
	s.Require().NoError(err)

	s.Run("candidate party may list", func() {
		list, err := s.svc.ListByApplication(s.ctx, s.candidate, app.ID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("owning employer may list", func() {
		list, err := s.svc.ListByApplication(s.ctx, s.employer, app.ID)
		s.Require().NoError(err)
		s.Len(list, 1)
	})

	s.Run("strangers are rejected", func() {
		other := domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleCandidate}
		_, err := s.svc.ListByApplication(s.ctx, other, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
