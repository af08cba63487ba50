package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"tradematch/internal/application/models"
	"tradematch/internal/application/store"
	ivmodels "tradematch/internal/interview/models"
	"tradematch/internal/platform/metrics"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
	"tradematch/pkg/platform/sentinel"
)

func (s *ApplicationServiceSuite) scheduleInterview(applicationID domain.ApplicationID, status ivmodels.Status) {
	now := time.Now().UTC()
	s.Require().NoError(s.interviews.Create(s.ctx, &ivmodels.Interview{
		ID:            domain.InterviewID(uuid.New()),
		ApplicationID: applicationID,
		InterviewDate: now.Add(48 * time.Hour),
		Status:        status,
		Type:          ivmodels.TypeVideo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
}

func (s *ApplicationServiceSuite) TestTransition() {
	s.Run("employer advances the review pipeline", func() {
		app := s.seedApplication(s.candidate.UserID, s.openJob.ID, models.StatusPending)

		updated, err := s.svc.Transition(s.ctx, s.employer, app.ID, models.StatusUnderReview)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, updated.Status)

		published := s.publisher.published()
		s.Require().Len(published, 1)
		s.Equal(string(models.StatusPending), published[0].FromStatus)
		s.Equal(string(models.StatusUnderReview), published[0].ToStatus)
		s.Equal([]domain.UserID{s.candidate.UserID}, published[0].Recipients(),
			"only the candidate is notified of an employer transition")
	})

	s.Run("skipping pipeline stages is rejected", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusPending)
		_, err := s.svc.Transition(s.ctx, s.employer, app.ID, models.StatusShortlisted)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("a non-owning employer is rejected", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusPending)
		other := domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleEmployer}
		_, err := s.svc.Transition(s.ctx, other, app.ID, models.StatusUnderReview)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin may take employer edges", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusPending)
		updated, err := s.svc.Transition(s.ctx, s.admin, app.ID, models.StatusUnderReview)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, updated.Status)
	})

	s.Run("a candidate cannot take employer edges", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusPending)
		_, err := s.svc.Transition(s.ctx, s.candidate, app.ID, models.StatusUnderReview)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejection is reachable from any non-terminal status", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusPending)
		updated, err := s.svc.Transition(s.ctx, s.employer, app.ID, models.StatusRejected)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, updated.Status)
	})
}

func (s *ApplicationServiceSuite) TestInterviewScheduledGate() {
	s.Run("rejected without an active interview", func() {
		app := s.seedApplication(s.candidate.UserID, s.openJob.ID, models.StatusShortlisted)
		_, err := s.svc.Transition(s.ctx, s.employer, app.ID, models.StatusInterviewScheduled)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("a cancelled interview does not satisfy the gate", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusShortlisted)
		s.scheduleInterview(app.ID, ivmodels.StatusCancelled)
		_, err := s.svc.Transition(s.ctx, s.employer, app.ID, models.StatusInterviewScheduled)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("allowed once a scheduled interview exists", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusShortlisted)
		s.scheduleInterview(app.ID, ivmodels.StatusScheduled)
		updated, err := s.svc.Transition(s.ctx, s.employer, app.ID, models.StatusInterviewScheduled)
		s.Require().NoError(err)
		s.Equal(models.StatusInterviewScheduled, updated.Status)
	})
}

func (s *ApplicationServiceSuite) TestMarkInterviewScheduled() {
	s.Run("moves the application without emitting a status event", func() {
		app := s.seedApplication(s.candidate.UserID, s.openJob.ID, models.StatusShortlisted)

		updated, err := s.svc.MarkInterviewScheduled(s.ctx, s.employer, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInterviewScheduled, updated.Status)
		s.Empty(s.publisher.published(), "the scheduler's own event covers this move")
	})

	s.Run("is idempotent when already interviewScheduled", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusInterviewScheduled)
		updated, err := s.svc.MarkInterviewScheduled(s.ctx, s.employer, app.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInterviewScheduled, updated.Status)
	})

	s.Run("rejects the move from pending", func() {
		app := s.seedApplication(s.candidate.UserID, s.newJob("open").ID, models.StatusPending)
		_, err := s.svc.MarkInterviewScheduled(s.ctx, s.employer, app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ApplicationServiceSuite) TestOptimisticConflict() {
	app := s.seedApplication(s.candidate.UserID, s.openJob.ID, models.StatusPending)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	svc := New(conflictStore{Store: s.apps}, s.jobs, s.interviews, s.publisher, m, logger)

	_, err := svc.Transition(s.ctx, s.employer, app.ID, models.StatusUnderReview)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

// conflictStore simulates losing the optimistic write to a concurrent
// transition.
type conflictStore struct {
	store.Store
}

func (c conflictStore) UpdateStatusIf(context.Context, domain.ApplicationID, models.Status, models.Status, time.Time) error {
	return sentinel.ErrConflict
}
