package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tradematch/internal/notification/hub"
	"tradematch/internal/notification/models"
	"tradematch/internal/notification/store"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
)

type NotificationServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *store.InMemory
	svc   *Service
	owner domain.Principal
	other domain.Principal
	admin domain.Principal
}

func TestNotificationServiceSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceSuite))
}

func (s *NotificationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.svc = New(s.store, hub.New(nil))
	s.owner = domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleCandidate}
	s.other = domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleCandidate}
	s.admin = domain.Principal{UserID: domain.UserID(uuid.New()), Role: domain.RoleAdmin}
}

func (s *NotificationServiceSuite) seed(userID domain.UserID, read bool) *models.Notification {
	n := &models.Notification{
		ID:        domain.NotificationID(uuid.New()),
		UserID:    userID,
		Type:      models.TypeApplicationStatus,
		Title:     "Application status updated",
		Read:      read,
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.store.InsertBatch(s.ctx, []*models.Notification{n}))
	return n
}

func (s *NotificationServiceSuite) TestListAndUnreadCount() {
	s.seed(s.owner.UserID, false)
	s.seed(s.owner.UserID, true)
	s.seed(s.other.UserID, false)

	list, err := s.svc.List(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Len(list, 2)

	count, err := s.svc.UnreadCount(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *NotificationServiceSuite) TestMarkRead() {
	s.Run("flips the flag", func() {
		n := s.seed(s.owner.UserID, false)
		s.Require().NoError(s.svc.MarkRead(s.ctx, s.owner, n.ID))

		count, err := s.svc.UnreadCount(s.ctx, s.owner)
		s.Require().NoError(err)
		s.Equal(0, count)
	})

	s.Run("marking an already-read notification succeeds", func() {
		n := s.seed(s.owner.UserID, true)
		s.Require().NoError(s.svc.MarkRead(s.ctx, s.owner, n.ID))
	})

	s.Run("only the addressee may mark", func() {
		n := s.seed(s.owner.UserID, false)
		err := s.svc.MarkRead(s.ctx, s.other, n.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		err = s.svc.MarkRead(s.ctx, s.admin, n.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown id is NotFound", func() {
		err := s.svc.MarkRead(s.ctx, s.owner, domain.NotificationID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *NotificationServiceSuite) TestDelete() {
	s.Run("removes the owner's notification", func() {
		n := s.seed(s.owner.UserID, false)
		s.Require().NoError(s.svc.Delete(s.ctx, s.owner, n.ID))

		list, err := s.svc.List(s.ctx, s.owner)
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("only the addressee may delete", func() {
		n := s.seed(s.owner.UserID, false)
		err := s.svc.Delete(s.ctx, s.other, n.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *NotificationServiceSuite) TestSubscribeDeliversLivePushes() {
	liveHub := hub.New(nil)
	svc := New(s.store, liveHub)

	feed, cancel := svc.Subscribe(s.owner)
	defer cancel()

	n := &models.Notification{
		ID:     domain.NotificationID(uuid.New()),
		UserID: s.owner.UserID,
		Type:   models.TypeInterviewScheduled,
		Title:  "Interview scheduled",
	}
	liveHub.Publish(n)

	got := <-feed
	s.Equal(n.ID, got.ID)
}
