//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tradematch/internal/notification/models"
	"tradematch/internal/notification/store"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
	"tradematch/pkg/testutil/containers"
)

type NotificationPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestNotificationPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(NotificationPostgresSuite))
}

func (s *NotificationPostgresSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *NotificationPostgresSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "notifications")
	s.Require().NoError(err)
}

func notificationFor(userID domain.UserID, title string) *models.Notification {
	return &models.Notification{
		ID:      domain.NotificationID(uuid.New()),
		UserID:  userID,
		Type:    models.TypeApplicationStatus,
		Title:   title,
		Message: "Your application moved forward.",
		Metadata: map[string]string{
			models.MetaApplicationID: uuid.NewString(),
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *NotificationPostgresSuite) TestInsertBatchAndList() {
	ctx := context.Background()
	userID := domain.UserID(uuid.New())

	batch := []*models.Notification{
		notificationFor(userID, "first"),
		notificationFor(userID, "second"),
		notificationFor(domain.UserID(uuid.New()), "someone else's"),
	}
	s.Require().NoError(s.store.InsertBatch(ctx, batch))

	list, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("first", list[0].Title, "seq preserves insert order")
	s.Equal("second", list[1].Title)
	s.Equal(batch[0].Metadata, list[0].Metadata)
}

func (s *NotificationPostgresSuite) TestInsertBatchEmptyIsANoop() {
	s.Require().NoError(s.store.InsertBatch(context.Background(), nil))
}

func (s *NotificationPostgresSuite) TestFindByID() {
	ctx := context.Background()
	n := notificationFor(domain.UserID(uuid.New()), "lookup")
	s.Require().NoError(s.store.InsertBatch(ctx, []*models.Notification{n}))

	found, err := s.store.FindByID(ctx, n.ID)
	s.Require().NoError(err)
	s.Equal(n.UserID, found.UserID)
	s.Equal(n.Type, found.Type)

	_, err = s.store.FindByID(ctx, domain.NotificationID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *NotificationPostgresSuite) TestUnreadCountAndMarkRead() {
	ctx := context.Background()
	userID := domain.UserID(uuid.New())
	n := notificationFor(userID, "unread")
	s.Require().NoError(s.store.InsertBatch(ctx, []*models.Notification{n, notificationFor(userID, "also unread")}))

	count, err := s.store.CountUnread(ctx, userID)
	s.Require().NoError(err)
	s.Equal(2, count)

	s.Require().NoError(s.store.MarkRead(ctx, n.ID))

	count, err = s.store.CountUnread(ctx, userID)
	s.Require().NoError(err)
	s.Equal(1, count)

	err = s.store.MarkRead(ctx, domain.NotificationID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *NotificationPostgresSuite) TestDelete() {
	ctx := context.Background()
	n := notificationFor(domain.UserID(uuid.New()), "doomed")
	s.Require().NoError(s.store.InsertBatch(ctx, []*models.Notification{n}))

	s.Require().NoError(s.store.Delete(ctx, n.ID))
	s.Require().ErrorIs(s.store.Delete(ctx, n.ID), sentinel.ErrNotFound)
}
