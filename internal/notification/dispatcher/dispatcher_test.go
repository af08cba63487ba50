package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tradematch/internal/events"
	"tradematch/internal/notification/dispatcher/mocks"
	"tradematch/internal/notification/models"
	"tradematch/internal/platform/metrics"
	"tradematch/pkg/domain"
)

const relayTopic = "tradematch.domain-events"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statusEvent() events.Event {
	return events.Event{
		Kind:          events.KindStatusChanged,
		Actor:         domain.UserID(uuid.New()),
		CandidateID:   domain.UserID(uuid.New()),
		EmployerID:    domain.UserID(uuid.New()),
		JobID:         domain.JobID(uuid.New()),
		ApplicationID: domain.ApplicationID(uuid.New()),
		FromStatus:    "pending",
		ToStatus:      "underReview",
		OccurredAt:    time.Now().UTC(),
	}
}

func TestPublishFansOutToNonActingParties(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)
	relay := mocks.NewMockRelay(ctrl)

	ev := statusEvent()
	ev.Actor = ev.EmployerID // employer acted; only the candidate hears

	var inserted []*models.Notification
	st.EXPECT().
		InsertBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ns []*models.Notification) error {
			inserted = ns
			return nil
		})
	pusher.EXPECT().Publish(gomock.Any()).Times(1)
	relay.EXPECT().Produce(gomock.Any(), relayTopic, gomock.Any(), gomock.Any(), gomock.Any())

	d := New(st, pusher, relay, relayTopic, metrics.NewWith(prometheus.NewRegistry()), testLogger())
	require.NoError(t, d.Publish(context.Background(), ev))

	require.Len(t, inserted, 1)
	n := inserted[0]
	assert.Equal(t, ev.CandidateID, n.UserID)
	assert.Equal(t, models.TypeApplicationStatus, n.Type)
	assert.Equal(t, ev.ApplicationID.String(), n.Metadata[models.MetaApplicationID])
	assert.Equal(t, ev.JobID.String(), n.Metadata[models.MetaJobID])
}

func TestPublishFailClosedOnDurableInsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)

	insertErr := errors.New("pool exhausted")
	st.EXPECT().
		InsertBatch(gomock.Any(), gomock.Any()).
		Return(insertErr).
		Times(3)
	// Pusher must never run: no push without a durable row.

	d := New(st, pusher, nil, relayTopic, metrics.NewWith(prometheus.NewRegistry()), testLogger())
	err := d.Publish(context.Background(), statusEvent())
	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr)
}

func TestPublishRetriesTransientInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)

	gomock.InOrder(
		st.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(errors.New("transient")),
		st.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(nil),
	)
	pusher.EXPECT().Publish(gomock.Any()).Times(1)

	ev := statusEvent()
	ev.Actor = ev.CandidateID

	d := New(st, pusher, nil, relayTopic, metrics.NewWith(prometheus.NewRegistry()), testLogger())
	require.NoError(t, d.Publish(context.Background(), ev))
}

func TestPublishRelayFailureIsFailOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)
	relay := mocks.NewMockRelay(ctrl)

	st.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(nil)
	pusher.EXPECT().Publish(gomock.Any()).AnyTimes()
	relay.EXPECT().
		Produce(gomock.Any(), relayTopic, gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, _ string, _, _ []byte, done func(error)) {
			done(errors.New("broker down"))
		})

	m := metrics.NewWith(prometheus.NewRegistry())
	d := New(st, pusher, relay, relayTopic, m, testLogger())
	require.NoError(t, d.Publish(context.Background(), statusEvent()),
		"a dead relay must not fail the business operation")
}

func TestPublishWithoutRelayConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)

	st.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(nil)
	pusher.EXPECT().Publish(gomock.Any()).AnyTimes()

	d := New(st, pusher, nil, relayTopic, metrics.NewWith(prometheus.NewRegistry()), testLogger())
	require.NoError(t, d.Publish(context.Background(), statusEvent()))
}

func TestNotifyDeliversPrebuiltRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)

	rows := []*models.Notification{
		{ID: domain.NotificationID(uuid.New()), UserID: domain.UserID(uuid.New()), Type: models.TypeJobUpdate, Title: "Job updated"},
		{ID: domain.NotificationID(uuid.New()), UserID: domain.UserID(uuid.New()), Type: models.TypeJobUpdate, Title: "Job updated"},
	}
	st.EXPECT().InsertBatch(gomock.Any(), rows).Return(nil)
	pusher.EXPECT().Publish(rows[0])
	pusher.EXPECT().Publish(rows[1])

	d := New(st, pusher, nil, relayTopic, metrics.NewWith(prometheus.NewRegistry()), testLogger())
	require.NoError(t, d.Notify(context.Background(), rows))
}

func TestNotifyEmptyBatchIsANoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	pusher := mocks.NewMockPusher(ctrl)

	d := New(st, pusher, nil, relayTopic, metrics.NewWith(prometheus.NewRegistry()), testLogger())
	require.NoError(t, d.Notify(context.Background(), nil))
}

func TestDescribePerKind(t *testing.T) {
	iv := statusEvent()
	iv.Kind = events.KindInterviewScheduled
	iv.InterviewDate = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	title, _, nType := describe(iv)
	assert.Equal(t, "Interview scheduled", title)
	assert.Equal(t, models.TypeInterviewScheduled, nType)

	sub := statusEvent()
	sub.Kind = events.KindApplicationSubmitted
	title, _, nType = describe(sub)
	assert.Equal(t, "New application received", title)
	assert.Equal(t, models.TypeApplicationStatus, nType)
}
