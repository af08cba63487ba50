// Package dispatcher converts domain events into per-recipient notification
// rows and live pushes.
//
// Delivery is split exactly like the write paths it serves: the durable
// insert is synchronous and fail-closed (the triggering operation must not
// report success if the rows cannot be written), while the hub push and the
// Kafka relay are fail-open and only counted.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradematch/internal/events"
	"tradematch/internal/notification/hub"
	"tradematch/internal/notification/models"
	"tradematch/internal/notification/store"
	"tradematch/internal/platform/metrics"
	"tradematch/pkg/domain"
)

//go:generate mockgen -source=dispatcher.go -destination=mocks/mocks.go -package=mocks

// Store is the durable half of delivery.
type Store interface {
	InsertBatch(ctx context.Context, notifications []*models.Notification) error
}

// Pusher is the live half of delivery.
type Pusher interface {
	Publish(n *models.Notification)
}

// Relay publishes the raw domain event for downstream consumers.
type Relay interface {
	Produce(ctx context.Context, topic string, key, value []byte, done func(error))
}

const (
	insertAttempts = 3
	insertBackoff  = 100 * time.Millisecond
)

// Dispatcher implements events.Publisher.
type Dispatcher struct {
	store      Store
	pusher     Pusher
	relay      Relay // nil when Kafka is not configured
	relayTopic string
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

var _ events.Publisher = (*Dispatcher)(nil)

func New(st Store, pusher Pusher, relay Relay, relayTopic string, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:      st,
		pusher:     pusher,
		relay:      relay,
		relayTopic: relayTopic,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Publish fans the event out to every recipient. The durable insert must
// succeed; push and relay failures are logged and counted but never
// propagated.
func (d *Dispatcher) Publish(ctx context.Context, ev events.Event) error {
	notifications := d.render(ev)
	if err := d.deliver(ctx, notifications); err != nil {
		return err
	}
	d.relayEvent(ctx, ev)
	return nil
}

// Notify persists and pushes pre-built notifications. The ingest pipeline
// uses this for platform events that have no lifecycle event shape.
func (d *Dispatcher) Notify(ctx context.Context, notifications []*models.Notification) error {
	return d.deliver(ctx, notifications)
}

func (d *Dispatcher) deliver(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	var err error
	for attempt := 1; attempt <= insertAttempts; attempt++ {
		if err = d.store.InsertBatch(ctx, notifications); err == nil {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("insert notifications: %w", err)
		}
		if attempt < insertAttempts {
			select {
			case <-time.After(time.Duration(attempt) * insertBackoff):
			case <-ctx.Done():
				return fmt.Errorf("insert notifications: %w", err)
			}
		}
	}
	if err != nil {
		return fmt.Errorf("insert notifications after %d attempts: %w", insertAttempts, err)
	}
	for _, n := range notifications {
		d.metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
		d.pusher.Publish(n)
	}
	return nil
}

func (d *Dispatcher) relayEvent(ctx context.Context, ev events.Event) {
	if d.relay == nil {
		return
	}
	payload, err := json.Marshal(relayPayload(ev))
	if err != nil {
		d.metrics.RelayFailures.Inc()
		d.logger.ErrorContext(ctx, "marshal relay event", "kind", ev.Kind, "error", err)
		return
	}
	key := []byte(ev.ApplicationID.String())
	d.relay.Produce(ctx, d.relayTopic, key, payload, func(err error) {
		if err != nil {
			d.metrics.RelayFailures.Inc()
			d.logger.Error("relay domain event", "kind", ev.Kind, "error", err)
		}
	})
}

// relayPayload is the wire form of a relayed domain event.
func relayPayload(ev events.Event) events.Event {
	return ev
}

// render builds one notification per non-acting recipient.
func (d *Dispatcher) render(ev events.Event) []*models.Notification {
	recipients := ev.Recipients()
	now := d.now().UTC()
	out := make([]*models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		title, message, nType := describe(ev)
		out = append(out, &models.Notification{
			ID:        domain.NotificationID(uuid.New()),
			UserID:    userID,
			Type:      nType,
			Title:     title,
			Message:   message,
			Metadata:  metadata(ev),
			CreatedAt: now,
		})
	}
	return out
}

func describe(ev events.Event) (title, message string, nType models.Type) {
	switch ev.Kind {
	case events.KindApplicationSubmitted:
		return "New application received",
			"A candidate applied to one of your job postings.",
			models.TypeApplicationStatus
	case events.KindStatusChanged:
		return "Application status updated",
			fmt.Sprintf("The application moved from %s to %s.", ev.FromStatus, ev.ToStatus),
			models.TypeApplicationStatus
	case events.KindInterviewScheduled:
		return "Interview scheduled",
			fmt.Sprintf("An interview has been scheduled for %s.", ev.InterviewDate.Format(time.RFC1123)),
			models.TypeInterviewScheduled
	case events.KindInterviewUpdated:
		return "Interview " + ev.InterviewStatus,
			fmt.Sprintf("The interview is now %s.", ev.InterviewStatus),
			models.TypeInterviewScheduled
	default:
		return "Update", "Something changed on one of your applications.", models.TypeSystemAlert
	}
}

func metadata(ev events.Event) map[string]string {
	meta := make(map[string]string, 3)
	if !ev.ApplicationID.IsNil() {
		meta[models.MetaApplicationID] = ev.ApplicationID.String()
	}
	if !ev.JobID.IsNil() {
		meta[models.MetaJobID] = ev.JobID.String()
	}
	if !ev.InterviewID.IsNil() {
		meta[models.MetaInterviewID] = ev.InterviewID.String()
	}
	return meta
}

// Compile-time check that the production hub satisfies Pusher.
var _ Pusher = (*hub.Hub)(nil)

// Store is satisfied by the full store port.
var _ Store = (store.Store)(nil)
