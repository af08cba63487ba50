// Package ingest materializes platform events from Kafka into notifications.
// Job updates, company news, and system alerts originate outside the
// lifecycle core; this consumer funnels them through the same dispatcher so
// durable-then-push semantics hold for every notification in the system.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tradematch/internal/notification/models"
	"tradematch/internal/platform/kafka"
	"tradematch/pkg/domain"
)

// platformEvent is the wire shape published by the listing and marketing
// systems.
type platformEvent struct {
	Type     string            `json:"type"`
	UserIDs  []string          `json:"user_ids"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Notifier is the dispatcher's pre-built delivery entry point.
type Notifier interface {
	Notify(ctx context.Context, notifications []*models.Notification) error
}

// Handler consumes platform events. It implements kafka.Handler.
type Handler struct {
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandler(notifier Notifier, logger *slog.Logger) *Handler {
	return &Handler{notifier: notifier, logger: logger, now: time.Now}
}

var allowedTypes = map[models.Type]bool{
	models.TypeJobUpdate:         true,
	models.TypeCompanyNews:       true,
	models.TypeSystemAlert:       true,
	models.TypeInterviewReminder: true,
}

// Handle validates one platform event and fans it out. Malformed events are
// skipped with a log line; failing the whole consumer over one bad producer
// would stall every downstream notification.
func (h *Handler) Handle(ctx context.Context, msg *kafka.Message) error {
	var ev platformEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger.WarnContext(ctx, "malformed platform event, skipping",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	nType := models.Type(ev.Type)
	if !allowedTypes[nType] {
		h.logger.WarnContext(ctx, "unsupported platform event type, skipping", "type", ev.Type)
		return nil
	}
	if ev.Title == "" || len(ev.UserIDs) == 0 {
		h.logger.WarnContext(ctx, "incomplete platform event, skipping", "type", ev.Type)
		return nil
	}

	now := h.now().UTC()
	notifications := make([]*models.Notification, 0, len(ev.UserIDs))
	for _, raw := range ev.UserIDs {
		userID, err := domain.ParseUserID(raw)
		if err != nil {
			h.logger.WarnContext(ctx, "platform event carries invalid user id, skipping recipient",
				"user_id", raw,
			)
			continue
		}
		notifications = append(notifications, &models.Notification{
			ID:        domain.NotificationID(uuid.New()),
			UserID:    userID,
			Type:      nType,
			Title:     ev.Title,
			Message:   ev.Message,
			Metadata:  ev.Metadata,
			CreatedAt: now,
		})
	}
	if len(notifications) == 0 {
		return nil
	}
	if err := h.notifier.Notify(ctx, notifications); err != nil {
		return fmt.Errorf("deliver platform notifications: %w", err)
	}
	return nil
}
