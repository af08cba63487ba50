// Package store persists notifications. Implementations must preserve insert
// order per user: ListByUser returns oldest first, matching the order pushed
// to live subscribers.
package store

import (
	"context"

	"tradematch/internal/notification/models"
	"tradematch/pkg/domain"
)

// Store is the notification persistence port. InsertBatch is the durable,
// fail-closed half of fan-out: all rows for one event land together or the
// call errors.
type Store interface {
	InsertBatch(ctx context.Context, notifications []*models.Notification) error
	FindByID(ctx context.Context, id domain.NotificationID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID domain.UserID) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID domain.UserID) (int, error)
	MarkRead(ctx context.Context, id domain.NotificationID) error
	Delete(ctx context.Context, id domain.NotificationID) error
}
