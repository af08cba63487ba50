// Package service exposes the recipient-facing notification operations:
// querying the durable feed, flipping the read flag, deleting, and live
// subscription.
package service

import (
	"context"
	"errors"

	"tradematch/internal/authz"
	"tradematch/internal/notification/hub"
	"tradematch/internal/notification/models"
	"tradematch/internal/notification/store"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
	"tradematch/pkg/platform/sentinel"
)

// Service mediates access to a user's notifications.
type Service struct {
	store store.Store
	hub   *hub.Hub
}

func New(st store.Store, h *hub.Hub) *Service {
	return &Service{store: st, hub: h}
}

// List returns the actor's notifications in creation order.
func (s *Service) List(ctx context.Context, actor domain.Principal) ([]*models.Notification, error) {
	out, err := s.store.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list notifications", err)
	}
	return out, nil
}

// UnreadCount returns the actor's unread badge count.
func (s *Service) UnreadCount(ctx context.Context, actor domain.Principal) (int, error) {
	count, err := s.store.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "count unread notifications", err)
	}
	return count, nil
}

// MarkRead flips the read flag. Marking an already-read notification is a
// no-op success.
func (s *Service) MarkRead(ctx context.Context, actor domain.Principal, id domain.NotificationID) error {
	n, err := s.authorize(ctx, actor, id, authz.ActionMarkRead)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	if err := s.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "mark notification read", err)
	}
	return nil
}

// Delete permanently removes the actor's own notification.
func (s *Service) Delete(ctx context.Context, actor domain.Principal, id domain.NotificationID) error {
	if _, err := s.authorize(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "delete notification", err)
	}
	return nil
}

// Subscribe opens a live stream of the actor's future notifications. The
// cancel function is synchronous; after it returns no further values arrive
// and the channel closes.
func (s *Service) Subscribe(actor domain.Principal) (<-chan *models.Notification, func()) {
	return s.hub.Subscribe(actor.UserID)
}

func (s *Service) authorize(ctx context.Context, actor domain.Principal, id domain.NotificationID, action authz.Action) (*models.Notification, error) {
	n, err := s.store.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "notification does not exist")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "look up notification", err)
	}
	if !authz.CanMutate(authz.EntityNotification, authz.OwnerRefs{UserID: n.UserID}, actor, action) {
		return nil, dErrors.New(dErrors.CodeForbidden, "notifications belong to their addressee")
	}
	return n, nil
}
