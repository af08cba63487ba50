package store

import (
	"context"
	"sync"

	"tradematch/internal/notification/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// InMemory keeps notifications in insert order per user.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[domain.NotificationID]*models.Notification
	order map[domain.UserID][]domain.NotificationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[domain.NotificationID]*models.Notification),
		order: make(map[domain.UserID][]domain.NotificationID),
	}
}

func (s *InMemory) InsertBatch(_ context.Context, notifications []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notifications {
		cp := clone(n)
		s.byID[n.ID] = cp
		s.order[n.UserID] = append(s.order[n.UserID], n.ID)
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(n), nil
}

func (s *InMemory) ListByUser(_ context.Context, userID domain.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.order[userID]
	out := make([]*models.Notification, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.byID[id]; ok {
			out = append(out, clone(n))
		}
	}
	return out, nil
}

func (s *InMemory) CountUnread(_ context.Context, userID domain.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, id := range s.order[userID] {
		if n, ok := s.byID[id]; ok && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) MarkRead(_ context.Context, id domain.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	ids := s.order[n.UserID]
	for i, nid := range ids {
		if nid == id {
			s.order[n.UserID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func clone(n *models.Notification) *models.Notification {
	cp := *n
	if n.Metadata != nil {
		cp.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
