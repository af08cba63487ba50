package store

import (
	"context"
	"sort"
	"sync"

	"tradematch/internal/interview/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// InMemory keeps interviews in a map for development and unit tests.
type InMemory struct {
	mu         sync.RWMutex
	interviews map[domain.InterviewID]*models.Interview
}

func NewInMemory() *InMemory {
	return &InMemory{interviews: make(map[domain.InterviewID]*models.Interview)}
}

func (s *InMemory) Create(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[iv.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := clone(iv)
	s.interviews[iv.ID] = cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.InterviewID) (*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(iv), nil
}

func (s *InMemory) Update(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[iv.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.interviews[iv.ID] = clone(iv)
	return nil
}

func (s *InMemory) ListByApplication(_ context.Context, applicationID domain.ApplicationID) ([]*models.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Interview
	for _, iv := range s.interviews {
		if iv.ApplicationID == applicationID {
			out = append(out, clone(iv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ActiveExists(_ context.Context, applicationID domain.ApplicationID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, iv := range s.interviews {
		if iv.ApplicationID == applicationID && iv.Status != models.StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func clone(iv *models.Interview) *models.Interview {
	cp := *iv
	cp.InterviewerIDs = append([]domain.UserID(nil), iv.InterviewerIDs...)
	return &cp
}
