package job

import (
	"context"
	"sync"

	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// InMemoryStore keeps jobs in a map for development and unit tests.
type InMemoryStore struct {
	mu   sync.RWMutex
	jobs map[domain.JobID]*Job
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[domain.JobID]*Job)}
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.JobID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *InMemoryStore) ListByEmployer(_ context.Context, employerID domain.UserID) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Job
	for _, j := range s.jobs {
		if j.EmployerID == employerID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, j *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}
