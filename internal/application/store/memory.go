package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tradematch/internal/application/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// InMemory keeps applications in maps. The duplicate guard holds because
// every mutation runs under one mutex, mirroring the transactional guarantee
// the Postgres store gets from its partial unique index.
type InMemory struct {
	mu   sync.RWMutex
	apps map[domain.ApplicationID]*models.Application
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[domain.ApplicationID]*models.Application)}
}

func (s *InMemory) CreateIfAbsent(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.apps {
		if existing.ApplicantID == app.ApplicantID &&
			existing.JobID == app.JobID &&
			existing.Status != models.StatusWithdrawn {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (s *InMemory) FindActive(_ context.Context, applicantID domain.UserID, jobID domain.JobID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.ApplicantID == applicantID && app.JobID == jobID && app.Status != models.StatusWithdrawn {
			cp := *app
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) UpdateStatusIf(_ context.Context, id domain.ApplicationID, from, to models.Status, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.Status != from {
		return sentinel.ErrConflict
	}
	app.Status = to
	app.UpdatedAt = now
	return nil
}

func (s *InMemory) ListByApplicant(_ context.Context, applicantID domain.UserID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if app.ApplicantID == applicantID {
			cp := *app
			out = append(out, &cp)
		}
	}
	sortBySubmitted(out)
	return out, nil
}

func (s *InMemory) ListByJobs(_ context.Context, jobIDs []domain.JobID) ([]*models.Application, error) {
	wanted := make(map[domain.JobID]bool, len(jobIDs))
	for _, id := range jobIDs {
		wanted[id] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if wanted[app.JobID] {
			cp := *app
			out = append(out, &cp)
		}
	}
	sortBySubmitted(out)
	return out, nil
}

func sortBySubmitted(apps []*models.Application) {
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].SubmittedAt.Before(apps[j].SubmittedAt)
	})
}
