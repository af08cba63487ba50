package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tradematch/internal/auth/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// InMemoryUserStore keeps accounts in a map for development and tests.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[domain.UserID]*models.User
	byEmail map[string]domain.UserID
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[domain.UserID]*models.User),
		byEmail: make(map[string]domain.UserID),
	}
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	key := strings.ToLower(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, id domain.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// InMemorySessionStore keeps sessions in a map, honoring TTL on read.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
	now      func() time.Time
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[uuid.UUID]*models.Session),
		now:      time.Now,
	}
}

func (s *InMemorySessionStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if session.Expired(s.now()) {
		return nil, sentinel.ErrExpired
	}
	cp := *session
	return &cp, nil
}
