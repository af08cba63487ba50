// Package service implements account registration and login. Tokens are
// HS256 JWTs bound to a server-side session; Verify requires both the token
// signature and a live session, so revocation is a session delete away.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"tradematch/internal/auth/models"
	"tradematch/internal/auth/store"
	"tradematch/internal/platform/middleware"
	"tradematch/pkg/domain"
	dErrors "tradematch/pkg/domain-errors"
	"tradematch/pkg/platform/sentinel"
)

type Service struct {
	users      store.UserStore
	sessions   store.SessionStore
	signingKey []byte
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

var _ middleware.TokenVerifier = (*Service)(nil)

func New(users store.UserStore, sessions store.SessionStore, signingKey []byte, sessionTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		signingKey: signingKey,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an account. Candidate and employer self-register; admin
// accounts are provisioned out of band.
func (s *Service) Register(ctx context.Context, email, password string, role domain.Role) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email address is required")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if role != domain.RoleCandidate && role != domain.RoleEmployer {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be candidate or employer")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}
	user := &models.User{
		ID:           domain.UserID(uuid.New()),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create user", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks credentials and opens a session. The returned token carries
// the session id; its lifetime matches the session TTL.
func (s *Service) Login(ctx context.Context, email, password, userAgent string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return "", nil, dErrors.Wrap(dErrors.CodeInternal, "look up user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		Role:      user.Role,
		Device:    deviceSummary(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", nil, dErrors.Wrap(dErrors.CodeInternal, "save session", err)
	}
	token, err := s.issueToken(session)
	if err != nil {
		return "", nil, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"session_id", session.ID,
		"device", session.Device,
	)
	return token, user, nil
}

// Verify resolves a bearer token into a principal. It implements
// middleware.TokenVerifier.
func (s *Service) Verify(ctx context.Context, raw string) (domain.Principal, error) {
	claims, err := s.parseToken(raw)
	if err != nil {
		return domain.Principal{}, dErrors.Wrap(dErrors.CodeUnauthorized, "invalid token", err)
	}
	sessionID, _ := uuid.Parse(claims.SessionID)
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
		return domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "session no longer active")
	}
	if err != nil {
		return domain.Principal{}, dErrors.Wrap(dErrors.CodeInternal, "look up session", err)
	}
	principal := domain.Principal{UserID: session.UserID, Role: session.Role}
	if !principal.IsValid() {
		return domain.Principal{}, dErrors.New(dErrors.CodeUnauthorized, "session carries no valid principal")
	}
	return principal, nil
}

// deviceSummary condenses a User-Agent header into a short label for the
// session overview.
func deviceSummary(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	parts := make([]string, 0, 2)
	if browser != "" {
		parts = append(parts, browser)
	}
	if osName := ua.OSInfo().Name; osName != "" {
		parts = append(parts, osName)
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, " on ")
}
