package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tradematch/internal/auth/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresUserStore persists accounts. Email uniqueness is enforced by the
// unique index on lower(email); racing registrations surface as
// sentinel.ErrAlreadyUsed for exactly one loser.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		user.ID.String(), user.Email, user.PasswordHash, string(user.Role), user.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE lower(email) = lower($1)`,
		email,
	)
	return scanUser(row)
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`,
		id.String(),
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		user    models.User
		rawID   string
		rawRole string
	)
	err := row.Scan(&rawID, &user.Email, &user.PasswordHash, &rawRole, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.ID, err = domain.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id: %w", err)
	}
	user.Role, err = domain.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("stored user role: %w", err)
	}
	return &user, nil
}
