package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// PostgresStore reads jobs from the shared relational store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.JobID) (*Job, error) {
	query := `
		SELECT id, employer_id, title, status, created_at
		FROM jobs
		WHERE id = $1
	`
	j, err := scanJob(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return j, err
}

func (s *PostgresStore) ListByEmployer(ctx context.Context, employerID domain.UserID) ([]*Job, error) {
	query := `
		SELECT id, employer_id, title, status, created_at
		FROM jobs
		WHERE employer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(employerID))
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, j *Job) error {
	query := `
		INSERT INTO jobs (id, employer_id, title, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(j.ID),
		uuid.UUID(j.EmployerID),
		j.Title,
		string(j.Status),
		j.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		id         uuid.UUID
		employerID uuid.UUID
		title      string
		status     string
		createdAt  time.Time
	)
	if err := row.Scan(&id, &employerID, &title, &status, &createdAt); err != nil {
		return nil, err
	}
	return &Job{
		ID:         domain.JobID(id),
		EmployerID: domain.UserID(employerID),
		Title:      title,
		Status:     Status(status),
		CreatedAt:  createdAt,
	}, nil
}
