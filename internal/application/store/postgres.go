package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tradematch/internal/application/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists applications over database/sql. The partial unique index
// applications_active_dedup is the authoritative duplicate guard.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateIfAbsent(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (id, job_id, applicant_id, status, cover_letter, resume_url, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.JobID),
		uuid.UUID(app.ApplicantID),
		string(app.Status),
		app.CoverLetter,
		app.ResumeURL,
		app.SubmittedAt,
		app.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ApplicationID) (*models.Application, error) {
	query := selectApplications + ` WHERE id = $1`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return app, err
}

func (s *Postgres) FindActive(ctx context.Context, applicantID domain.UserID, jobID domain.JobID) (*models.Application, error) {
	query := selectApplications + ` WHERE applicant_id = $1 AND job_id = $2 AND status <> 'withdrawn'`
	app, err := scanApplication(s.db.QueryRowContext(ctx, query, uuid.UUID(applicantID), uuid.UUID(jobID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return app, err
}

// UpdateStatusIf conditions the write on the status read at decision time. A
// zero row count is disambiguated with a follow-up existence check: missing
// row means not found, present row means a concurrent transition won.
func (s *Postgres) UpdateStatusIf(ctx context.Context, id domain.ApplicationID, from, to models.Status, now time.Time) error {
	query := `
		UPDATE applications
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(id), string(to), now, string(from))
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, uuid.UUID(id),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check application existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *Postgres) ListByApplicant(ctx context.Context, applicantID domain.UserID) ([]*models.Application, error) {
	query := selectApplications + ` WHERE applicant_id = $1 ORDER BY submitted_at`
	return s.queryMany(ctx, query, uuid.UUID(applicantID))
}

func (s *Postgres) ListByJobs(ctx context.Context, jobIDs []domain.JobID) ([]*models.Application, error) {
	ids := make([]uuid.UUID, len(jobIDs))
	for i, id := range jobIDs {
		ids[i] = uuid.UUID(id)
	}
	query := selectApplications + ` WHERE job_id = ANY($1) ORDER BY submitted_at`
	return s.queryMany(ctx, query, pq.Array(ids))
}

const selectApplications = `
	SELECT id, job_id, applicant_id, status, cover_letter, resume_url, submitted_at, updated_at
	FROM applications`

func (s *Postgres) queryMany(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		id          uuid.UUID
		jobID       uuid.UUID
		applicantID uuid.UUID
		status      string
		coverLetter string
		resumeURL   string
		submittedAt time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &jobID, &applicantID, &status, &coverLetter, &resumeURL, &submittedAt, &updatedAt); err != nil {
		return nil, err
	}
	return &models.Application{
		ID:          domain.ApplicationID(id),
		JobID:       domain.JobID(jobID),
		ApplicantID: domain.UserID(applicantID),
		Status:      models.Status(status),
		CoverLetter: coverLetter,
		ResumeURL:   resumeURL,
		SubmittedAt: submittedAt,
		UpdatedAt:   updatedAt,
	}, nil
}
