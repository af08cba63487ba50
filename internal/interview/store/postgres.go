package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tradematch/internal/interview/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// Postgres persists interviews over database/sql. Interviewer ids live in a
// uuid[] column read and written through pq.Array.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, iv *models.Interview) error {
	query := `
		INSERT INTO interviews (id, application_id, interview_date, status, interview_type, location, interviewer_ids, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(iv.ID),
		uuid.UUID(iv.ApplicationID),
		iv.InterviewDate,
		string(iv.Status),
		string(iv.Type),
		iv.Location,
		pq.Array(interviewerUUIDs(iv.InterviewerIDs)),
		iv.Notes,
		iv.CreatedAt,
		iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.InterviewID) (*models.Interview, error) {
	query := selectInterviews + ` WHERE id = $1`
	iv, err := scanInterview(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return iv, err
}

func (s *Postgres) Update(ctx context.Context, iv *models.Interview) error {
	query := `
		UPDATE interviews
		SET interview_date = $2, status = $3, location = $4, interviewer_ids = $5, notes = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(iv.ID),
		iv.InterviewDate,
		string(iv.Status),
		iv.Location,
		pq.Array(interviewerUUIDs(iv.InterviewerIDs)),
		iv.Notes,
		iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update interview: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByApplication(ctx context.Context, applicationID domain.ApplicationID) ([]*models.Interview, error) {
	query := selectInterviews + ` WHERE application_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(applicationID))
	if err != nil {
		return nil, fmt.Errorf("query interviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *Postgres) ActiveExists(ctx context.Context, applicationID domain.ApplicationID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM interviews WHERE application_id = $1 AND status <> 'cancelled')`,
		uuid.UUID(applicationID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check interviews: %w", err)
	}
	return exists, nil
}

const selectInterviews = `
	SELECT id, application_id, interview_date, status, interview_type, location, interviewer_ids, notes, created_at, updated_at
	FROM interviews`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterview(row rowScanner) (*models.Interview, error) {
	var (
		id            uuid.UUID
		applicationID uuid.UUID
		date          time.Time
		status        string
		ivType        string
		location      string
		interviewers  []uuid.UUID
		notes         string
		createdAt     time.Time
		updatedAt     time.Time
	)
	if err := row.Scan(&id, &applicationID, &date, &status, &ivType, &location, pq.Array(&interviewers), &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ids := make([]domain.UserID, len(interviewers))
	for i, u := range interviewers {
		ids[i] = domain.UserID(u)
	}
	return &models.Interview{
		ID:             domain.InterviewID(id),
		ApplicationID:  domain.ApplicationID(applicationID),
		InterviewDate:  date,
		Status:         models.Status(status),
		Type:           models.Type(ivType),
		Location:       location,
		InterviewerIDs: ids,
		Notes:          notes,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

func interviewerUUIDs(ids []domain.UserID) []uuid.UUID {
	out := make([]uuid.UUID, len(ids))
	for i, id := range ids {
		out[i] = uuid.UUID(id)
	}
	return out
}
