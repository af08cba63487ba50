package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tradematch/internal/notification/models"
	"tradematch/pkg/domain"
	"tradematch/pkg/platform/sentinel"
)

// Postgres persists notifications on a pgx pool. Fan-out is the hottest
// write path in the system, so InsertBatch queues all rows of one event into
// a single SendBatch round trip.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) InsertBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, read, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	batch := &pgx.Batch{}
	for _, n := range notifications {
		meta, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
		batch.Queue(query,
			uuid.UUID(n.ID),
			uuid.UUID(n.UserID),
			string(n.Type),
			n.Title,
			n.Message,
			n.Read,
			meta,
			n.CreatedAt,
		)
	}
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range notifications {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.NotificationID) (*models.Notification, error) {
	query := selectNotifications + ` WHERE id = $1`
	n, err := scanNotification(s.pool.QueryRow(ctx, query, uuid.UUID(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return n, err
}

func (s *Postgres) ListByUser(ctx context.Context, userID domain.UserID) ([]*models.Notification, error) {
	query := selectNotifications + ` WHERE user_id = $1 ORDER BY seq`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Postgres) CountUnread(ctx context.Context, userID domain.UserID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT read`,
		uuid.UUID(userID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (s *Postgres) MarkRead(ctx context.Context, id domain.NotificationID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.NotificationID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectNotifications = `
	SELECT id, user_id, type, title, message, read, metadata, created_at
	FROM notifications`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		nType     string
		title     string
		message   string
		read      bool
		meta      []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &userID, &nType, &title, &message, &read, &meta, &createdAt); err != nil {
		return nil, err
	}
	var metadata map[string]string
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
		}
	}
	return &models.Notification{
		ID:        domain.NotificationID(id),
		UserID:    domain.UserID(userID),
		Type:      models.Type(nType),
		Title:     title,
		Message:   message,
		Read:      read,
		Metadata:  metadata,
		CreatedAt: createdAt,
	}, nil
}
