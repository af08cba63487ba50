// Package postgres opens the relational store and bootstraps its schema.
// The schema lives here rather than in external migration tooling so the
// integration test containers and the server share one source of truth.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id UUID PRIMARY KEY,
		employer_id UUID NOT NULL,
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id UUID PRIMARY KEY,
		job_id UUID NOT NULL REFERENCES jobs(id),
		applicant_id UUID NOT NULL,
		status TEXT NOT NULL,
		cover_letter TEXT NOT NULL DEFAULT '',
		resume_url TEXT NOT NULL DEFAULT '',
		submitted_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	// The authoritative duplicate-application guard. The service pre-check is
	// advisory; this index is what makes concurrent submits safe.
	`CREATE UNIQUE INDEX IF NOT EXISTS applications_active_dedup
		ON applications (applicant_id, job_id) WHERE status <> 'withdrawn'`,
	`CREATE INDEX IF NOT EXISTS applications_job_idx ON applications (job_id)`,
	`CREATE TABLE IF NOT EXISTS interviews (
		id UUID PRIMARY KEY,
		application_id UUID NOT NULL REFERENCES applications(id),
		interview_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		interview_type TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		interviewer_ids UUID[] NOT NULL DEFAULT '{}',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS interviews_application_idx ON interviews (application_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		seq BIGSERIAL,
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	// seq preserves insert order for per-user retrieval; created_at alone can
	// collide under concurrent fan-out.
	`CREATE INDEX IF NOT EXISTS notifications_user_seq_idx ON notifications (user_id, seq)`,
}

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
