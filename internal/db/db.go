// Package db provides PostgreSQL storage for career profile snapshots.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/career-navigator/internal/types"
)

// ErrInvalidSnapshot is returned when a snapshot is missing its session or stage
var ErrInvalidSnapshot = errors.New("invalid snapshot")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profile_snapshots (
	id          BIGSERIAL PRIMARY KEY,
	session_id  UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	stage       TEXT NOT NULL,
	profile     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_profile_snapshots_session
	ON profile_snapshots (session_id, id DESC);
`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateSession registers a session. A nil id generates a new one.
func (db *DB) CreateSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO sessions (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		id,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// SaveSnapshot stores the profile as it stood after a stage committed
func (db *DB) SaveSnapshot(ctx context.Context, sessionID uuid.UUID, stage string, profile types.Profile) (int64, error) {
	if sessionID == uuid.Nil || stage == "" {
		return 0, fmt.Errorf("%w: session id and stage are required", ErrInvalidSnapshot)
	}

	jsonBytes, err := json.Marshal(profile)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal profile: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO profile_snapshots (session_id, stage, profile)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		sessionID, stage, jsonBytes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save snapshot for %s: %w", stage, err)
	}

	if _, err := tx.Exec(ctx, `UPDATE sessions SET updated_at = NOW() WHERE id = $1`, sessionID); err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// LatestSnapshot returns the newest snapshot of a session, or nil if none exists
func (db *DB) LatestSnapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, session_id, stage, profile, created_at
		 FROM profile_snapshots
		 WHERE session_id = $1
		 ORDER BY id DESC LIMIT 1`,
		sessionID,
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns a session's snapshots, oldest first
func (db *DB) ListSnapshots(ctx context.Context, sessionID uuid.UUID, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, stage, profile, created_at
		 FROM profile_snapshots
		 WHERE session_id = $1
		 ORDER BY id ASC LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, rows.Err()
}

// DeleteSession deletes a session and its snapshots (via cascade)
func (db *DB) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var snap Snapshot
	var profileJSON []byte
	if err := row.Scan(&snap.ID, &snap.SessionID, &snap.Stage, &profileJSON, &snap.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profileJSON, &snap.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %d: %w", snap.ID, err)
	}
	return &snap, nil
}
