package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/shared"
)

// SessionEvent is a row of the session_events audit trail.
type SessionEvent struct {
	ID        string
	Username  string
	Kind      string
	Reason    string
	CreatedAt time.Time
}

// SessionRepository persists the single active [models.Session].
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the stored session, or nil when signed out.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT id, username, token, created_at, expires_at
		FROM sessions
		WHERE slot = 1
	`

	var (
		s         models.Session
		expiresAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query).Scan(&s.ID, &s.Username, &s.Token, &s.CreatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s.ExpiresAt = timePtr(expiresAt)
	return &s, nil
}

// Save replaces the stored session.
func (r *SessionRepository) Save(ctx context.Context, s *models.Session) error {
	if s.ID == "" {
		s.ID = shared.GenerateID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sessions (id, slot, username, token, created_at, expires_at) VALUES (?, 1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			username = excluded.username,
			token = excluded.token,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.Username, s.Token, s.CreatedAt.UTC(), nullTime(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE slot = 1"); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// RecordEvent appends to the session audit trail.
func (r *SessionRepository) RecordEvent(ctx context.Context, username, kind, reason string) error {
	query := `
		INSERT INTO session_events (id, username, kind, reason, created_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, shared.GenerateID(), username, kind, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert session event: %w", err)
	}
	return nil
}

// Events lists recorded events, newest first. An empty username matches every user; limit <= 0 means no limit.
func (r *SessionRepository) Events(ctx context.Context, username string, limit int) ([]SessionEvent, error) {
	query := `
		SELECT id, username, kind, reason, created_at
		FROM session_events
	`
	args := []any{}

	if username != "" {
		query += " WHERE username = ?"
		args = append(args, username)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []SessionEvent
	for rows.Next() {
		var e SessionEvent
		if err := rows.Scan(&e.ID, &e.Username, &e.Kind, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// PruneEvents deletes events older than before and returns how many were removed.
func (r *SessionRepository) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM session_events WHERE created_at < ?", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune session events: %w", err)
	}
	return result.RowsAffected()
}
