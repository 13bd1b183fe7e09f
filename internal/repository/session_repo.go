package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/collab-editor/backend/internal/model"
)

// SessionRepository provides data access for sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (id, owner_id, title, description, status, scheduled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.OwnerID,
		session.Title,
		session.Description,
		session.Status,
		session.ScheduledAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	query := `
		SELECT id, owner_id, title, description, status, scheduled_at, started_at, ended_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	session := &model.Session{}
	var description sql.NullString
	var scheduledAt, startedAt, endedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.OwnerID,
		&session.Title,
		&description,
		&session.Status,
		&scheduledAt,
		&startedAt,
		&endedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if description.Valid {
		session.Description = description.String
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		session.ScheduledAt = &t
	}
	if startedAt.Valid {
		t := startedAt.Time
		session.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}

	return session, nil
}

// List retrieves all sessions for an owner.
func (r *SessionRepository) List(ctx context.Context, ownerID string) ([]*model.Session, error) {
	query := `
		SELECT id, owner_id, title, description, status, scheduled_at, started_at, ended_at, created_at, updated_at
		FROM sessions
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session := &model.Session{}
		var description sql.NullString
		var scheduledAt, startedAt, endedAt sql.NullTime

		err := rows.Scan(
			&session.ID,
			&session.OwnerID,
			&session.Title,
			&description,
			&session.Status,
			&scheduledAt,
			&startedAt,
			&endedAt,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if description.Valid {
			session.Description = description.String
		}
		if scheduledAt.Valid {
			t := scheduledAt.Time
			session.ScheduledAt = &t
		}
		if startedAt.Valid {
			t := startedAt.Time
			session.StartedAt = &t
		}
		if endedAt.Valid {
			t := endedAt.Time
			session.EndedAt = &t
		}

		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a session from the database. Files, snapshots and
// comments go with it via the foreign key cascades.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// UpdateStatus updates the status of a session, stamping started_at and
// ended_at when the session goes live or reaches a terminal state.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status model.SessionStatus) error {
	now := time.Now()

	var query string
	args := []interface{}{status, now, now, id}
	switch status {
	case model.SessionStatusLive:
		query = `UPDATE sessions SET status = ?, started_at = ?, updated_at = ? WHERE id = ?`
	case model.SessionStatusFinished, model.SessionStatusCancelled:
		query = `UPDATE sessions SET status = ?, ended_at = ?, updated_at = ? WHERE id = ?`
	default:
		query = `UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`
		args = []interface{}{status, now, id}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// Exists checks if a session exists.
func (r *SessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT 1 FROM sessions WHERE id = ? LIMIT 1`

	var exists int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return true, nil
}
