package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/collab-editor/backend/internal/model"
)

// FileRepository provides data access for a session's live file set.
type FileRepository struct {
	db *sql.DB
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// SaveFileSet replaces the stored live file set for a session with the
// given one. The replace is transactional so readers never observe a
// half-written set.
func (r *FileRepository) SaveFileSet(ctx context.Context, sessionID string, files model.FileSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear file set: %w", err)
	}

	now := time.Now()
	for path, content := range files {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO files (session_id, path, content, updated_at) VALUES (?, ?, ?, ?)`,
			sessionID, path, content, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save file %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit file set: %w", err)
	}

	return nil
}

// GetLatestFileSet returns the current live file set for a session.
// A session with no saved files yields an empty, non-nil set.
func (r *FileRepository) GetLatestFileSet(ctx context.Context, sessionID string) (model.FileSet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT path, content FROM files WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load file set: %w", err)
	}
	defer rows.Close()

	files := make(model.FileSet)
	for rows.Next() {
		var path, content string
		if err := rows.Scan(&path, &content); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files[path] = content
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}
