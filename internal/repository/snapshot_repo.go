package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/collab-editor/backend/internal/model"
)

// SnapshotRepository provides data access for snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new snapshot. Snapshots are immutable once written.
func (r *SnapshotRepository) Create(ctx context.Context, snap *model.Snapshot) error {
	diffJSON, err := json.Marshal(snap.Diff)
	if err != nil {
		return fmt.Errorf("failed to serialize diff: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, session_id, author_id, description, base_snapshot_id, diff, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		snap.ID,
		snap.SessionID,
		snap.AuthorID,
		snap.Description,
		snap.BaseSnapshotID,
		string(diffJSON),
		snap.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	return nil
}

// GetByID retrieves a snapshot by its ID. Stored diffs in either the
// legacy or the current file shape deserialize to the same FileSet.
func (r *SnapshotRepository) GetByID(ctx context.Context, id string) (*model.Snapshot, error) {
	query := `
		SELECT id, session_id, author_id, description, base_snapshot_id, diff, created_at
		FROM snapshots
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetLatestBySession retrieves the most recent snapshot for a session in
// creation order, or model.ErrSnapshotNotFound if none exists yet.
func (r *SnapshotRepository) GetLatestBySession(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	query := `
		SELECT id, session_id, author_id, description, base_snapshot_id, diff, created_at
		FROM snapshots
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, sessionID))
}

// ListBySession retrieves all snapshots for a session in creation order.
func (r *SnapshotRepository) ListBySession(ctx context.Context, sessionID string) ([]*model.Snapshot, error) {
	query := `
		SELECT id, session_id, author_id, description, base_snapshot_id, diff, created_at
		FROM snapshots
		WHERE session_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}

func (r *SnapshotRepository) scanOne(row *sql.Row) (*model.Snapshot, error) {
	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, model.ErrSnapshotNotFound
	}
	return snap, err
}

// scanSnapshot reads one snapshot row via the given scan function.
func scanSnapshot(scan func(dest ...interface{}) error) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	var description sql.NullString
	var baseID sql.NullString
	var diffJSON string

	err := scan(
		&snap.ID,
		&snap.SessionID,
		&snap.AuthorID,
		&description,
		&baseID,
		&diffJSON,
		&snap.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	if description.Valid {
		snap.Description = description.String
	}
	if baseID.Valid {
		id := baseID.String
		snap.BaseSnapshotID = &id
	}

	if err := json.Unmarshal([]byte(diffJSON), &snap.Diff); err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	return snap, nil
}
