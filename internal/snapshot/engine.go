// Package snapshot computes normalized snapshot diffs and orchestrates
// snapshot capture.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/collab-editor/backend/internal/model"
)

// CountLines returns the number of lines in a file content, splitting on
// the line separator. An empty content still counts as one line.
func CountLines(content string) int {
	return len(strings.Split(content, "\n"))
}

// ComputeDiff produces the normalized diff record between the most
// recent previously stored file set (nil for a first capture) and the
// newly submitted one.
//
// linesChanged accumulates |currentLines - previousLines| for paths
// present in both sets, the full line count of added paths, and the full
// previous line count of removed paths. It is a size-delta magnitude,
// not a true added/removed line diff; existing stored snapshots were
// computed this way and the semantics must be preserved exactly.
//
// filesModified lists the paths present in the new file set, not the
// symmetric union with removed paths.
func ComputeDiff(prev, next model.FileSet) model.Diff {
	linesChanged := 0
	filesModified := make([]string, 0, len(next))

	for path, content := range next {
		lines := CountLines(content)
		if prevContent, ok := prev[path]; ok {
			delta := lines - CountLines(prevContent)
			if delta < 0 {
				delta = -delta
			}
			linesChanged += delta
		} else {
			linesChanged += lines
		}
		filesModified = append(filesModified, path)
	}

	for path, content := range prev {
		if _, ok := next[path]; !ok {
			linesChanged += CountLines(content)
		}
	}

	// File sets carry no ordering; sort for a stable record
	sort.Strings(filesModified)

	return model.Diff{
		Files: next.Clone(),
		Metadata: model.DiffMetadata{
			LinesChanged:  linesChanged,
			FilesModified: filesModified,
		},
	}
}

// Materialize returns the snapshot's normalized file set for display or
// restore. Deserialization already normalized the legacy and current
// shapes to one mapping; a snapshot with no files is a reportable error,
// never a silently-empty success.
func Materialize(snap *model.Snapshot) (model.FileSet, error) {
	if len(snap.Diff.Files) == 0 {
		return nil, model.ErrNoFilesInSnapshot
	}
	return snap.Diff.Files.Clone(), nil
}

// Store is the persistence surface the capture service depends on.
type Store interface {
	Create(ctx context.Context, snap *model.Snapshot) error
	GetLatestBySession(ctx context.Context, sessionID string) (*model.Snapshot, error)
}

// Service captures snapshots: it diffs the submitted file set against
// the most recent prior snapshot in creation order (never the declared
// base) and persists the result.
type Service struct {
	store Store
}

// NewService creates a new capture service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Capture creates an immutable snapshot of the submitted file set for a
// session. The first capture for a session diffs against nothing, so
// linesChanged is the total line count of the submitted files.
func (s *Service) Capture(ctx context.Context, sessionID, authorID, description string, files model.FileSet) (*model.Snapshot, error) {
	var prevFiles model.FileSet
	var baseID *string

	prev, err := s.store.GetLatestBySession(ctx, sessionID)
	if err != nil && !errors.Is(err, model.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("failed to load previous snapshot: %w", err)
	}
	if prev != nil {
		prevFiles = prev.Diff.Files
		id := prev.ID
		baseID = &id
	}

	if authorID == "" {
		authorID = "anonymous"
	}

	snap := &model.Snapshot{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		AuthorID:       authorID,
		Description:    description,
		BaseSnapshotID: baseID,
		Diff:           ComputeDiff(prevFiles, files),
		CreatedAt:      time.Now(),
	}

	if err := s.store.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	return snap, nil
}
