// Package restore toggles a client's visible file set between the live,
// continuously edited state and a read-only historical snapshot.
package restore

import (
	"context"
	"fmt"
	"sync"

	"github.com/collab-editor/backend/internal/model"
	"github.com/collab-editor/backend/internal/snapshot"
)

// Storage is the collaborator the controller fetches state through. The
// controller never issues raw queries.
type Storage interface {
	GetLatestFileSet(ctx context.Context, sessionID string) (model.FileSet, error)
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
}

// Controller holds one editing context's view state. At most one
// "current" file set is retained at a time: either the live set or a
// single historical snapshot's normalized set.
type Controller struct {
	storage   Storage
	sessionID string

	mu         sync.Mutex
	files      model.FileSet
	readOnly   bool
	snapshotID string // snapshot currently viewed, "" when live
}

// NewController creates a controller for one session's editing context.
func NewController(storage Storage, sessionID string) *Controller {
	return &Controller{
		storage:   storage,
		sessionID: sessionID,
	}
}

// Restore fetches the snapshot, switches the view to its normalized
// file set in read-only mode, and records the snapshot as current so
// new comments attach to it. A snapshot with no files after
// normalization is a reportable failure and leaves the view unchanged.
func (c *Controller) Restore(ctx context.Context, snapshotID string) (model.FileSet, error) {
	snap, err := c.storage.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	files, err := snapshot.Materialize(snap)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = files
	c.readOnly = true
	c.snapshotID = snap.ID

	return files.Clone(), nil
}

// ReturnToLive discards the historical file set and re-fetches the
// authoritative live set from storage, never from a locally cached
// pre-restore state: peers may have edited while this client was
// viewing history.
func (c *Controller) ReturnToLive(ctx context.Context) (model.FileSet, error) {
	live, err := c.storage.GetLatestFileSet(ctx, c.sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch live file set: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = live
	c.readOnly = false
	c.snapshotID = ""

	return live.Clone(), nil
}

// Files returns the currently displayed file set.
func (c *Controller) Files() model.FileSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files.Clone()
}

// ReadOnly reports whether the view is showing a historical snapshot.
func (c *Controller) ReadOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readOnly
}

// CurrentSnapshotID returns the snapshot the view is pinned to, or ""
// when live. New comments attach to this snapshot.
func (c *Controller) CurrentSnapshotID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotID
}
