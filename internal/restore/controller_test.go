package restore

import (
	"context"
	"errors"
	"testing"

	"github.com/collab-editor/backend/internal/model"
)

// fakeStorage serves canned snapshots and a mutable live file set.
type fakeStorage struct {
	live      model.FileSet
	snapshots map[string]*model.Snapshot
	liveErr   error
}

func (f *fakeStorage) GetLatestFileSet(ctx context.Context, sessionID string) (model.FileSet, error) {
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.live.Clone(), nil
}

func (f *fakeStorage) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, model.ErrSnapshotNotFound
	}
	return snap, nil
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		live: model.FileSet{"main.ts": "live content"},
		snapshots: map[string]*model.Snapshot{
			"snap-1": {
				ID:        "snap-1",
				SessionID: "s1",
				Diff: model.Diff{
					Files:    model.FileSet{"main.ts": "old content", "util.ts": "helpers"},
					Metadata: model.DiffMetadata{LinesChanged: 2, FilesModified: []string{"main.ts", "util.ts"}},
				},
			},
			"snap-empty": {
				ID:        "snap-empty",
				SessionID: "s1",
				Diff: model.Diff{
					Files:    model.FileSet{},
					Metadata: model.DiffMetadata{FilesModified: []string{}},
				},
			},
		},
	}
}

func TestRestoreSwitchesToReadOnlyHistoricalView(t *testing.T) {
	storage := newFakeStorage()
	c := NewController(storage, "s1")
	ctx := context.Background()

	files, err := c.Restore(ctx, "snap-1")
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if files["main.ts"] != "old content" || files["util.ts"] != "helpers" {
		t.Errorf("restored view has wrong contents: %v", files)
	}
	if !c.ReadOnly() {
		t.Error("historical view must be read-only")
	}
	if c.CurrentSnapshotID() != "snap-1" {
		t.Errorf("expected current snapshot snap-1, got %q", c.CurrentSnapshotID())
	}
}

func TestRestoreUnknownSnapshotLeavesViewUnchanged(t *testing.T) {
	storage := newFakeStorage()
	c := NewController(storage, "s1")
	ctx := context.Background()

	if _, err := c.Restore(ctx, "snap-1"); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	_, err := c.Restore(ctx, "no-such-snapshot")
	if !errors.Is(err, model.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}

	if c.CurrentSnapshotID() != "snap-1" {
		t.Error("failed restore must not change the current view")
	}
	if !c.ReadOnly() {
		t.Error("failed restore must not change the view mode")
	}
}

func TestRestoreEmptySnapshotFails(t *testing.T) {
	storage := newFakeStorage()
	c := NewController(storage, "s1")

	_, err := c.Restore(context.Background(), "snap-empty")
	if !errors.Is(err, model.ErrNoFilesInSnapshot) {
		t.Fatalf("expected ErrNoFilesInSnapshot, got %v", err)
	}
	if c.ReadOnly() {
		t.Error("failed restore must leave the view live")
	}
	if c.CurrentSnapshotID() != "" {
		t.Error("failed restore must not pin a snapshot")
	}
}

func TestReturnToLiveRefetchesAuthoritativeState(t *testing.T) {
	storage := newFakeStorage()
	c := NewController(storage, "s1")
	ctx := context.Background()

	if _, err := c.Restore(ctx, "snap-1"); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	// Peers keep editing while this client views history
	storage.live["main.ts"] = "edited while away"

	files, err := c.ReturnToLive(ctx)
	if err != nil {
		t.Fatalf("return to live failed: %v", err)
	}

	if files["main.ts"] != "edited while away" {
		t.Errorf("live view must reflect concurrent edits, got %q", files["main.ts"])
	}
	if _, ok := files["util.ts"]; ok {
		t.Error("live view must not retain historical files")
	}
	if c.ReadOnly() {
		t.Error("live view must be editable")
	}
	if c.CurrentSnapshotID() != "" {
		t.Error("live view must not be pinned to a snapshot")
	}
}

func TestReturnToLiveFetchFailureKeepsHistoricalView(t *testing.T) {
	storage := newFakeStorage()
	c := NewController(storage, "s1")
	ctx := context.Background()

	if _, err := c.Restore(ctx, "snap-1"); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	storage.liveErr = errors.New("db unavailable")
	if _, err := c.ReturnToLive(ctx); err == nil {
		t.Fatal("expected fetch error")
	}

	if !c.ReadOnly() || c.CurrentSnapshotID() != "snap-1" {
		t.Error("failed return must keep the historical view intact")
	}
}

func TestFilesReturnsIndependentCopy(t *testing.T) {
	storage := newFakeStorage()
	c := NewController(storage, "s1")

	if _, err := c.Restore(context.Background(), "snap-1"); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	view := c.Files()
	view["main.ts"] = "mutated by caller"

	if c.Files()["main.ts"] != "old content" {
		t.Error("caller mutation must not leak into the controller's view")
	}
}
