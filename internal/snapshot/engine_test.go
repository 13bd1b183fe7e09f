package snapshot

import (
	"context"
	"testing"

	"github.com/collab-editor/backend/internal/model"
)

// TestFirstCaptureCountsAllLines verifies that with no previous file set,
// linesChanged is the total line count of the new set.
func TestFirstCaptureCountsAllLines(t *testing.T) {
	diff := ComputeDiff(nil, model.FileSet{"a.ts": "line1\nline2"})

	if diff.Metadata.LinesChanged != 2 {
		t.Errorf("expected linesChanged=2, got %d", diff.Metadata.LinesChanged)
	}
	if len(diff.Metadata.FilesModified) != 1 || diff.Metadata.FilesModified[0] != "a.ts" {
		t.Errorf("expected filesModified=[a.ts], got %v", diff.Metadata.FilesModified)
	}
	if diff.Files["a.ts"] != "line1\nline2" {
		t.Errorf("diff files should carry the new file set")
	}
}

// TestGrownFileCountsDelta verifies the size-delta magnitude for a file
// present in both sets.
func TestGrownFileCountsDelta(t *testing.T) {
	prev := model.FileSet{"a.ts": "x\ny"}
	next := model.FileSet{"a.ts": "x\ny\nz"}

	diff := ComputeDiff(prev, next)

	if diff.Metadata.LinesChanged != 1 {
		t.Errorf("expected linesChanged=1, got %d", diff.Metadata.LinesChanged)
	}
}

// TestShrunkFileCountsDelta verifies the magnitude is symmetric.
func TestShrunkFileCountsDelta(t *testing.T) {
	prev := model.FileSet{"a.ts": "x\ny\nz"}
	next := model.FileSet{"a.ts": "x"}

	diff := ComputeDiff(prev, next)

	if diff.Metadata.LinesChanged != 2 {
		t.Errorf("expected linesChanged=2, got %d", diff.Metadata.LinesChanged)
	}
}

// TestRemovedFileCountsFullPreviousLines verifies that a removed file
// contributes its full previous line count but not a filesModified entry.
func TestRemovedFileCountsFullPreviousLines(t *testing.T) {
	prev := model.FileSet{"a.ts": "x\ny"}
	next := model.FileSet{}

	diff := ComputeDiff(prev, next)

	if diff.Metadata.LinesChanged != 2 {
		t.Errorf("expected linesChanged=2, got %d", diff.Metadata.LinesChanged)
	}
	if len(diff.Metadata.FilesModified) != 0 {
		t.Errorf("filesModified should list only new-set paths, got %v", diff.Metadata.FilesModified)
	}
}

// TestAddedAndRemovedAccumulate verifies mixed adds, edits and removals.
func TestAddedAndRemovedAccumulate(t *testing.T) {
	prev := model.FileSet{
		"a.ts": "1\n2",     // 2 lines, edited to 3 -> +1
		"b.ts": "1\n2\n3",  // removed -> +3
	}
	next := model.FileSet{
		"a.ts": "1\n2\n3",    // +1
		"c.ts": "1\n2\n3\n4", // added -> +4
	}

	diff := ComputeDiff(prev, next)

	if diff.Metadata.LinesChanged != 8 {
		t.Errorf("expected linesChanged=8, got %d", diff.Metadata.LinesChanged)
	}
	if len(diff.Metadata.FilesModified) != 2 {
		t.Errorf("expected 2 modified files, got %v", diff.Metadata.FilesModified)
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		content string
		want    int
	}{
		{"", 1},
		{"x", 1},
		{"x\ny", 2},
		{"x\ny\n", 3},
	}
	for _, tc := range cases {
		if got := CountLines(tc.content); got != tc.want {
			t.Errorf("CountLines(%q) = %d, want %d", tc.content, got, tc.want)
		}
	}
}

// TestMaterializeEmptySnapshotFails verifies that an empty normalized
// file set is a reportable error, not a silently-empty success.
func TestMaterializeEmptySnapshotFails(t *testing.T) {
	snap := &model.Snapshot{ID: "s", Diff: model.Diff{Files: model.FileSet{}}}

	_, err := Materialize(snap)
	if err == nil {
		t.Fatal("expected error for snapshot with no files")
	}
	if err != model.ErrNoFilesInSnapshot {
		t.Errorf("expected ErrNoFilesInSnapshot, got %v", err)
	}
}

func TestMaterializeReturnsCopy(t *testing.T) {
	snap := &model.Snapshot{Diff: model.Diff{Files: model.FileSet{"a.ts": "x"}}}

	files, err := Materialize(snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	files["a.ts"] = "mutated"
	if snap.Diff.Files["a.ts"] != "x" {
		t.Error("materialized file set should be a copy")
	}
}

// fakeStore is an in-memory snapshot store for capture tests.
type fakeStore struct {
	snapshots []*model.Snapshot
}

func (s *fakeStore) Create(_ context.Context, snap *model.Snapshot) error {
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *fakeStore) GetLatestBySession(_ context.Context, sessionID string) (*model.Snapshot, error) {
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].SessionID == sessionID {
			return s.snapshots[i], nil
		}
	}
	return nil, model.ErrSnapshotNotFound
}

// TestCaptureDiffsAgainstLatestInCreationOrder verifies successive
// captures diff against the most recent prior snapshot.
func TestCaptureDiffsAgainstLatestInCreationOrder(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.Capture(ctx, "s1", "u1", "initial", model.FileSet{"a.ts": "x\ny"})
	if err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	if first.Diff.Metadata.LinesChanged != 2 {
		t.Errorf("first capture: expected linesChanged=2, got %d", first.Diff.Metadata.LinesChanged)
	}
	if first.BaseSnapshotID != nil {
		t.Error("first capture should have no base snapshot")
	}

	second, err := svc.Capture(ctx, "s1", "u2", "grew", model.FileSet{"a.ts": "x\ny\nz"})
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}
	if second.Diff.Metadata.LinesChanged != 1 {
		t.Errorf("second capture: expected linesChanged=1, got %d", second.Diff.Metadata.LinesChanged)
	}
	if second.BaseSnapshotID == nil || *second.BaseSnapshotID != first.ID {
		t.Error("second capture should reference the first as its base")
	}
}
