package model

import (
	"encoding/json"
	"time"
)

// FileSet maps a file path to its full content. It is the editable state
// of a session's project at a point in time.
type FileSet map[string]string

// fileEntry is the legacy on-disk shape for a single file.
type fileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// UnmarshalJSON accepts both the current path->content mapping and the
// legacy sequence of {path, content} pairs. Stored snapshots are never
// migrated; both shapes normalize to the same mapping on read.
func (fs *FileSet) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil {
		*fs = FileSet(m)
		return nil
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	m = make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Path] = e.Content
	}
	*fs = FileSet(m)
	return nil
}

// Clone returns a copy of the file set.
func (fs FileSet) Clone() FileSet {
	if fs == nil {
		return nil
	}
	out := make(FileSet, len(fs))
	for path, content := range fs {
		out[path] = content
	}
	return out
}

// DiffMetadata holds change metadata for a snapshot diff.
//
// LinesChanged is a size-delta magnitude, not a true added/removed line
// diff: it does not distinguish an edited line from a wholly different
// line at the same position. Existing stored snapshots were computed
// this way, so the semantics must not change.
type DiffMetadata struct {
	LinesChanged  int      `json:"linesChanged"`
	FilesModified []string `json:"filesModified"`
}

// Diff is the normalized record of a captured file set plus change metadata.
type Diff struct {
	Files    FileSet      `json:"files"`
	Metadata DiffMetadata `json:"metadata"`
}

// Snapshot is an immutable capture of a session's file set. Snapshots
// form a loosely linked history per session ordered by creation time;
// BaseSnapshotID may reference a predecessor but diffs are always
// computed against the most recent prior snapshot in creation order.
type Snapshot struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	AuthorID       string    `json:"authorId"`
	Description    string    `json:"description,omitempty"`
	BaseSnapshotID *string   `json:"baseSnapshotId,omitempty"`
	Diff           Diff      `json:"diff"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Comment is a remark attached to a snapshot.
type Comment struct {
	ID         string    `json:"id"`
	SnapshotID string    `json:"snapshotId"`
	AuthorID   string    `json:"authorId"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CreateCommentRequest represents a request to attach a comment to a snapshot.
type CreateCommentRequest struct {
	Body     string `json:"body" binding:"required"`
	AuthorID string `json:"-"`
}
