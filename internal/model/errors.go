package model

import "errors"

var (
	// ErrTitleRequired is returned when a session creation request is missing the title.
	ErrTitleRequired = errors.New("title is required")

	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSnapshotNotFound is returned when a snapshot is not found.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCommentNotFound is returned when a comment is not found.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNoFilesInSnapshot is returned when a snapshot normalizes to an
	// empty file set and therefore cannot be restored.
	ErrNoFilesInSnapshot = errors.New("no files in snapshot")

	// ErrInvalidTransition is returned when a session status change is not allowed.
	ErrInvalidTransition = errors.New("invalid session status transition")
)
