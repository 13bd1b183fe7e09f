package model

import "time"

// SessionStatus represents the lifecycle status of a collaboration session.
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusLive      SessionStatus = "live"
	SessionStatusFinished  SessionStatus = "finished"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// validTransitions maps each status to the statuses it may move to.
// Finished and cancelled are terminal.
var validTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusScheduled: {SessionStatusLive, SessionStatusCancelled},
	SessionStatusLive:      {SessionStatusFinished, SessionStatusCancelled},
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to SessionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session represents a collaboration session grouping participants,
// files and snapshots.
type Session struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"ownerId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      SessionStatus `json:"status"`
	ScheduledAt *time.Time    `json:"scheduledAt,omitempty"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	EndedAt     *time.Time    `json:"endedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// CreateSessionRequest represents a request to create a new session.
type CreateSessionRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	OwnerID     string     `json:"-"`
}

// Validate validates the create session request.
func (r *CreateSessionRequest) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	return nil
}
