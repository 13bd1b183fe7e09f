package ws

import (
	"encoding/json"
	"fmt"
)

// Kind is the wire discriminator for session protocol messages.
type Kind string

const (
	// Client -> Server message kinds
	KindJoinSession  Kind = "join-session"
	KindEditorChange Kind = "editor-change"
	KindCursorMove   Kind = "cursor-move"
	KindLeaveSession Kind = "leave-session"

	// Server -> Client message kinds
	KindParticipantJoined Kind = "participant-joined"
	KindParticipantLeft   Kind = "participant-left"
	KindSnapshotCreated   Kind = "snapshot-created"
)

// Inbound is the closed union of client-originated messages. Payloads
// are decoded exactly once at the transport boundary; the router only
// ever sees typed values.
type Inbound interface {
	kind() Kind
}

// JoinSession asks to associate the connection with a session.
type JoinSession struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

// EditorChange carries the latest full buffer content for one file path.
type EditorChange struct {
	SessionID string `json:"sessionId"`
	FilePath  string `json:"filePath"`
	Code      string `json:"code"`
}

// CursorMove carries a participant's cursor position for one file path.
// The position is opaque to the engine and passes through untouched.
type CursorMove struct {
	SessionID string          `json:"sessionId"`
	FilePath  string          `json:"filePath"`
	Position  json.RawMessage `json:"position"`
}

// LeaveSession asks to dissociate the connection from its session.
type LeaveSession struct{}

func (JoinSession) kind() Kind  { return KindJoinSession }
func (EditorChange) kind() Kind { return KindEditorChange }
func (CursorMove) kind() Kind   { return KindCursorMove }
func (LeaveSession) kind() Kind { return KindLeaveSession }

// DecodeInbound parses one wire frame into its typed message. Unknown
// kinds and frames missing required fields are errors; the caller drops
// the frame without affecting the connection.
func DecodeInbound(data []byte) (Inbound, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch head.Type {
	case KindJoinSession:
		var m JoinSession
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s: %w", head.Type, err)
		}
		if m.SessionID == "" {
			return nil, fmt.Errorf("%s: missing sessionId", head.Type)
		}
		return m, nil

	case KindEditorChange:
		var m EditorChange
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s: %w", head.Type, err)
		}
		if m.FilePath == "" {
			return nil, fmt.Errorf("%s: missing filePath", head.Type)
		}
		return m, nil

	case KindCursorMove:
		var m CursorMove
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("malformed %s: %w", head.Type, err)
		}
		if m.FilePath == "" {
			return nil, fmt.Errorf("%s: missing filePath", head.Type)
		}
		return m, nil

	case KindLeaveSession:
		return LeaveSession{}, nil

	default:
		return nil, fmt.Errorf("unknown message type %q", head.Type)
	}
}

// ParticipantJoined notifies session peers that a participant joined.
type ParticipantJoined struct {
	Type      Kind   `json:"type"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// ParticipantLeft notifies session peers that a participant left.
type ParticipantLeft struct {
	Type      Kind   `json:"type"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// EditorChangeEvent fans an edit out to session peers.
type EditorChangeEvent struct {
	Type      Kind   `json:"type"`
	UserID    string `json:"userId"`
	FilePath  string `json:"filePath"`
	Code      string `json:"code"`
	Timestamp string `json:"timestamp"`
}

// CursorMoveEvent fans a cursor position out to session peers.
type CursorMoveEvent struct {
	Type      Kind            `json:"type"`
	UserID    string          `json:"userId"`
	FilePath  string          `json:"filePath"`
	Position  json.RawMessage `json:"position"`
	Timestamp string          `json:"timestamp"`
}

// SnapshotCreatedEvent announces a freshly captured snapshot. It is
// server-originated: no client message triggers it.
type SnapshotCreatedEvent struct {
	Type        Kind        `json:"type"`
	SnapshotID  string      `json:"snapshotId"`
	SessionID   string      `json:"sessionId"`
	Timestamp   string      `json:"timestamp"`
	Author      string      `json:"author"`
	Description string      `json:"description,omitempty"`
	Metadata    interface{} `json:"metadata"`
}
