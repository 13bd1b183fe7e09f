package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// EventSink receives a copy of every fanned-out session event, e.g. for
// the session event log.
type EventSink func(sessionID string, kind Kind, data []byte)

// Router is the session protocol state machine. Each connection moves
// unjoined -> joined -> unjoined; the router interprets inbound message
// kinds and issues registry-scoped broadcasts.
//
// The router performs no authoritative merge of concurrent edits:
// editor-change is pure fan-out of the latest full buffer per file path,
// and the last message delivered per path wins at each receiver.
type Router struct {
	registry *Registry

	mu   sync.RWMutex
	sink EventSink
}

// NewRouter creates a new Router over the given registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Registry returns the router's connection registry.
func (rt *Router) Registry() *Registry {
	return rt.registry
}

// SetEventSink sets the callback receiving fanned-out events.
func (rt *Router) SetEventSink(sink EventSink) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.sink = sink
}

func (rt *Router) record(sessionID string, kind Kind, data []byte) {
	rt.mu.RLock()
	sink := rt.sink
	rt.mu.RUnlock()

	if sink != nil {
		sink(sessionID, kind, data)
	}
}

// HandleMessage processes one raw inbound frame from a client. A
// malformed frame is logged and dropped; it terminates neither the
// connection nor the session group.
func (rt *Router) HandleMessage(c *Client, data []byte) {
	msg, err := DecodeInbound(data)
	if err != nil {
		log.Printf("Dropping inbound message: %v", err)
		return
	}

	switch m := msg.(type) {
	case JoinSession:
		rt.handleJoin(c, m)
	case EditorChange:
		rt.handleEditorChange(c, m)
	case CursorMove:
		rt.handleCursorMove(c, m)
	case LeaveSession:
		rt.handleLeave(c)
	}
}

// HandleClose performs leave-session semantics when the transport
// closes. Safe to call even if the client already left explicitly.
func (rt *Router) HandleClose(c *Client) {
	rt.handleLeave(c)
}

// handleJoin associates the connection with a session. A join while
// already joined elsewhere moves the membership silently: the previous
// session gets no participant-left, only the natural absence of further
// frames from this connection.
func (rt *Router) handleJoin(c *Client, m JoinSession) {
	prev := c.AttachSession(m.SessionID, m.UserID)
	if prev != "" && prev != m.SessionID {
		rt.registry.Leave(prev, c)
	}

	rt.registry.Join(m.SessionID, c)

	out := ParticipantJoined{
		Type:      KindParticipantJoined,
		UserID:    c.UserID(),
		Timestamp: wireTimestamp(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("Failed to marshal participant-joined: %v", err)
		return
	}

	rt.registry.Broadcast(m.SessionID, data, c)
	rt.record(m.SessionID, KindParticipantJoined, data)
}

// handleEditorChange fans the latest buffer content for one file path
// out to the sender's session peers. An editor-change from an unjoined
// connection is silently ignored; the transport has no back-channel for
// control errors.
func (rt *Router) handleEditorChange(c *Client, m EditorChange) {
	sessionID, joined := c.Session()
	if !joined {
		return
	}

	out := EditorChangeEvent{
		Type:      KindEditorChange,
		UserID:    c.UserID(),
		FilePath:  m.FilePath,
		Code:      m.Code,
		Timestamp: wireTimestamp(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("Failed to marshal editor-change: %v", err)
		return
	}

	// Recorded so late joiners replay recent edits and converge
	rt.registry.BroadcastRecorded(sessionID, data, c)
	rt.record(sessionID, KindEditorChange, data)
}

// handleCursorMove fans a cursor position out to the sender's session
// peers. Ignored while unjoined. Cursor frames are ephemeral and are not
// added to the replay history.
func (rt *Router) handleCursorMove(c *Client, m CursorMove) {
	sessionID, joined := c.Session()
	if !joined {
		return
	}

	out := CursorMoveEvent{
		Type:      KindCursorMove,
		UserID:    c.UserID(),
		FilePath:  m.FilePath,
		Position:  m.Position,
		Timestamp: wireTimestamp(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("Failed to marshal cursor-move: %v", err)
		return
	}

	rt.registry.Broadcast(sessionID, data, c)
	rt.record(sessionID, KindCursorMove, data)
}

// handleLeave releases the connection's membership exactly once, even
// when an explicit leave-session races the transport close: the first
// caller wins the DetachSession swap and the second finds the
// connection already unjoined.
func (rt *Router) handleLeave(c *Client) {
	sessionID, userID, joined := c.DetachSession()
	if !joined {
		return
	}

	rt.registry.Leave(sessionID, c)

	out := ParticipantLeft{
		Type:      KindParticipantLeft,
		UserID:    userID,
		Timestamp: wireTimestamp(),
	}
	data, err := json.Marshal(out)
	if err != nil {
		log.Printf("Failed to marshal participant-left: %v", err)
		return
	}

	rt.registry.Broadcast(sessionID, data, c)
	rt.record(sessionID, KindParticipantLeft, data)
}

// wireTimestamp formats the current time for wire messages.
func wireTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
