package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// AnonymousUser is the placeholder identity for connections that join
// without a user ID.
const AnonymousUser = "anonymous"

// Client represents a WebSocket client connection. A client belongs to
// at most one session at a time; its lifetime is exactly the duration of
// the underlying transport's open state.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	mu        sync.Mutex
	closed    bool
	sessionID string
	userID    string
}

// NewClient creates a new WebSocket client.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Send queues a message to be sent to the client. It never blocks: if
// the client's buffer is full the client is closed so one slow peer
// cannot stall broadcast delivery to the others.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, close the client
		c.closeLocked()
	}
}

// Close closes the client connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AttachSession associates the client with a session and user identity,
// returning the previously associated session ID ("" when unjoined). An
// empty user ID falls back to the anonymous placeholder.
func (c *Client) AttachSession(sessionID, userID string) (prev string) {
	if userID == "" {
		userID = AnonymousUser
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	prev = c.sessionID
	c.sessionID = sessionID
	c.userID = userID
	return prev
}

// DetachSession atomically clears the session association and reports
// what it was. The swap guarantees that a leave-session racing a
// transport close releases registry membership exactly once.
func (c *Client) DetachSession() (sessionID, userID string, joined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID == "" {
		return "", "", false
	}
	sessionID = c.sessionID
	userID = c.userID
	c.sessionID = ""
	return sessionID, userID, true
}

// Session returns the currently joined session ID, if any.
func (c *Client) Session() (sessionID string, joined bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.sessionID != ""
}

// UserID returns the client's user identity, or the anonymous
// placeholder if the client never joined.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" {
		return AnonymousUser
	}
	return c.userID
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}
