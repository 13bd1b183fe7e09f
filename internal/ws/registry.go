package ws

import (
	"sync"

	"github.com/collab-editor/backend/internal/buffer"
)

// defaultHistoryCap bounds the per-session replay history in bytes.
const defaultHistoryCap = 256 * 1024

// group is the set of clients currently joined to one session, plus the
// bounded history of recent edit frames replayed to late joiners.
type group struct {
	members map[*Client]struct{}
	history *buffer.History
}

// Registry tracks, per session ID, the set of connections currently
// subscribed. It is independent of message semantics.
//
// All operations share one mutex; holding it across broadcast enqueueing
// is the per-session serialization point that keeps edits from different
// authors in one order for every observer. Enqueueing never blocks
// (Client.Send drops slow peers), so the lock is held only briefly.
type Registry struct {
	mu         sync.Mutex
	groups     map[string]*group
	historyCap int
}

// NewRegistry creates a new Registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:     make(map[string]*group),
		historyCap: defaultHistoryCap,
	}
}

// Join adds a client to the group for the session, creating the group if
// absent. Joining twice is a no-op: membership is a set. Recent edit
// frames are replayed to the joining client under the registry lock, so
// the replay is ordered before any subsequent broadcast.
func (r *Registry) Join(sessionID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[sessionID]
	if !ok {
		g = &group{
			members: make(map[*Client]struct{}),
			history: buffer.NewHistory(r.historyCap),
		}
		r.groups[sessionID] = g
	}

	if _, member := g.members[c]; member {
		return
	}
	g.members[c] = struct{}{}

	for _, frame := range g.history.Frames() {
		c.Send(frame)
	}
}

// Leave removes a client from the session's group. When the last member
// leaves, the group entry itself is removed so session IDs with no
// active members are never iterated.
func (r *Registry) Leave(sessionID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[sessionID]
	if !ok {
		return
	}

	delete(g.members, c)
	if len(g.members) == 0 {
		delete(r.groups, sessionID)
	}
}

// Broadcast delivers data to every member of the session's group except
// exclude. Broadcasting to a session with no group is a silent no-op.
func (r *Registry) Broadcast(sessionID string, data []byte, exclude *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(sessionID, data, exclude)
}

// BroadcastRecorded behaves like Broadcast and additionally appends the
// frame to the session's replay history for late joiners.
func (r *Registry) BroadcastRecorded(sessionID string, data []byte, exclude *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.groups[sessionID]; ok {
		g.history.Append(data)
	}
	r.broadcastLocked(sessionID, data, exclude)
}

func (r *Registry) broadcastLocked(sessionID string, data []byte, exclude *Client) {
	g, ok := r.groups[sessionID]
	if !ok {
		return
	}

	for member := range g.members {
		if member == exclude {
			continue
		}
		member.Send(data)
	}
}

// Contains reports whether the client is a member of the session's group.
func (r *Registry) Contains(sessionID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[sessionID]
	if !ok {
		return false
	}
	_, member := g.members[c]
	return member
}

// Members returns the number of clients joined to the session.
func (r *Registry) Members(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[sessionID]
	if !ok {
		return 0
	}
	return len(g.members)
}

// Sessions returns the IDs of all sessions with at least one member.
// By construction every returned session has a non-empty group.
func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.groups))
	for id := range r.groups {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every client in every group and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	var clients []*Client
	for _, g := range r.groups {
		for member := range g.members {
			clients = append(clients, member)
		}
	}
	r.groups = make(map[string]*group)
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
