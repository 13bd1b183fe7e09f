package ws

import (
	"encoding/json"
	"time"

	"github.com/collab-editor/backend/internal/model"
)

// Service wires the registry, router and transport handler together and
// carries server-originated broadcasts into session groups.
type Service struct {
	registry *Registry
	router   *Router
	handler  *Handler
}

// NewService creates a new WebSocket service.
func NewService() *Service {
	registry := NewRegistry()
	router := NewRouter(registry)
	handler := NewHandler(router)

	return &Service{
		registry: registry,
		router:   router,
		handler:  handler,
	}
}

// Handler returns the WebSocket transport handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// Router returns the message router.
func (s *Service) Router() *Router {
	return s.router
}

// Registry returns the connection registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// SetEventSink sets the callback receiving fanned-out session events.
func (s *Service) SetEventSink(sink EventSink) {
	s.router.SetEventSink(sink)
}

// NotifySnapshotCreated broadcasts a snapshot-created event to the
// snapshot's session peers. Triggered by an explicit capture, not by a
// client message; sessions with no present observers are a silent no-op.
func (s *Service) NotifySnapshotCreated(snap *model.Snapshot) error {
	out := SnapshotCreatedEvent{
		Type:        KindSnapshotCreated,
		SnapshotID:  snap.ID,
		SessionID:   snap.SessionID,
		Timestamp:   snap.CreatedAt.UTC().Format(time.RFC3339),
		Author:      snap.AuthorID,
		Description: snap.Description,
		Metadata:    snap.Diff.Metadata,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return err
	}

	s.registry.Broadcast(snap.SessionID, data, nil)
	s.router.record(snap.SessionID, KindSnapshotCreated, data)
	return nil
}

// Close closes every live connection.
func (s *Service) Close() {
	s.registry.Close()
}
