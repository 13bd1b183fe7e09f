// Package session manages collaboration session lifecycle.
package session

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/collab-editor/backend/internal/logger"
	"github.com/collab-editor/backend/internal/model"
	"github.com/collab-editor/backend/internal/repository"
)

// Manager manages collaboration sessions: creation, the
// scheduled -> live -> finished/cancelled lifecycle, and the per-live-
// session event log.
type Manager struct {
	repo   *repository.SessionRepository
	logDir string

	mu   sync.RWMutex
	logs map[string]*logger.SessionLogger
}

// Config holds configuration for the session manager.
type Config struct {
	LogDir string
}

// NewManager creates a new session manager.
func NewManager(repo *repository.SessionRepository, config Config) *Manager {
	return &Manager{
		repo:   repo,
		logDir: config.LogDir,
		logs:   make(map[string]*logger.SessionLogger),
	}
}

// Create creates a new session in the scheduled state.
func (m *Manager) Create(ctx context.Context, req *model.CreateSessionRequest) (*model.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &model.Session{
		ID:          uuid.New().String(),
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.SessionStatusScheduled,
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	return session, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(ctx context.Context, id string) (*model.Session, error) {
	return m.repo.GetByID(ctx, id)
}

// List retrieves all sessions for an owner.
func (m *Manager) List(ctx context.Context, ownerID string) ([]*model.Session, error) {
	return m.repo.List(ctx, ownerID)
}

// Start moves a scheduled session to live and opens its event log.
func (m *Manager) Start(ctx context.Context, id string) (*model.Session, error) {
	sess, err := m.transition(ctx, id, model.SessionStatusLive)
	if err != nil {
		return nil, err
	}

	if m.logDir != "" {
		logPath := filepath.Join(m.logDir, fmt.Sprintf("%s.events", id))
		sessionLog, err := logger.NewSessionLogger(logPath)
		if err != nil {
			// The session is live either way; recording is best-effort
			log.Printf("Failed to open event log for session %s: %v", id, err)
		} else {
			if err := sessionLog.WriteHeader(id); err != nil {
				log.Printf("Failed to write event log header for session %s: %v", id, err)
			}
			m.mu.Lock()
			m.logs[id] = sessionLog
			m.mu.Unlock()
		}
	}

	return sess, nil
}

// Finish moves a live session to finished and closes its event log.
func (m *Manager) Finish(ctx context.Context, id string) (*model.Session, error) {
	sess, err := m.transition(ctx, id, model.SessionStatusFinished)
	if err != nil {
		return nil, err
	}
	m.closeLog(id)
	return sess, nil
}

// Cancel cancels a scheduled or live session and closes its event log.
func (m *Manager) Cancel(ctx context.Context, id string) (*model.Session, error) {
	sess, err := m.transition(ctx, id, model.SessionStatusCancelled)
	if err != nil {
		return nil, err
	}
	m.closeLog(id)
	return sess, nil
}

// transition validates and applies a status change.
func (m *Manager) transition(ctx context.Context, id string, to model.SessionStatus) (*model.Session, error) {
	sess, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !model.CanTransition(sess.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, sess.Status, to)
	}

	if err := m.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}

	now := time.Now()
	sess.Status = to
	sess.UpdatedAt = now
	switch to {
	case model.SessionStatusLive:
		sess.StartedAt = &now
	case model.SessionStatusFinished, model.SessionStatusCancelled:
		sess.EndedAt = &now
	}

	return sess, nil
}

// Delete removes a session and everything cascading from it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.closeLog(id)
	return m.repo.Delete(ctx, id)
}

// Record writes one fanned-out session event to the session's event
// log, if one is open. Suitable as a ws.EventSink.
func (m *Manager) Record(sessionID string, kind string, data []byte) {
	m.mu.RLock()
	sessionLog := m.logs[sessionID]
	m.mu.RUnlock()

	if sessionLog == nil {
		return
	}

	if err := sessionLog.WriteEvent(kind, data); err != nil {
		log.Printf("Failed to record %s event for session %s: %v", kind, sessionID, err)
	}
}

func (m *Manager) closeLog(id string) {
	m.mu.Lock()
	sessionLog := m.logs[id]
	delete(m.logs, id)
	m.mu.Unlock()

	if sessionLog != nil {
		if err := sessionLog.Close(); err != nil {
			log.Printf("Failed to close event log for session %s: %v", id, err)
		}
	}
}

// Close closes all open event logs.
func (m *Manager) Close() {
	m.mu.Lock()
	logs := m.logs
	m.logs = make(map[string]*logger.SessionLogger)
	m.mu.Unlock()

	for id, sessionLog := range logs {
		if err := sessionLog.Close(); err != nil {
			log.Printf("Failed to close event log for session %s: %v", id, err)
		}
	}
}
