package session

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/collab-editor/backend/internal/db"
	"github.com/collab-editor/backend/internal/logger"
	"github.com/collab-editor/backend/internal/model"
	"github.com/collab-editor/backend/internal/repository"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	logDir := t.TempDir()
	m := NewManager(repository.NewSessionRepository(testDB), Config{LogDir: logDir})
	t.Cleanup(m.Close)
	return m, logDir
}

func mustCreate(t *testing.T, m *Manager) *model.Session {
	t.Helper()
	sess, err := m.Create(context.Background(), &model.CreateSessionRequest{
		OwnerID: "owner-1",
		Title:   "Pairing session",
	})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return sess
}

func TestCreateStartsScheduled(t *testing.T) {
	m, _ := newTestManager(t)

	sess := mustCreate(t, m)
	if sess.Status != model.SessionStatusScheduled {
		t.Errorf("new sessions start scheduled, got %s", sess.Status)
	}
	if sess.ID == "" {
		t.Error("session must get an ID")
	}

	got, err := m.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("failed to fetch session: %v", err)
	}
	if got.Title != "Pairing session" || got.OwnerID != "owner-1" {
		t.Errorf("persisted session mismatch: %+v", got)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Create(context.Background(), &model.CreateSessionRequest{OwnerID: "owner-1"})
	if !errors.Is(err, model.ErrTitleRequired) {
		t.Errorf("expected ErrTitleRequired, got %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess := mustCreate(t, m)

	live, err := m.Start(ctx, sess.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if live.Status != model.SessionStatusLive || live.StartedAt == nil {
		t.Errorf("start should mark live with a start time: %+v", live)
	}

	// A live session cannot start again
	if _, err := m.Start(ctx, sess.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	done, err := m.Finish(ctx, sess.ID)
	if err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if done.Status != model.SessionStatusFinished || done.EndedAt == nil {
		t.Errorf("finish should mark finished with an end time: %+v", done)
	}

	// Finished is terminal
	if _, err := m.Cancel(ctx, sess.ID); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition from finished, got %v", err)
	}
}

func TestCancelScheduledSession(t *testing.T) {
	m, _ := newTestManager(t)

	sess := mustCreate(t, m)
	cancelled, err := m.Cancel(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != model.SessionStatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
}

func TestStartOpensEventLogAndRecordAppends(t *testing.T) {
	m, logDir := newTestManager(t)
	ctx := context.Background()

	sess := mustCreate(t, m)
	if _, err := m.Start(ctx, sess.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	m.Record(sess.ID, "editor-change", []byte(`{"filePath":"a.ts"}`))
	m.Record(sess.ID, "participant-left", []byte(`{"userId":"u1"}`))
	// Unknown sessions are silently skipped
	m.Record("no-such-session", "editor-change", []byte("x"))

	if _, err := m.Finish(ctx, sess.ID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("%s.events", sess.ID))
	f, err := os.Open(logPath)
	if err != nil {
		t.Fatalf("event log not written: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("event log missing header line")
	}
	var header logger.Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("failed to parse header: %v", err)
	}
	if header.Version != 1 || header.SessionID != sess.ID {
		t.Errorf("unexpected header: %+v", header)
	}

	var events []logger.Event
	for scanner.Scan() {
		var ev logger.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("failed to parse event line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != "editor-change" || events[1].Kind != "participant-left" {
		t.Errorf("events out of order: %+v", events)
	}
	if events[0].Data != `{"filePath":"a.ts"}` {
		t.Errorf("event data mangled: %q", events[0].Data)
	}
}

func TestRecordAfterFinishIsNoOp(t *testing.T) {
	m, logDir := newTestManager(t)
	ctx := context.Background()

	sess := mustCreate(t, m)
	if _, err := m.Start(ctx, sess.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := m.Finish(ctx, sess.ID); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	m.Record(sess.ID, "editor-change", []byte("late"))

	data, err := os.ReadFile(filepath.Join(logDir, fmt.Sprintf("%s.events", sess.ID)))
	if err != nil {
		t.Fatalf("event log not written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log should at least contain the header")
	}
	// Only the header line remains
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 1 {
		t.Errorf("expected header only after finish, got %d lines", lines)
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	sess := mustCreate(t, m)
	if err := m.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := m.Get(ctx, sess.ID); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
