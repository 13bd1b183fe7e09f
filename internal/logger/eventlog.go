// Package logger records session events in a JSON-Lines format so a
// finished session can be replayed or inspected after the fact.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Header is the first line of an event log.
type Header struct {
	Version   int    `json:"version"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
}

// Event represents a single recorded session event.
// Format: [time_offset, kind, data]
type Event struct {
	TimeOffset float64
	Kind       string // wire message kind, e.g. "editor-change"
	Data       string
}

// MarshalJSON implements custom JSON marshaling for Event.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.TimeOffset, e.Kind, e.Data})
}

// UnmarshalJSON implements custom JSON unmarshaling for Event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var arr []interface{}
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("invalid event format: expected 3 elements, got %d", len(arr))
	}

	timeOffset, ok := arr[0].(float64)
	if !ok {
		return fmt.Errorf("invalid time offset type")
	}
	e.TimeOffset = timeOffset

	kind, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid event kind")
	}
	e.Kind = kind

	eventData, ok := arr[2].(string)
	if !ok {
		return fmt.Errorf("invalid event data type")
	}
	e.Data = eventData

	return nil
}

// SessionLogger records session events in JSON-Lines format.
type SessionLogger struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// NewSessionLogger creates a new SessionLogger that writes to the given file path.
func NewSessionLogger(filePath string) (*SessionLogger, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	return &SessionLogger{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}, nil
}

// NewSessionLoggerWithWriter creates a new SessionLogger that writes to
// the given writer. This is useful for testing.
func NewSessionLoggerWithWriter(w io.Writer) *SessionLogger {
	return &SessionLogger{
		writer:    w,
		startTime: time.Now(),
	}
}

// WriteHeader writes the log header. This should be called once at the
// beginning of the recording.
func (l *SessionLogger) WriteHeader(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := Header{
		Version:   1,
		SessionID: sessionID,
		Timestamp: l.startTime.Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// WriteEvent writes one session event to the log.
func (l *SessionLogger) WriteEvent(kind string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := Event{
		TimeOffset: time.Since(l.startTime).Seconds(),
		Kind:       kind,
		Data:       string(data),
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := l.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Close closes the underlying file if the logger owns one.
func (l *SessionLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}
