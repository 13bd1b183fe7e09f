// Package buffer provides a bounded history of broadcast frames for
// late-joiner catch-up.
package buffer

import (
	"sync"
)

// History is a thread-safe bounded ring of message frames. It keeps the
// most recent frames up to a total byte capacity; when the capacity is
// exceeded, oldest frames are discarded whole so a replayed frame is
// never truncated mid-message.
//
// This is used to cache recent editor-change broadcasts so a client
// joining an in-progress session converges to the last-writer-wins
// state without waiting for the next edit.
type History struct {
	frames   [][]byte
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewHistory creates a new History with the specified byte capacity.
// The capacity must be greater than 0; if not, it defaults to 1.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
	}
}

// Append adds a frame to the history, evicting oldest frames until the
// total size fits the capacity. A frame larger than the whole capacity
// is dropped rather than stored truncated.
func (h *History) Append(frame []byte) {
	if len(frame) == 0 || len(frame) > h.capacity {
		return
	}

	// Copy so callers may reuse their buffer
	stored := make([]byte, len(frame))
	copy(stored, frame)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.frames = append(h.frames, stored)
	h.size += len(stored)

	for h.size > h.capacity {
		h.size -= len(h.frames[0])
		h.frames = h.frames[1:]
	}
}

// Frames returns a copy of all frames currently in the history, oldest
// first. The returned slice is safe to use without holding the lock.
func (h *History) Frames() [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.frames) == 0 {
		return nil
	}

	result := make([][]byte, len(h.frames))
	copy(result, h.frames)
	return result
}

// Clear removes all frames from the history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.frames = nil
	h.size = 0
}

// Len returns the current number of frames in the history.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.frames)
}

// Size returns the current total byte size of the history.
func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.size
}

// Cap returns the byte capacity of the history.
func (h *History) Cap() int {
	return h.capacity
}
