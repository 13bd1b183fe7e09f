// Package ws provides WebSocket connection handling and message routing
// for collaborative editing sessions.
//
// The package implements:
//   - Client: One live WebSocket peer with its session association
//   - Registry: Maps a session ID to the set of connections joined to it
//   - Router: Interprets inbound message kinds and fans out broadcasts
//   - Handler: Upgrades HTTP connections and runs the read/write pumps
//   - Service: Integrates the pieces and carries server-originated events
//
// Key properties:
//   - A session ID appears in the Registry iff its group is non-empty
//   - Broadcasts within one session are serialized by the Registry lock,
//     so all peers observe edits from different authors in the same order
//   - Edit fan-out is last-writer-wins: no server-side merge is performed
//   - A send that would block closes the slow client instead of stalling
//     delivery to the rest of the group
//   - Late joiners receive recent edit frames replayed from a bounded
//     per-session history before any new broadcasts
package ws
