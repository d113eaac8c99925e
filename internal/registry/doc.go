// Package registry owns the live connection table and room memberships.
//
// # Overview
//
// The Registry maps each user to the set of connections their devices
// currently hold. Presence is derived, never stored: a user is online
// exactly while their connection count is greater than zero. Every
// transition fires the registered PresenceListener.
//
// # Connections
//
// A Connection is ephemeral. It is created on a successful handshake,
// registered with Add, and destroyed exactly once by Remove (or Close at
// shutdown). Sends are non-blocking; a slow consumer drops payloads rather
// than stalling a broadcast.
//
// # Rooms
//
// Rooms scope broadcasts. Every connection is auto-joined to its owner's
// private room (user:<id>) for its whole lifetime; project and channel
// rooms are joined on demand. Empty rooms are pruned eagerly, so the room
// table stays bounded under churn.
//
// # Concurrency
//
// The registry and room table are the only mutable shared state in the
// realtime core. Each is guarded by its own RWMutex; reads return
// snapshots that may be stale immediately, which is acceptable because
// delivery is best-effort.
package registry
