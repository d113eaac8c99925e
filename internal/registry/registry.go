// ABOUTME: Tracks which users currently hold live connections, with multi-device support
// ABOUTME: Owns the connection table and room memberships; derives presence from connection count

package registry

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrTooManyConnections indicates the per-user connection cap was reached.
var ErrTooManyConnections = errors.New("too many connections for user")

// PresenceListener receives derived online/offline transitions. Invoked
// outside the registry lock; implementations must not call back into Add
// or Remove.
type PresenceListener interface {
	PresenceChanged(userID string, online bool)
}

// Stats summarizes the registry for introspection endpoints.
type Stats struct {
	TotalUsers       int      `json:"totalUsers"`
	TotalConnections int      `json:"totalConnections"`
	ConnectedUsers   []string `json:"connectedUsers"`
}

// Registry is the authoritative table of live connections in this process.
// All mutations go through Add and Remove; no other component touches the
// underlying maps.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection         // connection ID -> connection
	byUser map[string]map[string]struct{} // user ID -> connection IDs

	rooms      *Rooms
	maxPerUser int
	listener   PresenceListener
	logger     *slog.Logger
}

// NewRegistry creates a Registry backed by the given room table.
// maxPerUser caps concurrent connections per user; zero means unlimited.
func NewRegistry(rooms *Rooms, maxPerUser int, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		conns:      make(map[string]*Connection),
		byUser:     make(map[string]map[string]struct{}),
		rooms:      rooms,
		maxPerUser: maxPerUser,
		logger:     logger.With("component", "registry"),
	}
}

// SetPresenceListener registers the listener notified on online/offline
// transitions. Must be called before the first Add.
func (r *Registry) SetPresenceListener(l PresenceListener) {
	r.listener = l
}

// Rooms returns the room table the registry maintains memberships in.
func (r *Registry) Rooms() *Rooms {
	return r.rooms
}

// Add registers a live connection. Adding a connection whose ID is already
// registered is a no-op. The connection is auto-joined to its owner's
// private room, and the user's presence transitions offline->online when
// this is their first connection.
func (r *Registry) Add(conn *Connection) error {
	r.mu.Lock()

	if _, exists := r.conns[conn.ID]; exists {
		r.mu.Unlock()
		return nil
	}

	userConns := r.byUser[conn.UserID]
	if r.maxPerUser > 0 && len(userConns) >= r.maxPerUser {
		r.mu.Unlock()
		return ErrTooManyConnections
	}

	wasOffline := len(userConns) == 0

	r.conns[conn.ID] = conn
	if userConns == nil {
		userConns = make(map[string]struct{})
		r.byUser[conn.UserID] = userConns
	}
	userConns[conn.ID] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()

	r.rooms.Join(conn.ID, UserRoom(conn.UserID))

	r.logger.Info("connection registered",
		"connection_id", conn.ID,
		"user_id", conn.UserID,
		"total_connections", total,
	)

	if wasOffline && r.listener != nil {
		r.listener.PresenceChanged(conn.UserID, true)
	}
	return nil
}

// Remove deregisters a connection, leaves every room it was in (the private
// room included), and closes it. Removing an unknown connection ID is a
// no-op; disconnect races are expected.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	conn, exists := r.conns[connID]
	if !exists {
		r.mu.Unlock()
		return
	}

	delete(r.conns, connID)
	userConns := r.byUser[conn.UserID]
	delete(userConns, connID)
	nowOffline := len(userConns) == 0
	if nowOffline {
		delete(r.byUser, conn.UserID)
	}
	total := len(r.conns)
	r.mu.Unlock()

	// No dangling memberships: clear rooms before the record is discarded.
	r.rooms.LeaveAll(connID)
	conn.Close()

	r.logger.Info("connection deregistered",
		"connection_id", connID,
		"user_id", conn.UserID,
		"total_connections", total,
	)

	if nowOffline && r.listener != nil {
		r.listener.PresenceChanged(conn.UserID, false)
	}
}

// Get retrieves a connection by ID.
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connID]
	return conn, ok
}

// ConnectionsOf returns a snapshot of the user's live connections, possibly
// empty. The snapshot can be stale the instant after it is read; callers
// pushing through it accept best-effort delivery.
func (r *Registry) ConnectionsOf(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	conns := make([]*Connection, 0, len(ids))
	for id := range ids {
		if conn, ok := r.conns[id]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

// AllConnections returns a snapshot of every live connection. Used for
// unconditional broadcasts.
func (r *Registry) AllConnections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

// IsOnline reports whether the user holds at least one live connection.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// OnlineUserIDs returns a snapshot of all users with at least one live
// connection.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// TotalConnections returns the number of live connections across all users.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Stats returns an aggregate snapshot for introspection.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return Stats{
		TotalUsers:       len(r.byUser),
		TotalConnections: len(r.conns),
		ConnectedUsers:   users,
	}
}

// Close removes and closes every connection. Used at process shutdown.
func (r *Registry) Close() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Remove(id)
	}
}
