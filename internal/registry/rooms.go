// ABOUTME: Room membership tracking for scoping broadcasts to logical groups
// ABOUTME: Rooms are created lazily on first join and pruned as soon as they empty

package registry

import (
	"sync"
)

// RoomKind identifies the category of a room.
type RoomKind string

const (
	RoomKindUser    RoomKind = "user"    // private per-user room, auto-joined on connect
	RoomKindProject RoomKind = "project" // explicit per-project room
	RoomKindChannel RoomKind = "channel" // explicit per-chat-channel room
)

// ValidRoomKind reports whether k names a known room kind.
func ValidRoomKind(k RoomKind) bool {
	switch k {
	case RoomKindUser, RoomKindProject, RoomKindChannel:
		return true
	}
	return false
}

// RoomKey is the composite identifier of a room.
type RoomKey struct {
	Kind RoomKind
	ID   string
}

// String renders the key in its canonical "kind:id" form.
func (k RoomKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// UserRoom returns the private room key for a user.
func UserRoom(userID string) RoomKey {
	return RoomKey{Kind: RoomKindUser, ID: userID}
}

// ProjectRoom returns the room key for a project.
func ProjectRoom(projectID string) RoomKey {
	return RoomKey{Kind: RoomKindProject, ID: projectID}
}

// ChannelRoom returns the room key for a chat channel.
func ChannelRoom(channelID string) RoomKey {
	return RoomKey{Kind: RoomKindChannel, ID: channelID}
}

// Rooms maintains the membership of connections in logical rooms. Empty
// rooms are removed eagerly so the table stays bounded under join/leave
// churn.
type Rooms struct {
	mu      sync.RWMutex
	members map[RoomKey]map[string]struct{} // room -> connection IDs
	joined  map[string]map[RoomKey]struct{} // connection ID -> rooms
}

// NewRooms creates an empty room table.
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[RoomKey]map[string]struct{}),
		joined:  make(map[string]map[RoomKey]struct{}),
	}
}

// Join adds a connection to a room, creating the room on first join.
// Joining a room the connection is already in is a no-op.
func (r *Rooms) Join(connID string, key RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[key]; !ok {
		r.members[key] = make(map[string]struct{})
	}
	r.members[key][connID] = struct{}{}

	if _, ok := r.joined[connID]; !ok {
		r.joined[connID] = make(map[RoomKey]struct{})
	}
	r.joined[connID][key] = struct{}{}
}

// Leave removes a connection from a room. Leaving a room the connection is
// not in is a no-op. The room entry is pruned when its last member leaves.
func (r *Rooms) Leave(connID string, key RoomKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(connID, key)
}

// LeaveAll removes a connection from every room it is in, pruning emptied
// rooms. Called on disconnect so no dangling memberships remain.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.joined[connID] {
		r.leaveLocked(connID, key)
	}
}

func (r *Rooms) leaveLocked(connID string, key RoomKey) {
	if members, ok := r.members[key]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.members, key)
		}
	}

	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, key)
		if len(rooms) == 0 {
			delete(r.joined, connID)
		}
	}
}

// MembersOf returns a snapshot of the connection IDs currently in a room.
// The snapshot may be stale the instant after it is read.
func (r *Rooms) MembersOf(key RoomKey) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.members[key]
	if !ok {
		return nil
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// RoomsOf returns a snapshot of the rooms a connection is in.
func (r *Rooms) RoomsOf(connID string) []RoomKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms, ok := r.joined[connID]
	if !ok {
		return nil
	}

	keys := make([]RoomKey, 0, len(rooms))
	for key := range rooms {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of rooms currently tracked.
func (r *Rooms) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
