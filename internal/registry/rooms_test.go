// ABOUTME: Tests for room membership tracking and pruning
// ABOUTME: Asserts idempotent join/leave and a bounded room table under churn

package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRooms_JoinAndMembers(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", ProjectRoom("p1"))
	rooms.Join("conn-2", ProjectRoom("p1"))

	assert.ElementsMatch(t, []string{"conn-1", "conn-2"}, rooms.MembersOf(ProjectRoom("p1")))
}

func TestRooms_JoinIsIdempotent(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", ProjectRoom("p1"))
	rooms.Join("conn-1", ProjectRoom("p1"))

	assert.Len(t, rooms.MembersOf(ProjectRoom("p1")), 1)
	assert.Len(t, rooms.RoomsOf("conn-1"), 1)
}

func TestRooms_LeaveUnknownIsNoOp(t *testing.T) {
	rooms := NewRooms()

	rooms.Leave("conn-1", ProjectRoom("p1"))

	assert.Equal(t, 0, rooms.Len())
}

func TestRooms_EmptyRoomIsPruned(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", ProjectRoom("p1"))
	rooms.Join("conn-2", ProjectRoom("p1"))
	assert.Equal(t, 1, rooms.Len())

	rooms.Leave("conn-1", ProjectRoom("p1"))
	assert.Equal(t, 1, rooms.Len(), "room with a remaining member stays")

	rooms.Leave("conn-2", ProjectRoom("p1"))
	assert.Equal(t, 0, rooms.Len(), "empty room is pruned")
	assert.Empty(t, rooms.MembersOf(ProjectRoom("p1")))
}

func TestRooms_TableBoundedUnderChurn(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("resident", ChannelRoom("general"))
	before := rooms.Len()

	for i := range 1000 {
		connID := fmt.Sprintf("churn-%d", i)
		rooms.Join(connID, ChannelRoom("general"))
		rooms.Join(connID, ProjectRoom(fmt.Sprintf("p-%d", i%10)))
		rooms.LeaveAll(connID)
	}

	assert.Equal(t, before, rooms.Len(), "room table must return to its pre-cycle size")
}

func TestRooms_DistinctKindsAreDistinctRooms(t *testing.T) {
	rooms := NewRooms()

	rooms.Join("conn-1", RoomKey{Kind: RoomKindProject, ID: "42"})
	rooms.Join("conn-2", RoomKey{Kind: RoomKindChannel, ID: "42"})

	assert.Equal(t, []string{"conn-1"}, rooms.MembersOf(ProjectRoom("42")))
	assert.Equal(t, []string{"conn-2"}, rooms.MembersOf(ChannelRoom("42")))
}

func TestRoomKey_String(t *testing.T) {
	assert.Equal(t, "user:u1", UserRoom("u1").String())
	assert.Equal(t, "project:p1", ProjectRoom("p1").String())
	assert.Equal(t, "channel:c1", ChannelRoom("c1").String())
}

func TestValidRoomKind(t *testing.T) {
	assert.True(t, ValidRoomKind(RoomKindUser))
	assert.True(t, ValidRoomKind(RoomKindProject))
	assert.True(t, ValidRoomKind(RoomKindChannel))
	assert.False(t, ValidRoomKind(RoomKind("lobby")))
}
