// ABOUTME: Ephemeral typing indicator fan-out to room members
// ABOUTME: Never persisted; the originating user is always excluded

package gateway

import (
	"github.com/reslab/notify-gateway/internal/dispatch"
	"github.com/reslab/notify-gateway/internal/registry"
)

// EventTyping is the envelope event name for typing indicators.
const EventTyping = "typing"

// TypingEvent is pushed to room members when a user starts or stops typing.
type TypingEvent struct {
	RoomKind string `json:"roomKind"`
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// SendTypingIndicator pushes a typing event to every member of the room
// except connections owned by the originating user. Unknown rooms and
// offline members are silently skipped.
func (s *Service) SendTypingIndicator(kind registry.RoomKind, roomID, userID string, isTyping bool) {
	key := registry.RoomKey{Kind: kind, ID: roomID}

	data, err := dispatch.EncodeEvent(EventTyping, TypingEvent{
		RoomKind: string(kind),
		RoomID:   roomID,
		UserID:   userID,
		IsTyping: isTyping,
	})
	if err != nil {
		s.logger.Error("failed to encode typing event", "room", key.String(), "error", err)
		return
	}

	for _, connID := range s.registry.Rooms().MembersOf(key) {
		conn, ok := s.registry.Get(connID)
		if !ok || conn.UserID == userID {
			continue
		}
		if err := conn.Send(data); err != nil {
			s.logger.Debug("typing event dropped",
				"connection_id", conn.ID,
				"room", key.String(),
				"error", err)
		}
	}
}
