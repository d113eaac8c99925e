// ABOUTME: Observes connection registry transitions and broadcasts presence deltas
// ABOUTME: Fire-and-forget: no acknowledgment, no retry, no persistence

package presence

import (
	"log/slog"
)

// EventUserStatus is the envelope event name for presence deltas.
const EventUserStatus = "user_status"

// Statuses carried by a presence delta.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// StatusEvent is the presence delta pushed to interested parties.
type StatusEvent struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// Broadcaster pushes an event to every listening connection. If no one is
// listening the event is simply dropped.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// Tracker translates registry online/offline transitions into presence
// events. It implements registry.PresenceListener.
type Tracker struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewTracker creates a Tracker that fans presence deltas out through the
// given broadcaster. Pass nil logger for default.
func NewTracker(b Broadcaster, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		broadcaster: b,
		logger:      logger.With("component", "presence"),
	}
}

// PresenceChanged broadcasts the user's new derived status.
func (t *Tracker) PresenceChanged(userID string, online bool) {
	status := StatusOffline
	if online {
		status = StatusOnline
	}

	t.logger.Debug("presence changed", "user_id", userID, "status", status)
	t.broadcaster.Broadcast(EventUserStatus, StatusEvent{UserID: userID, Status: status})
}
