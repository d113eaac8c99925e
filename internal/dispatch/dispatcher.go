// ABOUTME: Turns application-level notification intents into persisted records plus best-effort pushes
// ABOUTME: Persistence always precedes push; push failures never surface to the caller

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reslab/notify-gateway/internal/registry"
	"github.com/reslab/notify-gateway/internal/store"
)

// Intent validation errors. Both are returned synchronously, before any
// store call.
var (
	ErrMissingReceiver = errors.New("intent has no receiver")
	ErrInvalidType     = errors.New("invalid notification type")
)

// EventNotification is the envelope event name for pushed notifications.
const EventNotification = "notification"

// Intent describes a notification to create. Optional fields are empty
// strings.
type Intent struct {
	ReceiverID string
	SenderID   string
	Title      string
	Message    string
	Type       store.NotificationType
	ActionURL  string
	EntityType string
	EntityID   string
}

// Envelope is the wire shape of every pushed event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EncodeEvent marshals an event envelope for transport.
func EncodeEvent(event string, data any) ([]byte, error) {
	return json.Marshal(Envelope{Event: event, Data: data})
}

// PushPayload is the notification shape sent over a live connection: the
// persisted record plus the resolved sender summary.
type PushPayload struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Message   string             `json:"message"`
	Type      string             `json:"type"`
	ActionURL string             `json:"actionUrl,omitempty"`
	Sender    *store.UserSummary `json:"sender,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	IsRead    bool               `json:"isRead"`
}

// Dispatcher orchestrates notification creation: persist through the store,
// then attempt a live push to each of the receiver's connections.
type Dispatcher struct {
	store    store.Store
	registry *registry.Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. Pass nil logger for default.
func NewDispatcher(st store.Store, reg *registry.Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:    st,
		registry: reg,
		logger:   logger.With("component", "dispatcher"),
	}
}

// CreateNotification validates the intent, persists the record, then pushes
// it to the receiver's live connections. The record exists durably before
// any push is attempted; a persistence failure propagates and suppresses
// the push entirely, while push failures are swallowed per-connection. The
// persisted record is returned regardless of push outcome.
func (d *Dispatcher) CreateNotification(ctx context.Context, intent Intent) (*store.Notification, error) {
	if intent.ReceiverID == "" {
		return nil, ErrMissingReceiver
	}
	if !intent.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, intent.Type)
	}

	now := time.Now()
	n := &store.Notification{
		ID:         uuid.New().String(),
		ReceiverID: intent.ReceiverID,
		SenderID:   optional(intent.SenderID),
		Title:      intent.Title,
		Message:    intent.Message,
		Type:       intent.Type,
		ActionURL:  optional(intent.ActionURL),
		EntityType: optional(intent.EntityType),
		EntityID:   optional(intent.EntityID),
		IsRead:     false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := d.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("persisting notification: %w", err)
	}

	d.push(ctx, n)
	return n, nil
}

// push delivers the persisted record to every live connection the receiver
// currently holds. The connection set is read fresh here, after the store
// write, because connections may have churned during the write.
func (d *Dispatcher) push(ctx context.Context, n *store.Notification) {
	conns := d.registry.ConnectionsOf(n.ReceiverID)
	if len(conns) == 0 {
		// Expected and frequent: the receiver reads the record from the
		// store next time they look. Not a failure.
		d.logger.Debug("receiver offline, push skipped",
			"notification_id", n.ID,
			"receiver_id", n.ReceiverID,
		)
		return
	}

	payload := PushPayload{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		CreatedAt: n.CreatedAt,
		IsRead:    n.IsRead,
	}
	if n.ActionURL != nil {
		payload.ActionURL = *n.ActionURL
	}
	if n.SenderID != nil {
		sender, err := d.store.GetUserSummary(ctx, *n.SenderID)
		if err != nil {
			d.logger.Debug("sender summary unavailable",
				"sender_id", *n.SenderID,
				"error", err,
			)
		} else {
			payload.Sender = sender
		}
	}

	data, err := EncodeEvent(EventNotification, payload)
	if err != nil {
		d.logger.Warn("encoding push payload", "notification_id", n.ID, "error", err)
		return
	}

	// One failed connection must not prevent delivery to the others.
	for _, conn := range conns {
		if err := conn.Send(data); err != nil {
			d.logger.Debug("push to connection failed",
				"connection_id", conn.ID,
				"notification_id", n.ID,
				"error", err,
			)
		}
	}
}

// MarkAsRead marks a single notification read on behalf of userID.
// Returns store.ErrNotReceiver if the caller is not the receiver.
func (d *Dispatcher) MarkAsRead(ctx context.Context, notificationID, userID string) (*store.Notification, error) {
	return d.store.MarkRead(ctx, notificationID, userID)
}

// MarkAllAsRead marks every unread notification of a user as read and
// returns how many transitioned.
func (d *Dispatcher) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return d.store.MarkAllRead(ctx, userID)
}

// UnreadCount returns the user's unread notification count. Pure query.
func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int, error) {
	return d.store.UnreadCount(ctx, userID)
}

// Delete removes a notification on behalf of userID.
// Returns store.ErrNotReceiver if the caller is not the receiver.
func (d *Dispatcher) Delete(ctx context.Context, notificationID, userID string) error {
	return d.store.DeleteNotification(ctx, notificationID, userID)
}

// List returns one page of the user's notifications from the store.
func (d *Dispatcher) List(ctx context.Context, params store.ListParams) (*store.ListResult, error) {
	return d.store.ListNotifications(ctx, params)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
