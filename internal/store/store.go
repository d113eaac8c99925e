// ABOUTME: Store interface and data types for notify-gateway persistence
// ABOUTME: Defines the Notification record, its type enum, and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrNotReceiver is returned when a caller operates on a notification they
// do not own. Only the receiver may read, mark, or delete a notification.
var ErrNotReceiver = errors.New("caller is not the receiver")

// NotificationType categorizes the application event behind a notification
type NotificationType string

const (
	TypeProjectAdded    NotificationType = "PROJECT_ADDED"
	TypeActivityAdded   NotificationType = "ACTIVITY_ADDED"
	TypeActivityUpdated NotificationType = "ACTIVITY_UPDATED"
	TypeChatMessage     NotificationType = "CHAT_MESSAGE"
	TypeChatMention     NotificationType = "CHAT_MENTION"
	TypeDocumentShared  NotificationType = "DOCUMENT_SHARED"
	TypeTaskAssigned    NotificationType = "TASK_ASSIGNED"
	TypeSystem          NotificationType = "SYSTEM"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeProjectAdded, TypeActivityAdded, TypeActivityUpdated,
		TypeChatMessage, TypeChatMention, TypeDocumentShared,
		TypeTaskAssigned, TypeSystem:
		return true
	}
	return false
}

// Notification is the durable record created on behalf of an application
// event. The receiver is the sole entity with read and delete rights; the
// sender has no post-creation rights.
type Notification struct {
	ID         string
	ReceiverID string
	SenderID   *string
	Title      string
	Message    string
	Type       NotificationType
	ActionURL  *string
	EntityType *string
	EntityID   *string
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserSummary is the sender information resolved into push payloads.
type UserSummary struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// ListParams specifies the parameters for listing a receiver's notifications.
type ListParams struct {
	ReceiverID string // Required: the receiver whose notifications to list
	UnreadOnly bool   // Only notifications with is_read = false
	Limit      int    // 1-100, defaults to 20
	Cursor     string // Opaque cursor from a previous response for pagination
}

// ListResult contains one page of a receiver's notifications, newest first.
type ListResult struct {
	Notifications []Notification
	NextCursor    string // Opaque cursor for the next page, empty if no more
	HasMore       bool
}

// Store defines the interface for notification persistence
type Store interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetNotification(ctx context.Context, id string) (*Notification, error)
	ListNotifications(ctx context.Context, params ListParams) (*ListResult, error)

	// MarkRead sets is_read on a single record. It is monotonic and
	// idempotent: marking an already-read record changes nothing. Returns
	// ErrNotReceiver when userID is not the record's receiver.
	MarkRead(ctx context.Context, id, userID string) (*Notification, error)
	MarkAllRead(ctx context.Context, receiverID string) (int64, error)
	UnreadCount(ctx context.Context, receiverID string) (int, error)
	DeleteNotification(ctx context.Context, id, userID string) error

	// GetUserSummary resolves the sender summary pushed alongside a record.
	GetUserSummary(ctx context.Context, userID string) (*UserSummary, error)

	// Close releases any resources held by the store
	Close() error
}
