// ABOUTME: Notification CRUD against SQLite with cursor pagination and read-state rules
// ABOUTME: Enforces receiver ownership and monotonic is_read transitions

package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeFormat keeps sub-second precision so two records created in the same
// second still list in call order. The fractional second is fixed-width and
// timestamps are stored in UTC, so the TEXT column sorts lexicographically
// in timestamp order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

const notificationColumns = `id, receiver_id, sender_id, title, message, type,
	action_url, entity_type, entity_id, is_read, read_at, created_at, updated_at`

// CreateNotification persists a notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (
			id, receiver_id, sender_id, title, message, type,
			action_url, entity_type, entity_id, is_read, read_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var readAt *string
	if n.ReadAt != nil {
		v := formatTime(*n.ReadAt)
		readAt = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.ReceiverID,
		n.SenderID,
		n.Title,
		n.Message,
		string(n.Type),
		n.ActionURL,
		n.EntityType,
		n.EntityID,
		boolToInt(n.IsRead),
		readAt,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	s.logger.Debug("saved notification",
		"notification_id", n.ID,
		"receiver_id", n.ReceiverID,
		"type", n.Type,
	)
	return nil
}

// GetNotification retrieves a single notification by ID
func (s *SQLiteStore) GetNotification(ctx context.Context, id string) (*Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying notification: %w", err)
	}
	return n, nil
}

// ListNotifications retrieves one page of a receiver's notifications,
// newest first, with opaque cursor pagination.
func (s *SQLiteStore) ListNotifications(ctx context.Context, p ListParams) (*ListResult, error) {
	if p.ReceiverID == "" {
		return nil, errors.New("receiver_id required")
	}

	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}

	var cursorTS time.Time
	var cursorID string
	if p.Cursor != "" {
		var err error
		cursorTS, cursorID, err = decodeCursor(p.Cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor: %w", err)
		}
	}

	var args []any
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE receiver_id = ?`
	args = append(args, p.ReceiverID)

	if p.UnreadOnly {
		query += ` AND is_read = 0`
	}

	if p.Cursor != "" {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		ts := formatTime(cursorTS)
		args = append(args, ts, ts, cursorID)
	}

	// Newest first; id breaks ties for deterministic pagination
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, p.Limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}

	hasMore := len(notifications) > p.Limit
	if hasMore {
		notifications = notifications[:p.Limit]
	}

	result := &ListResult{
		Notifications: notifications,
		HasMore:       hasMore,
	}
	if hasMore && len(notifications) > 0 {
		last := notifications[len(notifications)-1]
		result.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return result, nil
}

// MarkRead marks a single notification read. The transition is monotonic:
// an already-read record is returned unchanged and read_at is never
// overwritten. Only the receiver may mark their record.
func (s *SQLiteStore) MarkRead(ctx context.Context, id, userID string) (*Notification, error) {
	n, err := s.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.ReceiverID != userID {
		return nil, ErrNotReceiver
	}
	if n.IsRead {
		return n, nil
	}

	now := time.Now()
	query := `
		UPDATE notifications
		SET is_read = 1, read_at = ?, updated_at = ?
		WHERE id = ? AND is_read = 0
	`
	if _, err := s.db.ExecContext(ctx, query, formatTime(now), formatTime(now), id); err != nil {
		return nil, fmt.Errorf("marking notification read: %w", err)
	}

	n.IsRead = true
	n.ReadAt = &now
	n.UpdatedAt = now
	return n, nil
}

// MarkAllRead marks every unread notification of a receiver as read.
// Returns the number of records that transitioned.
func (s *SQLiteStore) MarkAllRead(ctx context.Context, receiverID string) (int64, error) {
	now := formatTime(time.Now())
	query := `
		UPDATE notifications
		SET is_read = 1, read_at = ?, updated_at = ?
		WHERE receiver_id = ? AND is_read = 0
	`
	res, err := s.db.ExecContext(ctx, query, now, now, receiverID)
	if err != nil {
		return 0, fmt.Errorf("marking all read: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting affected rows: %w", err)
	}
	return count, nil
}

// UnreadCount returns the number of unread notifications for a receiver.
func (s *SQLiteStore) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE receiver_id = ? AND is_read = 0`

	var count int
	if err := s.db.QueryRowContext(ctx, query, receiverID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread: %w", err)
	}
	return count, nil
}

// DeleteNotification deletes a record. Only the receiver may delete.
func (s *SQLiteStore) DeleteNotification(ctx context.Context, id, userID string) error {
	n, err := s.GetNotification(ctx, id)
	if err != nil {
		return err
	}
	if n.ReceiverID != userID {
		return ErrNotReceiver
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanNotification.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*Notification, error) {
	n := &Notification{}
	var typ string
	var isRead int
	var readAt *string
	var createdAt, updatedAt string

	if err := row.Scan(
		&n.ID,
		&n.ReceiverID,
		&n.SenderID,
		&n.Title,
		&n.Message,
		&typ,
		&n.ActionURL,
		&n.EntityType,
		&n.EntityID,
		&isRead,
		&readAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	n.Type = NotificationType(typ)
	n.IsRead = isRead != 0

	var err error
	if readAt != nil {
		t, err := time.Parse(timeFormat, *readAt)
		if err != nil {
			return nil, fmt.Errorf("parsing read_at: %w", err)
		}
		n.ReadAt = &t
	}
	n.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	n.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeCursor creates an opaque cursor string from a timestamp and record ID.
// Format is base64(created_at|id)
func encodeCursor(ts time.Time, id string) string {
	data := fmt.Sprintf("%s|%s", formatTime(ts), id)
	return base64.StdEncoding.EncodeToString([]byte(data))
}

// decodeCursor parses an opaque cursor string into a timestamp and record ID.
// Returns an error if the cursor is invalid.
func decodeCursor(cursor string) (time.Time, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid cursor format: expected created_at|id")
	}

	ts, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid cursor timestamp: %w", err)
	}

	return ts, parts[1], nil
}
