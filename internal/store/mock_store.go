// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject persistence failures

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	notifications map[string]*Notification // keyed by notification ID
	order         []string                 // creation order of notification IDs
	users         map[string]*UserSummary  // keyed by user ID

	// FailCreate, when set, is returned by CreateNotification without
	// persisting anything. Used to exercise persistence-failure paths.
	FailCreate error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		notifications: make(map[string]*Notification),
		users:         make(map[string]*UserSummary),
	}
}

// CreateNotification stores a new notification.
func (m *MockStore) CreateNotification(ctx context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreate != nil {
		return m.FailCreate
	}

	// Make a copy to avoid external modification
	c := *n
	m.notifications[c.ID] = &c
	m.order = append(m.order, c.ID)
	return nil
}

// GetNotification retrieves a notification by ID.
func (m *MockStore) GetNotification(ctx context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *n
	return &result, nil
}

// ListNotifications returns one page of a receiver's notifications, newest first.
func (m *MockStore) ListNotifications(ctx context.Context, p ListParams) (*ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}

	var all []Notification
	for _, n := range m.notifications {
		if n.ReceiverID != p.ReceiverID {
			continue
		}
		if p.UnreadOnly && n.IsRead {
			continue
		}
		all = append(all, *n)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := 0
	if p.Cursor != "" {
		cursorTS, cursorID, err := decodeCursor(p.Cursor)
		if err != nil {
			return nil, err
		}
		for i, n := range all {
			if n.CreatedAt.Before(cursorTS) || (n.CreatedAt.Equal(cursorTS) && n.ID < cursorID) {
				start = i
				break
			}
			start = len(all)
		}
	}

	page := all[start:]
	hasMore := len(page) > p.Limit
	if hasMore {
		page = page[:p.Limit]
	}

	result := &ListResult{Notifications: page, HasMore: hasMore}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		result.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}
	return result, nil
}

// MarkRead marks a single notification read, enforcing receiver ownership
// and the monotonic false->true transition.
func (m *MockStore) MarkRead(ctx context.Context, id, userID string) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	if n.ReceiverID != userID {
		return nil, ErrNotReceiver
	}
	if !n.IsRead {
		now := time.Now()
		n.IsRead = true
		n.ReadAt = &now
		n.UpdatedAt = now
	}

	result := *n
	return &result, nil
}

// MarkAllRead marks every unread notification of a receiver as read.
func (m *MockStore) MarkAllRead(ctx context.Context, receiverID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := time.Now()
	for _, n := range m.notifications {
		if n.ReceiverID == receiverID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			n.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// UnreadCount returns the number of unread notifications for a receiver.
func (m *MockStore) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, n := range m.notifications {
		if n.ReceiverID == receiverID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// DeleteNotification deletes a record, enforcing receiver ownership.
func (m *MockStore) DeleteNotification(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return ErrNotFound
	}
	if n.ReceiverID != userID {
		return ErrNotReceiver
	}
	delete(m.notifications, id)
	return nil
}

// GetUserSummary resolves a user summary.
func (m *MockStore) GetUserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}

	result := *u
	return &result, nil
}

// PutUser seeds a user summary for tests.
func (m *MockStore) PutUser(u *UserSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *u
	m.users[c.ID] = &c
}

// CreatedInOrder returns the IDs of all notifications in creation order.
// Test helper for asserting per-receiver persistence ordering.
func (m *MockStore) CreatedInOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}
