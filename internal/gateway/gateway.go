// ABOUTME: Public push facade over the connection registry for application code
// ABOUTME: Live-only delivery; persistence belongs to the dispatch package

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reslab/notify-gateway/internal/dispatch"
	"github.com/reslab/notify-gateway/internal/presence"
	"github.com/reslab/notify-gateway/internal/registry"
	"github.com/reslab/notify-gateway/internal/store"
)

// ProjectDirectory resolves project membership. Membership lives outside
// this service, so callers supply their own implementation.
type ProjectDirectory interface {
	ProjectMemberIDs(ctx context.Context, projectID string) ([]string, error)
}

// RoomAuthorizer decides whether a user may join a room. The default
// implementation admits everyone; deployments wanting membership checks
// plug in their own.
type RoomAuthorizer interface {
	CanJoin(ctx context.Context, userID string, room registry.RoomKey) bool
}

// OpenRooms admits every user to every room.
type OpenRooms struct{}

func (OpenRooms) CanJoin(context.Context, string, registry.RoomKey) bool { return true }

// SystemNotice is the payload broadcast by BroadcastSystemNotification.
// It is pushed to live connections only and never persisted.
type SystemNotice struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service is the push surface the rest of the application talks to.
// None of its methods touch the store; durable notifications go through
// dispatch.Dispatcher, which persists first and then pushes.
type Service struct {
	registry *registry.Registry
	projects ProjectDirectory
	logger   *slog.Logger
}

// NewService creates a Service. projects may be nil, in which case
// project-wide sends fail with an error.
func NewService(reg *registry.Registry, projects ProjectDirectory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: reg,
		projects: projects,
		logger:   logger.With("component", "gateway"),
	}
}

// SendNotificationToUser pushes a notification payload to every live
// connection of the given user. Returns the number of connections the
// payload was queued on; zero means the user is offline.
func (s *Service) SendNotificationToUser(userID string, payload any) int {
	data, err := dispatch.EncodeEvent(dispatch.EventNotification, payload)
	if err != nil {
		s.logger.Error("failed to encode notification payload", "user_id", userID, "error", err)
		return 0
	}
	return s.sendToConnections(s.registry.ConnectionsOf(userID), data)
}

// SendNotificationToProject pushes a notification payload to every member
// of the project except excludeUserID (pass "" to exclude nobody).
// Membership is resolved through the ProjectDirectory.
func (s *Service) SendNotificationToProject(ctx context.Context, projectID string, payload any, excludeUserID string) error {
	if s.projects == nil {
		return fmt.Errorf("no project directory configured")
	}

	memberIDs, err := s.projects.ProjectMemberIDs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("resolving members of project %s: %w", projectID, err)
	}

	data, err := dispatch.EncodeEvent(dispatch.EventNotification, payload)
	if err != nil {
		return fmt.Errorf("encoding project notification: %w", err)
	}

	delivered := 0
	for _, memberID := range memberIDs {
		if memberID == excludeUserID {
			continue
		}
		delivered += s.sendToConnections(s.registry.ConnectionsOf(memberID), data)
	}

	s.logger.Debug("project notification pushed",
		"project_id", projectID,
		"members", len(memberIDs),
		"connections", delivered)
	return nil
}

// Broadcast pushes an event to every live connection unconditionally.
// It satisfies presence.Broadcaster so status changes fan out through
// the same path as everything else.
func (s *Service) Broadcast(event string, data any) {
	payload, err := dispatch.EncodeEvent(event, data)
	if err != nil {
		s.logger.Error("failed to encode broadcast", "event", event, "error", err)
		return
	}
	s.sendToConnections(s.registry.AllConnections(), payload)
}

// BroadcastSystemNotification pushes an ephemeral system notice to every
// live connection. Nothing is written to the store.
func (s *Service) BroadcastSystemNotification(title, message string) {
	s.Broadcast(dispatch.EventNotification, SystemNotice{
		Title:     title,
		Message:   message,
		Type:      string(store.TypeSystem),
		CreatedAt: time.Now().UTC(),
	})
}

// BroadcastUserStatus pushes a presence change for the given user to all
// live connections.
func (s *Service) BroadcastUserStatus(userID string, online bool) {
	status := presence.StatusOffline
	if online {
		status = presence.StatusOnline
	}
	s.Broadcast(presence.EventUserStatus, presence.StatusEvent{
		UserID: userID,
		Status: status,
	})
}

// GetConnectedUsers returns the IDs of all users with at least one live
// connection.
func (s *Service) GetConnectedUsers() []string {
	return s.registry.OnlineUserIDs()
}

// IsUserOnline reports whether the user has at least one live connection.
func (s *Service) IsUserOnline(userID string) bool {
	return s.registry.IsOnline(userID)
}

// GetTotalConnections returns the number of live connections.
func (s *Service) GetTotalConnections() int {
	return s.registry.TotalConnections()
}

// GetConnectionStats returns an aggregate snapshot of the registry.
func (s *Service) GetConnectionStats() registry.Stats {
	return s.registry.Stats()
}

// sendToConnections queues data on each connection, dropping per
// connection on failure so one slow consumer cannot block the rest.
func (s *Service) sendToConnections(conns []*registry.Connection, data []byte) int {
	delivered := 0
	for _, conn := range conns {
		if err := conn.Send(data); err != nil {
			s.logger.Warn("dropping payload for connection",
				"connection_id", conn.ID,
				"user_id", conn.UserID,
				"error", err)
			continue
		}
		delivered++
	}
	return delivered
}
