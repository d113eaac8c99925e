// ABOUTME: HTTP API handlers for notification history, presence and health
// ABOUTME: All /api routes are receiver-scoped by the authenticated identity

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reslab/notify-gateway/internal/auth"
	"github.com/reslab/notify-gateway/internal/store"
)

// NotificationResponse is the JSON shape of one notification in API
// responses.
type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ActionURL string `json:"actionUrl,omitempty"`
	SenderID  string `json:"senderId,omitempty"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
	ReadAt    string `json:"readAt,omitempty"`
}

// ListNotificationsResponse is the JSON response for GET /api/notifications.
type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	NextCursor    string                 `json:"nextCursor,omitempty"`
	HasMore       bool                   `json:"hasMore"`
}

// PresenceResponse is the JSON response for GET /api/presence.
type PresenceResponse struct {
	ConnectedUsers []string `json:"connectedUsers"`
}

// Routes returns the full HTTP handler for the service: the WebSocket
// endpoint, the authenticated REST API and the open health check.
func (s *Server) Routes() http.Handler {
	authed := auth.HTTPMiddleware(s.verifier)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/api/notifications", authed(http.HandlerFunc(s.handleListNotifications)))
	mux.Handle("/api/notifications/", authed(http.HandlerFunc(s.handleNotificationSubtree)))
	mux.Handle("/api/presence", authed(http.HandlerFunc(s.handlePresence)))
	mux.Handle("/api/presence/", authed(http.HandlerFunc(s.handleUserPresence)))
	mux.Handle("/api/stats", authed(http.HandlerFunc(s.handleStats)))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.registry.TotalConnections(),
	})
}

// handleListNotifications handles GET /api/notifications with optional
// limit, cursor and unread_only query parameters.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity := auth.MustFromContext(r.Context())

	params := store.ListParams{
		ReceiverID: identity.UserID,
		Cursor:     r.URL.Query().Get("cursor"),
		UnreadOnly: r.URL.Query().Get("unread_only") == "true",
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 100 {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		params.Limit = limit
	}

	result, err := s.dispatcher.List(r.Context(), params)
	if err != nil {
		s.logger.Error("failed to list notifications", "user_id", identity.UserID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := ListNotificationsResponse{
		Notifications: make([]NotificationResponse, 0, len(result.Notifications)),
		NextCursor:    result.NextCursor,
		HasMore:       result.HasMore,
	}
	for i := range result.Notifications {
		resp.Notifications = append(resp.Notifications, toNotificationResponse(&result.Notifications[i]))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleNotificationSubtree routes the /api/notifications/... paths:
//
//	POST   /api/notifications/read-all
//	GET    /api/notifications/unread-count
//	POST   /api/notifications/{id}/read
//	DELETE /api/notifications/{id}
func (s *Server) handleNotificationSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/notifications/")

	switch {
	case rest == "read-all":
		s.handleMarkAllRead(w, r)
	case rest == "unread-count":
		s.handleUnreadCount(w, r)
	case strings.HasSuffix(rest, "/read"):
		s.handleMarkRead(w, r, strings.TrimSuffix(rest, "/read"))
	case rest != "" && !strings.Contains(rest, "/"):
		s.handleDeleteNotification(w, r, rest)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity := auth.MustFromContext(r.Context())

	n, err := s.dispatcher.MarkAsRead(r.Context(), id, identity.UserID)
	if err != nil {
		s.writeStoreError(w, err, identity.UserID, id)
		return
	}
	s.writeJSON(w, http.StatusOK, toNotificationResponse(n))
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity := auth.MustFromContext(r.Context())

	updated, err := s.dispatcher.MarkAllAsRead(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("failed to mark all read", "user_id", identity.UserID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity := auth.MustFromContext(r.Context())

	count, err := s.dispatcher.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		s.logger.Error("failed to count unread", "user_id", identity.UserID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	identity := auth.MustFromContext(r.Context())

	if err := s.dispatcher.Delete(r.Context(), id, identity.UserID); err != nil {
		s.writeStoreError(w, err, identity.UserID, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, PresenceResponse{
		ConnectedUsers: s.service.GetConnectedUsers(),
	})
}

// handleUserPresence handles GET /api/presence/{userID}.
func (s *Server) handleUserPresence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/presence/")
	if userID == "" || strings.Contains(userID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"online": s.service.IsUserOnline(userID),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.GetConnectionStats())
}

// writeStoreError maps store sentinel errors onto HTTP statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, userID, notificationID string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, store.ErrNotReceiver):
		s.writeError(w, http.StatusForbidden, "not the receiver of this notification")
	default:
		s.logger.Error("notification operation failed",
			"user_id", userID,
			"notification_id", notificationID,
			"error", err)
		s.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func toNotificationResponse(n *store.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
	}
	if n.ActionURL != nil {
		resp.ActionURL = *n.ActionURL
	}
	if n.SenderID != nil {
		resp.SenderID = *n.SenderID
	}
	if n.ReadAt != nil {
		resp.ReadAt = n.ReadAt.Format(time.RFC3339Nano)
	}
	return resp
}
