// ABOUTME: WebSocket transport; upgrades authenticated requests and runs pumps
// ABOUTME: Read pump handles room and typing actions, write pump drains outbound

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reslab/notify-gateway/internal/auth"
	"github.com/reslab/notify-gateway/internal/config"
	"github.com/reslab/notify-gateway/internal/dispatch"
	"github.com/reslab/notify-gateway/internal/registry"
)

// maxMessageSize caps inbound client frames. Clients only send small
// control messages (join/leave/typing), so anything larger is abuse.
const maxMessageSize = 4096

// Server terminates WebSocket and HTTP API traffic for the service.
type Server struct {
	realtime   config.RealtimeConfig
	verifier   auth.TokenVerifier
	service    *Service
	dispatcher *dispatch.Dispatcher
	registry   *registry.Registry
	authorizer RoomAuthorizer
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewServer creates a Server. authorizer may be nil, in which case every
// join request is admitted.
func NewServer(
	realtime config.RealtimeConfig,
	verifier auth.TokenVerifier,
	service *Service,
	dispatcher *dispatch.Dispatcher,
	reg *registry.Registry,
	authorizer RoomAuthorizer,
	logger *slog.Logger,
) *Server {
	if authorizer == nil {
		authorizer = OpenRooms{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		realtime:   realtime,
		verifier:   verifier,
		service:    service,
		dispatcher: dispatcher,
		registry:   reg,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Auth happens via bearer token, not origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "ws"),
	}
}

// clientMessage is the JSON shape clients send over the socket.
type clientMessage struct {
	Action   string  `json:"action"`
	Room     roomRef `json:"room"`
	IsTyping bool    `json:"isTyping"`
}

// roomRef identifies a room in client messages.
type roomRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// handleWS authenticates the request, upgrades it, registers a
// connection and runs the pumps until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r)
	if token == "" {
		http.Error(w, `{"error":"missing credentials"}`, http.StatusUnauthorized)
		return
	}
	identity, err := s.verifier.Verify(token)
	if err != nil {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Debug("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	conn := registry.NewConnection(identity.UserID, s.realtime.SendBuffer)
	if err := s.registry.Add(conn); err != nil {
		s.logger.Warn("rejecting connection", "user_id", identity.UserID, "error", err)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error())
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.realtime.WriteTimeout))
		_ = ws.Close()
		return
	}

	s.logger.Info("client connected",
		"user_id", identity.UserID,
		"connection_id", conn.ID)

	go s.writePump(ws, conn)
	s.readPump(r, ws, conn, identity)
}

// readPump consumes client frames until the socket errors, then tears
// the connection down. It runs on the HTTP handler goroutine.
func (s *Server) readPump(r *http.Request, ws *websocket.Conn, conn *registry.Connection, identity *auth.Identity) {
	defer func() {
		s.registry.Remove(conn.ID)
		_ = ws.Close()
		s.logger.Info("client disconnected",
			"user_id", identity.UserID,
			"connection_id", conn.ID)
	}()

	pongWait := 2 * s.realtime.PingInterval
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read error", "connection_id", conn.ID, "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Debug("ignoring malformed client message", "connection_id", conn.ID, "error", err)
			continue
		}
		s.handleClientMessage(r, conn, identity, msg)
	}
}

// handleClientMessage applies one inbound action. Unknown actions and
// invalid rooms are ignored rather than killing the socket.
func (s *Server) handleClientMessage(r *http.Request, conn *registry.Connection, identity *auth.Identity, msg clientMessage) {
	kind := registry.RoomKind(msg.Room.Kind)
	if !registry.ValidRoomKind(kind) || msg.Room.ID == "" {
		s.logger.Debug("ignoring message with invalid room",
			"connection_id", conn.ID,
			"action", msg.Action,
			"kind", msg.Room.Kind)
		return
	}
	key := registry.RoomKey{Kind: kind, ID: msg.Room.ID}

	switch msg.Action {
	case "join_room":
		if !s.authorizer.CanJoin(r.Context(), identity.UserID, key) {
			s.logger.Warn("join denied", "user_id", identity.UserID, "room", key.String())
			return
		}
		s.registry.Rooms().Join(conn.ID, key)
		s.logger.Debug("joined room", "connection_id", conn.ID, "room", key.String())
	case "leave_room":
		s.registry.Rooms().Leave(conn.ID, key)
		s.logger.Debug("left room", "connection_id", conn.ID, "room", key.String())
	case "typing":
		s.service.SendTypingIndicator(kind, msg.Room.ID, identity.UserID, msg.IsTyping)
	default:
		s.logger.Debug("ignoring unknown action", "connection_id", conn.ID, "action", msg.Action)
	}
}

// writePump drains the connection's outbound queue onto the socket and
// keeps the connection alive with pings. It exits when the outbound
// channel closes (registry removal) or a write fails.
func (s *Server) writePump(ws *websocket.Conn, conn *registry.Connection) {
	ticker := time.NewTicker(s.realtime.PingInterval)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case payload, ok := <-conn.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(s.realtime.WriteTimeout))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("write failed", "connection_id", conn.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(s.realtime.WriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
