// ABOUTME: End-to-end WebSocket tests over httptest with real dialers
// ABOUTME: Auth gating, notification delivery, room actions and connection caps

package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslab/notify-gateway/internal/auth"
	"github.com/reslab/notify-gateway/internal/config"
	"github.com/reslab/notify-gateway/internal/dispatch"
	"github.com/reslab/notify-gateway/internal/registry"
	"github.com/reslab/notify-gateway/internal/store"
)

func newWSFixture(t *testing.T, maxPerUser int) *apiFixture {
	t.Helper()

	verifier := auth.NewJWTVerifier([]byte("test-secret"))
	st := store.NewMockStore()
	reg := registry.NewRegistry(registry.NewRooms(), maxPerUser, nil)
	dispatcher := dispatch.NewDispatcher(st, reg, nil)
	svc := NewService(reg, nil, nil)

	realtime := config.RealtimeConfig{
		SendBuffer:   8,
		WriteTimeout: time.Second,
		PingInterval: time.Second,
	}
	srv := NewServer(realtime, verifier, svc, dispatcher, reg, nil, nil)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &apiFixture{ts: ts, verifier: verifier, store: st, dispatcher: dispatcher, registry: reg}
}

func (f *apiFixture) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(f.ts.URL, "http") + path
}

func (f *apiFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(f.wsURL("/ws?token="+f.token(t, userID)), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { ws.Close() })

	require.Eventually(t, func() bool { return f.registry.IsOnline(userID) },
		time.Second, 10*time.Millisecond, "connection never registered")
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) rawEnvelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var env rawEnvelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func writeClientMessage(t *testing.T, ws *websocket.Conn, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
}

func TestWS_RejectsMissingToken(t *testing.T) {
	f := newWSFixture(t, 0)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL("/ws"), nil)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 401, resp.StatusCode)
}

func TestWS_RejectsInvalidToken(t *testing.T) {
	f := newWSFixture(t, 0)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL("/ws?token=garbage"), nil)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, 401, resp.StatusCode)
}

func TestWS_DeliversNotifications(t *testing.T) {
	f := newWSFixture(t, 0)
	ws := f.dial(t, "alice")

	_, err := f.dispatcher.CreateNotification(t.Context(), dispatch.Intent{
		ReceiverID: "alice",
		Title:      "Welcome",
		Message:    "You are connected",
		Type:       store.TypeSystem,
	})
	require.NoError(t, err)

	env := readEnvelope(t, ws)
	assert.Equal(t, dispatch.EventNotification, env.Event)

	var payload dispatch.PushPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "Welcome", payload.Title)
	assert.False(t, payload.IsRead)
}

func TestWS_JoinRoomAndTyping(t *testing.T) {
	f := newWSFixture(t, 0)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")

	room := roomRef{Kind: "channel", ID: "general"}
	writeClientMessage(t, alice, clientMessage{Action: "join_room", Room: room})
	writeClientMessage(t, bob, clientMessage{Action: "join_room", Room: room})

	key := registry.ChannelRoom("general")
	require.Eventually(t, func() bool {
		return len(f.registry.Rooms().MembersOf(key)) == 2
	}, time.Second, 10*time.Millisecond, "joins never processed")

	writeClientMessage(t, alice, clientMessage{Action: "typing", Room: room, IsTyping: true})

	env := readEnvelope(t, bob)
	assert.Equal(t, EventTyping, env.Event)

	var typing TypingEvent
	require.NoError(t, json.Unmarshal(env.Data, &typing))
	assert.Equal(t, "alice", typing.UserID)
	assert.True(t, typing.IsTyping)
}

func TestWS_LeaveRoomStopsDelivery(t *testing.T) {
	f := newWSFixture(t, 0)
	alice := f.dial(t, "alice")
	bob := f.dial(t, "bob")

	room := roomRef{Kind: "channel", ID: "general"}
	writeClientMessage(t, bob, clientMessage{Action: "join_room", Room: room})

	key := registry.ChannelRoom("general")
	require.Eventually(t, func() bool {
		return len(f.registry.Rooms().MembersOf(key)) == 1
	}, time.Second, 10*time.Millisecond)

	writeClientMessage(t, bob, clientMessage{Action: "leave_room", Room: room})
	require.Eventually(t, func() bool {
		return len(f.registry.Rooms().MembersOf(key)) == 0
	}, time.Second, 10*time.Millisecond)

	writeClientMessage(t, alice, clientMessage{Action: "typing", Room: room, IsTyping: true})

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err, "no typing event expected after leaving the room")
}

func TestWS_MaxConnectionsPerUser(t *testing.T) {
	f := newWSFixture(t, 1)
	f.dial(t, "alice")

	second, resp, err := websocket.DefaultDialer.Dial(f.wsURL("/ws?token="+f.token(t, "alice")), nil)
	require.NoError(t, err, "handshake succeeds before the cap check")
	resp.Body.Close()
	defer second.Close()

	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = second.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected policy violation close, got %v", err)
}

func TestWS_DisconnectRemovesConnection(t *testing.T) {
	f := newWSFixture(t, 0)
	ws := f.dial(t, "alice")

	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool { return !f.registry.IsOnline("alice") },
		time.Second, 10*time.Millisecond, "connection never removed after close")
}
