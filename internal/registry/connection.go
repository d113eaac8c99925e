// ABOUTME: Represents a single live client connection and its outbound payload queue
// ABOUTME: Non-blocking sends protect the registry from slow or dead consumers

package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Send errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// defaultSendBuffer is the outbound channel capacity used when the caller
// passes a non-positive buffer size.
const defaultSendBuffer = 64

// Connection represents one live, addressable channel between a client
// device and this process. A user may hold several connections at once.
type Connection struct {
	ID            string
	UserID        string
	EstablishedAt time.Time

	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

// NewConnection creates a Connection owned by the given user with a fresh
// connection identifier.
func NewConnection(userID string, buffer int) *Connection {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &Connection{
		ID:            uuid.New().String(),
		UserID:        userID,
		EstablishedAt: time.Now(),
		send:          make(chan []byte, buffer),
	}
}

// Send queues a payload for delivery to this connection. It never blocks:
// a closed connection returns ErrConnectionClosed and a full buffer returns
// ErrSendBufferFull. Delivery is best-effort either way.
func (c *Connection) Send(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Outbound returns the channel the transport's write loop drains.
// The channel is closed when the connection is closed.
func (c *Connection) Outbound() <-chan []byte {
	return c.send
}

// Close marks the connection closed and closes its outbound channel.
// Safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Closed reports whether the connection has been closed.
func (c *Connection) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
