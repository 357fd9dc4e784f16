package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/domain"
)

// State tracks the connection lifecycle: Connecting -> Authenticated -> Closed.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateClosed
)

// Transport is the write side of an established realtime connection.
// *websocket.Conn satisfies it.
type Transport interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Connection is a live realtime channel owned by the hub for its
// lifetime. Multiple connections may share a subject id (tabs, devices).
type Connection struct {
	transport Transport
	identity  *domain.Identity
	createdAt time.Time
	state     atomic.Int32
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func newConnection(transport Transport, identity *domain.Identity, sendBuffer int, logger *zap.Logger) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Connection{
		transport: transport,
		identity:  identity,
		createdAt: time.Now(),
		send:      make(chan any, sendBuffer),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Identity returns the owning identity.
func (c *Connection) Identity() *domain.Identity {
	return c.identity
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Send queues a payload for delivery. Delivery is best-effort: a closed
// connection or a full queue drops the payload, since the durable store
// remains the source of truth.
func (c *Connection) Send(payload any) {
	if c.State() != StateAuthenticated {
		return
	}
	select {
	case c.send <- payload:
	default:
		c.logger.Warn("realtime send queue full, dropping payload",
			zap.Int64("user_id", c.identity.UserID))
	}
}

// Close terminates the connection. Safe to invoke more than once;
// transport layers can signal closure twice.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		_ = c.transport.Close()
	})
}

// writePump drains the send queue onto the transport until the
// connection closes. Write failures close the connection; the read loop
// then observes the closure and unregisters it.
func (c *Connection) writePump() {
	for {
		select {
		case payload := <-c.send:
			if err := c.transport.WriteJSON(payload); err != nil {
				c.logger.Debug("realtime write failed",
					zap.Int64("user_id", c.identity.UserID),
					zap.Error(err))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
