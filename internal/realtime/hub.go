package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/observability"
)

// GroupAdmins is the shared broadcast key for administrator connections.
const GroupAdmins = "admins"

// Hub is the connection registry. It indexes live connections under two
// keys: the owning subject id for direct delivery, and group membership
// for broadcast delivery. Connections attach and detach from independent
// goroutines at any time relative to dispatch calls, so all state is
// guarded by the hub's lock and sends happen outside it.
type Hub struct {
	mu       sync.RWMutex
	subjects map[int64]map[*Connection]struct{}
	groups   map[string]map[*Connection]struct{}
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewHub creates an empty registry.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		subjects: make(map[int64]map[*Connection]struct{}),
		groups:   make(map[string]map[*Connection]struct{}),
		logger:   logger,
		metrics:  metrics,
	}
}

// Register indexes an authenticated connection and starts its writer.
// Only the handshake path calls this, and only after the token passed
// the full authentication sequence.
func (h *Hub) Register(conn *Connection) {
	conn.state.Store(int32(StateAuthenticated))

	h.mu.Lock()
	subject := conn.identity.UserID
	if h.subjects[subject] == nil {
		h.subjects[subject] = make(map[*Connection]struct{})
	}
	h.subjects[subject][conn] = struct{}{}

	if conn.identity.IsAdmin() {
		if h.groups[GroupAdmins] == nil {
			h.groups[GroupAdmins] = make(map[*Connection]struct{})
		}
		h.groups[GroupAdmins][conn] = struct{}{}
	}
	h.mu.Unlock()

	go conn.writePump()

	h.logger.Info("realtime connection registered",
		zap.Int64("user_id", subject),
		zap.String("role", string(conn.identity.Role)))
}

// Unregister removes the connection from both indices and closes it.
// Idempotent: transports can report disconnection more than once.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	subject := conn.identity.UserID
	if conns, ok := h.subjects[subject]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subjects, subject)
		}
	}
	for key, conns := range h.groups {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.groups, key)
		}
	}
	h.mu.Unlock()

	conn.Close()
}

// SendToSubject delivers to every live connection owned by the subject.
// Zero recipients is not an error; offline is the expected case the
// durable store covers.
func (h *Hub) SendToSubject(subjectID int64, payload any) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.subjects[subjectID]))
	for conn := range h.subjects[subjectID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		conn.Send(payload)
	}
	h.metrics.RecordPush("subject", len(targets))
}

// SendToGroup delivers to every live connection in the group.
func (h *Hub) SendToGroup(groupKey string, payload any) {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.groups[groupKey]))
	for conn := range h.groups[groupKey] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		conn.Send(payload)
	}
	h.metrics.RecordPush("group", len(targets))
}

// CountForSubject reports live connections for a subject id.
func (h *Hub) CountForSubject(subjectID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subjects[subjectID])
}

// CountForGroup reports live connections in a group.
func (h *Hub) CountForGroup(groupKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupKey])
}
