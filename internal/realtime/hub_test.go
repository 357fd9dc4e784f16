package realtime

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/observability"
)

type fakeTransport struct {
	mu      sync.Mutex
	written []any
	closed  bool
}

func (t *fakeTransport) WriteJSON(v interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, v)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) writes() []any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]any(nil), t.written...)
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func newTestHub() *Hub {
	return NewHub(zap.NewNop(), observability.NewMetrics())
}

func attach(hub *Hub, userID int64, role domain.Role) (*Connection, *fakeTransport) {
	transport := &fakeTransport{}
	identity := &domain.Identity{UserID: userID, Role: role}
	conn := newConnection(transport, identity, 16, zap.NewNop())
	hub.Register(conn)
	return conn, transport
}

func TestRegisterIndexesSubjectAndGroup(t *testing.T) {
	hub := newTestHub()
	attach(hub, 1, domain.RoleUser)
	attach(hub, 2, domain.RoleAdmin)

	assert.Equal(t, 1, hub.CountForSubject(1))
	assert.Equal(t, 1, hub.CountForSubject(2))
	assert.Equal(t, 1, hub.CountForGroup(GroupAdmins))
}

func TestMultipleConnectionsPerSubject(t *testing.T) {
	hub := newTestHub()
	_, first := attach(hub, 1, domain.RoleUser)
	_, second := attach(hub, 1, domain.RoleUser)

	assert.Equal(t, 2, hub.CountForSubject(1))

	hub.SendToSubject(1, "hello")
	for _, transport := range []*fakeTransport{first, second} {
		transport := transport
		require.Eventually(t, func() bool {
			return len(transport.writes()) == 1
		}, time.Second, 5*time.Millisecond)
	}
}

func TestSendToSubjectSkipsOthers(t *testing.T) {
	hub := newTestHub()
	_, mine := attach(hub, 1, domain.RoleUser)
	_, theirs := attach(hub, 2, domain.RoleUser)

	hub.SendToSubject(1, "hello")
	require.Eventually(t, func() bool {
		return len(mine.writes()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, theirs.writes())
}

func TestSendToSubjectWithNoConnections(t *testing.T) {
	hub := newTestHub()
	// Offline subjects are the normal case, not an error.
	hub.SendToSubject(404, "hello")
	hub.SendToGroup(GroupAdmins, "hello")
}

func TestSendToGroupReachesAdminsOnly(t *testing.T) {
	hub := newTestHub()
	_, user := attach(hub, 1, domain.RoleUser)
	_, adminOne := attach(hub, 2, domain.RoleAdmin)
	_, adminTwo := attach(hub, 3, domain.RoleAdmin)

	hub.SendToGroup(GroupAdmins, "payload")
	for _, transport := range []*fakeTransport{adminOne, adminTwo} {
		transport := transport
		require.Eventually(t, func() bool {
			return len(transport.writes()) == 1
		}, time.Second, 5*time.Millisecond)
	}
	assert.Empty(t, user.writes())
}

func TestUnregisterRemovesBothIndices(t *testing.T) {
	hub := newTestHub()
	conn, transport := attach(hub, 1, domain.RoleAdmin)

	hub.Unregister(conn)
	assert.Equal(t, 0, hub.CountForSubject(1))
	assert.Equal(t, 0, hub.CountForGroup(GroupAdmins))
	assert.True(t, transport.isClosed())
	assert.Equal(t, StateClosed, conn.State())
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub()
	conn, _ := attach(hub, 1, domain.RoleUser)

	hub.Unregister(conn)
	hub.Unregister(conn)
	assert.Equal(t, 0, hub.CountForSubject(1))
}

func TestUnauthenticatedConnectionNeverDelivers(t *testing.T) {
	transport := &fakeTransport{}
	conn := newConnection(transport, &domain.Identity{UserID: 1}, 16, zap.NewNop())

	// Never registered: still in the connecting state, sends drop.
	conn.Send("payload")
	assert.Equal(t, StateConnecting, conn.State())
	assert.Empty(t, transport.writes())
}

func TestClosedConnectionDropsSends(t *testing.T) {
	hub := newTestHub()
	conn, transport := attach(hub, 1, domain.RoleUser)
	hub.Unregister(conn)

	before := len(transport.writes())
	hub.SendToSubject(1, "late")
	conn.Send("later still")
	assert.Equal(t, before, len(transport.writes()))
}

func TestConcurrentRegisterSendUnregister(t *testing.T) {
	hub := newTestHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			conn, _ := attach(hub, id, domain.RoleAdmin)
			hub.SendToSubject(id, fmt.Sprintf("msg-%d", id))
			hub.SendToGroup(GroupAdmins, "broadcast")
			hub.Unregister(conn)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 0, hub.CountForGroup(GroupAdmins))
	for i := 0; i < 20; i++ {
		assert.Equal(t, 0, hub.CountForSubject(int64(i)))
	}
}
