package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/realtime"
)

func newNotificationFixture(t *testing.T) (*NotificationService, *memUserRepo, *memNotificationRepo, *recordingPusher, *opLog) {
	t.Helper()
	log := &opLog{}
	users := newMemUserRepo()
	notifications := newMemNotificationRepo(log)
	pusher := newRecordingPusher(log)
	svc := NewNotificationService(notifications, users, pusher, zap.NewNop())
	return svc, users, notifications, pusher, log
}

func seedUser(t *testing.T, users *memUserRepo, first, last, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{FirstName: first, LastName: last, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestNotifyUserPersistsBeforePush(t *testing.T) {
	svc, users, _, pusher, log := newNotificationFixture(t)
	user := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)

	notification, err := svc.NotifyUser(context.Background(), user.ID, "hello", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)
	require.NotZero(t, notification.ID)
	assert.False(t, notification.IsRead)

	entries := log.all()
	require.Len(t, entries, 2)
	assert.Equal(t, "persist:1", entries[0])
	assert.Equal(t, "push:subject:1", entries[1])

	// The pushed payload mirrors the durable row.
	records := pusher.records()
	require.Len(t, records, 1)
	msg, ok := records[0].payload.(realtime.Message)
	require.True(t, ok)
	assert.Equal(t, realtime.EventNewNotification, msg.Event)
	data, ok := msg.Data.(realtime.NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, notification.ID, data.ID)
	assert.Equal(t, "hello", data.Message)
	assert.False(t, data.IsRead)
}

func TestNotifyUserStoreFailureSuppressesPush(t *testing.T) {
	svc, users, notifications, pusher, _ := newNotificationFixture(t)
	user := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)
	notifications.failCreate = true

	_, err := svc.NotifyUser(context.Background(), user.ID, "hello", domain.NotificationTypeApplicationUpdate, nil)
	require.Error(t, err)
	assert.Empty(t, pusher.records())
}

func TestNotifyAdminsCreatesRowPerAdmin(t *testing.T) {
	svc, users, _, pusher, _ := newNotificationFixture(t)
	seedUser(t, users, "Eve", "User", "eve@example.com", domain.RoleUser)
	adminOne := seedUser(t, users, "Alan", "Turing", "alan@example.com", domain.RoleAdmin)
	adminTwo := seedUser(t, users, "Grace", "Hopper", "grace@example.com", domain.RoleAdmin)

	created, err := svc.NotifyAdmins(context.Background(), "new thing", domain.NotificationTypeNewApplication, nil)
	require.NoError(t, err)
	require.Len(t, created, 2)

	recipients := []int64{created[0].UserID, created[1].UserID}
	assert.ElementsMatch(t, []int64{adminOne.ID, adminTwo.ID}, recipients)

	// One broadcast to the admin group, regardless of admin count.
	records := pusher.records()
	require.Len(t, records, 1)
	assert.Equal(t, "group:"+realtime.GroupAdmins, records[0].target)
}

func TestNotifyAdminsWithoutAdminsStillSucceeds(t *testing.T) {
	svc, users, _, _, _ := newNotificationFixture(t)
	seedUser(t, users, "Eve", "User", "eve@example.com", domain.RoleUser)

	created, err := svc.NotifyAdmins(context.Background(), "new thing", domain.NotificationTypeNewApplication, nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestListNewestFirst(t *testing.T) {
	svc, users, _, _, _ := newNotificationFixture(t)
	user := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)

	first, err := svc.NotifyUser(context.Background(), user.ID, "first", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)
	second, err := svc.NotifyUser(context.Background(), user.ID, "second", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)

	listed, err := svc.List(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, users, _, _, _ := newNotificationFixture(t)
	user := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)
	notification, err := svc.NotifyUser(context.Background(), user.ID, "hello", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)

	once, err := svc.MarkRead(context.Background(), notification.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, once.IsRead)

	twice, err := svc.MarkRead(context.Background(), notification.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMarkReadRequiresOwnership(t *testing.T) {
	svc, users, _, _, _ := newNotificationFixture(t)
	owner := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)
	other := seedUser(t, users, "Eve", "User", "eve@example.com", domain.RoleUser)
	notification, err := svc.NotifyUser(context.Background(), owner.ID, "hello", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), notification.ID, other.ID)
	require.Error(t, err)
}

func TestMarkAllReadScopedToCaller(t *testing.T) {
	svc, users, _, _, _ := newNotificationFixture(t)
	owner := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)
	other := seedUser(t, users, "Eve", "User", "eve@example.com", domain.RoleUser)

	for i := 0; i < 3; i++ {
		_, err := svc.NotifyUser(context.Background(), owner.ID, "msg", domain.NotificationTypeApplicationUpdate, nil)
		require.NoError(t, err)
	}
	foreign, err := svc.NotifyUser(context.Background(), other.ID, "msg", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkAllRead(context.Background(), owner.ID))

	ownerRows, err := svc.List(context.Background(), owner.ID)
	require.NoError(t, err)
	for _, row := range ownerRows {
		assert.True(t, row.IsRead)
	}

	otherRows, err := svc.List(context.Background(), other.ID)
	require.NoError(t, err)
	require.Len(t, otherRows, 1)
	assert.Equal(t, foreign.ID, otherRows[0].ID)
	assert.False(t, otherRows[0].IsRead)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, users, _, _, _ := newNotificationFixture(t)
	user := seedUser(t, users, "Ada", "Lovelace", "ada@example.com", domain.RoleUser)
	notification, err := svc.NotifyUser(context.Background(), user.ID, "hello", domain.NotificationTypeApplicationUpdate, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), notification.ID, user.ID))
	require.NoError(t, svc.Delete(context.Background(), notification.ID, user.ID))

	listed, err := svc.List(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
