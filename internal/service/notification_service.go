package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/realtime"
	"github.com/spec-kit/financing-service/internal/repository"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

// Pusher is the realtime delivery surface the dispatcher needs. It is
// fire-and-forget: calls return once payloads are handed to the
// transport, never waiting for acknowledgment. *realtime.Hub satisfies it.
type Pusher interface {
	SendToSubject(subjectID int64, payload any)
	SendToGroup(groupKey string, payload any)
}

// NotificationService persists notifications and pushes them to live
// connections. Persistence happens before any push: a client that pulls
// the store right after a push always finds the backing row, and a
// failed insert means no push at all.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	pusher        Pusher
	logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, users repository.UserRepository, pusher Pusher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		pusher:        pusher,
		logger:        logger,
	}
}

// NotifyUser records one notification for the subject and pushes it to
// every live connection owned by that subject. A persistence failure
// aborts the push and propagates to the triggering action.
func (s *NotificationService) NotifyUser(ctx context.Context, userID int64, message string, notifType domain.NotificationType, applicationID *int64) (*domain.Notification, error) {
	notification := &domain.Notification{
		UserID:        userID,
		Message:       message,
		Type:          notifType,
		ApplicationID: applicationID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}

	s.pusher.SendToSubject(userID, realtime.NotificationMessage(notification))
	return notification, nil
}

// NotifyAdmins records one notification row per currently known
// administrator, then broadcasts once to the admin group. Recipients are
// looked up from the identity store, not the connection registry, so
// offline admins still get their durable row.
func (s *NotificationService) NotifyAdmins(ctx context.Context, message string, notifType domain.NotificationType, applicationID *int64) ([]domain.Notification, error) {
	admins, err := s.users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	created := make([]domain.Notification, 0, len(admins))
	for _, admin := range admins {
		notification := &domain.Notification{
			UserID:        admin.ID,
			Message:       message,
			Type:          notifType,
			ApplicationID: applicationID,
		}
		if err := s.notifications.Create(ctx, notification); err != nil {
			return nil, err
		}
		created = append(created, *notification)
	}

	s.pusher.SendToGroup(realtime.GroupAdmins, realtime.BroadcastMessage(message, notifType, applicationID, time.Now()))
	return created, nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.notifications.ListByUser(ctx, userID)
}

// MarkRead flips the read flag on a notification owned by the caller.
// Idempotent: marking an already-read row returns the same terminal state.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) (*domain.Notification, error) {
	notification, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("notification", map[string]any{"id": id})
		}
		return nil, err
	}
	return notification, nil
}

// MarkAllRead flips the read flag on every row owned by the caller.
// Rows owned by other users are untouched.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	updated, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Debug("notifications marked read",
		zap.Int64("user_id", userID),
		zap.Int64("updated", updated))
	return nil
}

// Delete removes a notification owned by the caller. Deleting an absent
// or already-deleted row is a no-op success.
func (s *NotificationService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.notifications.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		s.logger.Debug("delete notification no-op",
			zap.Int64("id", id),
			zap.Int64("user_id", userID))
	}
	return nil
}
