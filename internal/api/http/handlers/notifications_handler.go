package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/financing-service/internal/api/dto"
	"github.com/spec-kit/financing-service/internal/auth"
	"github.com/spec-kit/financing-service/internal/service"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

// NotificationsHandler exposes the durable notification endpoints; this
// pull path is the reconciliation fallback when the realtime push was
// missed.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// List handles GET /api/notifications, newest first.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	notifications, err := h.notifications.List(c.Context(), identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"notifications": dto.NewNotificationResponses(notifications)},
	})
}

// MarkRead handles PATCH /api/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.notifications.MarkRead(c.Context(), id, identity.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"notification": dto.NewNotificationResponse(notification)},
	})
}

// MarkAllRead handles PATCH /api/notifications/mark-all-read, scoped to
// the caller's identity.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	if err := h.notifications.MarkAllRead(c.Context(), identity.UserID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "all notifications marked as read"}})
}

// Delete handles DELETE /api/notifications/:id. Deleting an absent row
// is a no-op success.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid notification id")
	}

	if err := h.notifications.Delete(c.Context(), id, identity.UserID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "notification deleted"}})
}
