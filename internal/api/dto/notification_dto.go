package dto

import (
	"time"

	"github.com/spec-kit/financing-service/internal/domain"
)

// NotificationResponse mirrors the durable row, including its current
// read state for the pull path.
type NotificationResponse struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	IsRead        bool      `json:"is_read"`
	ApplicationID *int64    `json:"application_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewNotificationResponse maps a domain notification.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		UserID:        n.UserID,
		Message:       n.Message,
		Type:          string(n.Type),
		IsRead:        n.IsRead,
		ApplicationID: n.ApplicationID,
		CreatedAt:     n.CreatedAt,
	}
}

// NewNotificationResponses maps a slice of domain notifications.
func NewNotificationResponses(notifications []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for i := range notifications {
		out = append(out, NewNotificationResponse(&notifications[i]))
	}
	return out
}
