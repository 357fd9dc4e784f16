package realtime

import (
	"time"

	"github.com/spec-kit/financing-service/internal/domain"
)

// EventNewNotification is the single server->client event name; direct
// and broadcast deliveries share it.
const EventNewNotification = "new_notification"

// Message is the envelope written to the transport.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NotificationPayload mirrors the durable notification row. Broadcast
// deliveries omit id and user_id since each group member owns its own
// row; the listing endpoint reconciles identities.
type NotificationPayload struct {
	ID            int64     `json:"id,omitempty"`
	Message       string    `json:"message"`
	Type          string    `json:"type"`
	IsRead        bool      `json:"is_read"`
	UserID        int64     `json:"user_id,omitempty"`
	ApplicationID *int64    `json:"application_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NotificationMessage wraps a persisted notification for direct delivery.
func NotificationMessage(n *domain.Notification) Message {
	return Message{
		Event: EventNewNotification,
		Data: NotificationPayload{
			ID:            n.ID,
			Message:       n.Message,
			Type:          string(n.Type),
			IsRead:        n.IsRead,
			UserID:        n.UserID,
			ApplicationID: n.ApplicationID,
			CreatedAt:     n.CreatedAt,
		},
	}
}

// BroadcastMessage wraps a notification body for group delivery, without
// binding it to any single recipient's row.
func BroadcastMessage(message string, notifType domain.NotificationType, applicationID *int64, createdAt time.Time) Message {
	return Message{
		Event: EventNewNotification,
		Data: NotificationPayload{
			Message:       message,
			Type:          string(notifType),
			IsRead:        false,
			ApplicationID: applicationID,
			CreatedAt:     createdAt,
		},
	}
}
