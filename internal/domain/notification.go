package domain

import "time"

// NotificationType tags the event that produced a notification.
type NotificationType string

const (
	NotificationTypeApplicationUpdate NotificationType = "application_update"
	NotificationTypeNewApplication    NotificationType = "new_application"
)

// Notification is the durable record of an event directed at one
// recipient. Message, type, recipient and application reference are
// immutable once created; only IsRead transitions, and only false->true.
type Notification struct {
	ID            int64
	UserID        int64
	Message       string
	Type          NotificationType
	IsRead        bool
	ApplicationID *int64
	CreatedAt     time.Time
}
