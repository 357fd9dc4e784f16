package events

import (
	"time"

	"github.com/spec-kit/financing-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationSubmitted     EventType = "application_submitted"
	EventApplicationStatusChanged EventType = "application_status_changed"
	EventUserLoggedOut            EventType = "user_logged_out"
)

// Event represents a domain event emitted by services. Events are
// observational; notification dispatch never depends on them.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    int64       `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ApplicationID int64  `json:"application_id"`
	ServiceName   string `json:"service_name"`
}

// ApplicationStatusChangedPayload payload.
type ApplicationStatusChangedPayload struct {
	ApplicationID int64                    `json:"application_id"`
	OldStatus     domain.ApplicationStatus `json:"old_status"`
	NewStatus     domain.ApplicationStatus `json:"new_status"`
}

// UserLoggedOutPayload payload.
type UserLoggedOutPayload struct {
	TokenID string `json:"token_id"`
}
