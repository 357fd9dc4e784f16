package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/events"
)

// AuditService logs domain events for operational visibility. It is
// purely observational: notification dispatch and persistence never
// depend on it, and a handler error never affects the emitting action.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventApplicationSubmitted, a.handleEvent)
	a.dispatcher.Subscribe(events.EventApplicationStatusChanged, a.handleEvent)
	a.dispatcher.Subscribe(events.EventUserLoggedOut, a.handleEvent)
}

func (a *AuditService) handleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info("domain event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("user_id", event.UserID),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}
