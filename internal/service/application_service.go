package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/financing-service/internal/domain"
	"github.com/spec-kit/financing-service/internal/events"
	"github.com/spec-kit/financing-service/internal/repository"
	apperrors "github.com/spec-kit/financing-service/pkg/util"
)

// ApplicationSubmitInput describes a new financing application.
type ApplicationSubmitInput struct {
	ServiceName string
	Reason      string
	PaymentPlan string
}

// ApplicationService coordinates financing application workflows and the
// notifications their state changes produce.
type ApplicationService struct {
	applications repository.ApplicationRepository
	notifier     *NotificationService
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(applications repository.ApplicationRepository, notifier *NotificationService, dispatcher events.Dispatcher, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		notifier:     notifier,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// Submit creates a pending application and notifies all administrators.
// A notification persistence failure fails the submission itself.
func (s *ApplicationService) Submit(ctx context.Context, identity *domain.Identity, input ApplicationSubmitInput) (*domain.Application, error) {
	if input.ServiceName == "" || input.Reason == "" || input.PaymentPlan == "" {
		return nil, apperrors.NewValidationError("service_name, reason and payment_plan required", nil)
	}

	application := &domain.Application{
		UserID:      identity.UserID,
		ServiceName: input.ServiceName,
		Reason:      input.Reason,
		PaymentPlan: input.PaymentPlan,
		Status:      domain.ApplicationStatusPending,
	}
	if err := s.applications.Create(ctx, application); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("New application submitted: %q by %s %s",
		application.ServiceName, identity.FirstName, identity.LastName)
	if _, err := s.notifier.NotifyAdmins(ctx, message, domain.NotificationTypeNewApplication, &application.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventApplicationSubmitted, identity.UserID, events.ApplicationSubmittedPayload{
		ApplicationID: application.ID,
		ServiceName:   application.ServiceName,
	})
	return application, nil
}

// ListMine returns the caller's applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, userID int64) ([]domain.Application, error) {
	return s.applications.ListByUser(ctx, userID)
}

// ListAll returns every application joined with requester contact
// fields. One operation backs both admin access paths.
func (s *ApplicationService) ListAll(ctx context.Context) ([]domain.ApplicationWithRequester, error) {
	return s.applications.ListAll(ctx)
}

// UpdateStatus reviews an application and notifies its owner. The
// notification row is written before any push; if it cannot be written
// the status update call fails rather than partially succeeding.
func (s *ApplicationService) UpdateStatus(ctx context.Context, reviewer *domain.Identity, id int64, status domain.ApplicationStatus) (*domain.Application, error) {
	if !status.TerminalStatus() {
		return nil, apperrors.NewValidationError("status must be approved or rejected", map[string]any{"status": status})
	}

	existing, err := s.applications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("application", map[string]any{"id": id})
		}
		return nil, err
	}

	application, err := s.applications.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Your application for %q has been %s", application.ServiceName, status)
	if _, err := s.notifier.NotifyUser(ctx, application.UserID, message, domain.NotificationTypeApplicationUpdate, &application.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventApplicationStatusChanged, reviewer.UserID, events.ApplicationStatusChangedPayload{
		ApplicationID: application.ID,
		OldStatus:     existing.Status,
		NewStatus:     application.Status,
	})
	return application, nil
}

func (s *ApplicationService) publish(ctx context.Context, eventType events.EventType, userID int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
