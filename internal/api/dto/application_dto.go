package dto

import (
	"time"

	"github.com/spec-kit/financing-service/internal/domain"
)

// SubmitApplicationRequest payload for new financing applications.
type SubmitApplicationRequest struct {
	ServiceName string `json:"service_name"`
	Reason      string `json:"reason"`
	PaymentPlan string `json:"payment_plan"`
}

// UpdateStatusRequest payload for application review.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ApplicationResponse is the owner's view of an application.
type ApplicationResponse struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ServiceName string    `json:"service_name"`
	Reason      string    `json:"reason"`
	PaymentPlan string    `json:"payment_plan"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewApplicationResponse maps a domain application.
func NewApplicationResponse(app *domain.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:          app.ID,
		UserID:      app.UserID,
		ServiceName: app.ServiceName,
		Reason:      app.Reason,
		PaymentPlan: app.PaymentPlan,
		Status:      string(app.Status),
		CreatedAt:   app.CreatedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}

// NewApplicationResponses maps a slice of domain applications.
func NewApplicationResponses(apps []domain.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		out = append(out, NewApplicationResponse(&apps[i]))
	}
	return out
}

// ApplicationWithRequesterResponse joins requester contact fields for
// admin listings.
type ApplicationWithRequesterResponse struct {
	ApplicationResponse
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// NewApplicationWithRequesterResponses maps admin listing rows.
func NewApplicationWithRequesterResponses(apps []domain.ApplicationWithRequester) []ApplicationWithRequesterResponse {
	out := make([]ApplicationWithRequesterResponse, 0, len(apps))
	for i := range apps {
		out = append(out, ApplicationWithRequesterResponse{
			ApplicationResponse: NewApplicationResponse(&apps[i].Application),
			FirstName:           apps[i].FirstName,
			LastName:            apps[i].LastName,
			Email:               apps[i].Email,
		})
	}
	return out
}
