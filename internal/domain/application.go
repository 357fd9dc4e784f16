package domain

import "time"

// ApplicationStatus enumerates lifecycle states for financing applications.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// TerminalStatus reports whether the status is a valid review outcome.
func (s ApplicationStatus) TerminalStatus() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Application is the aggregate for financing requests submitted by users.
type Application struct {
	ID          int64
	UserID      int64
	ServiceName string
	Reason      string
	PaymentPlan string
	Status      ApplicationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationWithRequester joins requester contact fields for admin listings.
type ApplicationWithRequester struct {
	Application
	FirstName string
	LastName  string
	Email     string
}
