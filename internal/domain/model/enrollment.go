package model

import "time"

// EnrollmentStatus tracks where a participant request stands.
type EnrollmentStatus string

// Known enrollment statuses.
const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// EnrollmentRequest is a trainer's request to add a participant to a
// course. Requests start pending and are resolved by an admin.
type EnrollmentRequest struct {
	ID              string
	CourseID        string
	RequestedBy     string // trainer user ID
	Email           string
	Phone           string
	Status          EnrollmentStatus
	RejectionReason string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Notification is an in-app message tied to an enrollment request.
type Notification struct {
	ID          string
	RecipientID string
	RequestID   string
	Message     string
	Read        bool
	CreatedAt   time.Time
}
