package model

import "time"

// AttendanceRecord ties a subject to a session. Present is tri-state:
// nil means the trainer has not ruled yet; aggregations must decide
// explicitly whether pending records count.
type AttendanceRecord struct {
	ID          string
	SubjectID   string
	SessionID   string
	Present     *bool
	SignedAt    time.Time
	ValidatedAt *time.Time
}

// Resolved reports whether the trainer has ruled on presence.
func (a AttendanceRecord) Resolved() bool { return a.Present != nil }

// IsPresent reports a confirmed presence. Pending records are not present.
func (a AttendanceRecord) IsPresent() bool { return a.Present != nil && *a.Present }
