// Package repository defines the domain store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// UserStore provides access to user accounts.
type UserStore interface {
	// CreateUser stores a new user. Fails with ErrDuplicate when the
	// email is taken.
	CreateUser(ctx context.Context, u model.User) error

	// UserByEmail returns the user for an email, or ErrNotFound.
	UserByEmail(ctx context.Context, email string) (model.User, error)

	// UserByID returns the user for an ID, or ErrNotFound.
	UserByID(ctx context.Context, id string) (model.User, error)

	// UpdateUser overwrites a stored user, matched by ID.
	UpdateUser(ctx context.Context, u model.User) error

	// DeleteUser removes a user, or ErrNotFound.
	DeleteUser(ctx context.Context, id string) error

	// UsersByRole returns every user holding a role, ordered by
	// creation time.
	UsersByRole(ctx context.Context, role model.Role) []model.User

	// CountByRole returns how many users hold each role.
	CountByRole(ctx context.Context) map[model.Role]int
}

// CourseStore provides access to courses and their sessions.
type CourseStore interface {
	CreateCourse(ctx context.Context, c model.Course) error
	CourseByID(ctx context.Context, id string) (model.Course, error)
	Courses(ctx context.Context) []model.Course
	CoursesByTrainer(ctx context.Context, trainerID string) []model.Course

	// CreateSession stores a session. The owning course must exist.
	CreateSession(ctx context.Context, s model.Session) error
	SessionByID(ctx context.Context, id string) (model.Session, error)
	SessionsByCourse(ctx context.Context, courseID string) []model.Session
}

// AttendanceStore provides access to attendance records.
type AttendanceStore interface {
	// CreateAttendance stores a sign-off. The session must exist and a
	// subject can hold at most one record per session.
	CreateAttendance(ctx context.Context, a model.AttendanceRecord) error
	AttendanceByID(ctx context.Context, id string) (model.AttendanceRecord, error)
	AttendanceBySubject(ctx context.Context, subjectID string) []model.AttendanceRecord
	AttendanceBySession(ctx context.Context, sessionID string) []model.AttendanceRecord
	AttendanceByCourse(ctx context.Context, courseID string) []model.AttendanceRecord

	// SetPresence records the trainer's ruling on a sign-off.
	SetPresence(ctx context.Context, id string, present bool, at time.Time) error
}

// FeedbackStore provides access to feedback records.
type FeedbackStore interface {
	// UpsertFeedback stores or overwrites the record for the
	// (subject, attendance) pair. Returns true when newly created.
	UpsertFeedback(ctx context.Context, f model.FeedbackRecord) (bool, error)
	FeedbackByAttendance(ctx context.Context, subjectID, attendanceID string) (model.FeedbackRecord, error)
	FeedbackBySubject(ctx context.Context, subjectID string) []model.FeedbackRecord
	FeedbackByCourse(ctx context.Context, courseID string) []model.FeedbackRecord
}

// ValidationStore provides access to skill validation records.
type ValidationStore interface {
	// UpsertValidation stores or overwrites the record for the
	// (subject, attendance) pair. Returns true when newly created.
	UpsertValidation(ctx context.Context, v model.SkillValidationRecord) (bool, error)
	ValidationByAttendance(ctx context.Context, subjectID, attendanceID string) (model.SkillValidationRecord, error)
	ValidationsBySubject(ctx context.Context, subjectID string) []model.SkillValidationRecord
	ValidationsByCourse(ctx context.Context, courseID string) []model.SkillValidationRecord
}

// EvaluationStore provides access to trainer self-evaluations.
type EvaluationStore interface {
	// UpsertEvaluation stores or overwrites the evaluation for the
	// (trainer, course) pair. Returns true when newly created.
	UpsertEvaluation(ctx context.Context, e model.TrainerEvaluation) (bool, error)
	EvaluationByTrainerCourse(ctx context.Context, trainerID, courseID string) (model.TrainerEvaluation, error)
}

// EnrollmentStore provides access to participant requests and their
// notifications.
type EnrollmentStore interface {
	// CreateEnrollmentRequest stores a pending request. The course
	// must exist.
	CreateEnrollmentRequest(ctx context.Context, r model.EnrollmentRequest) error
	EnrollmentRequestByID(ctx context.Context, id string) (model.EnrollmentRequest, error)
	EnrollmentRequests(ctx context.Context) []model.EnrollmentRequest

	// UpdateEnrollmentRequest overwrites a stored request, matched by
	// ID.
	UpdateEnrollmentRequest(ctx context.Context, r model.EnrollmentRequest) error

	CreateNotification(ctx context.Context, n model.Notification) error
	NotificationsByRecipient(ctx context.Context, recipientID string) []model.Notification
	NotificationByID(ctx context.Context, id string) (model.Notification, error)

	// MarkNotificationRead flips the read flag, or ErrNotFound.
	MarkNotificationRead(ctx context.Context, id string) (model.Notification, error)
}

// HistoryStore provides access to the audit trail.
type HistoryStore interface {
	// AppendHistory adds an audit entry.
	AppendHistory(ctx context.Context, h model.HistoryEntry) error

	// History returns up to limit entries, newest first. A zero or
	// negative limit fails with ErrInvalidLimit.
	History(ctx context.Context, limit int) ([]model.HistoryEntry, error)

	// HistoryCount returns the number of retained entries.
	HistoryCount(ctx context.Context) int
}

// Store is the full domain store the service layer builds on.
type Store interface {
	UserStore
	CourseStore
	AttendanceStore
	FeedbackStore
	ValidationStore
	EvaluationStore
	EnrollmentStore
	HistoryStore
}
