// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	repository "github.com/unowhq/forma/internal/adapters/repository"
	service "github.com/unowhq/forma/internal/app"
	"github.com/unowhq/forma/internal/auth"
	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/internal/domain/pincode"
	"github.com/unowhq/forma/internal/domain/types"
)

// validate checks request payload struct tags.
var validate = validator.New()

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AuthDependencies
	CourseDependencies
	AttendanceDependencies
	FeedbackDependencies
	ValidationDependencies
	EvaluationDependencies
	StatisticsDependencies
	UserDependencies
	EnrollmentDependencies
	NotificationDependencies
	HistoryDependencies
}

// AuthDependencies covers account registration and the PIN login flow.
type AuthDependencies interface {
	Signup(ctx context.Context, u model.User, password string) (model.User, error)
	Login(ctx context.Context, email, password string) error
	VerifyPIN(ctx context.Context, email, pin string) (auth.TokenPair, model.User, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	UserProfile(ctx context.Context, id string) (model.User, error)
}

// CourseDependencies covers course and session management.
type CourseDependencies interface {
	CreateCourse(ctx context.Context, c model.Course) (model.Course, error)
	Course(ctx context.Context, id string) (model.Course, error)
	Courses(ctx context.Context) ([]model.Course, error)
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
}

// AttendanceDependencies covers sign-offs and presence rulings.
type AttendanceDependencies interface {
	SignAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	AttendanceForUser(ctx context.Context, subjectID string) ([]model.AttendanceRecord, error)
	ValidateAttendance(ctx context.Context, trainerID, attendanceID string, present bool) (model.AttendanceRecord, error)
}

// FeedbackDependencies covers session feedback.
type FeedbackDependencies interface {
	SubmitFeedback(ctx context.Context, rec model.FeedbackRecord) (model.FeedbackRecord, error)
	FeedbackForUser(ctx context.Context, subjectID string) ([]model.FeedbackRecord, error)
}

// ValidationDependencies covers skill self-assessments.
type ValidationDependencies interface {
	SubmitValidation(ctx context.Context, rec model.SkillValidationRecord) (model.SkillValidationRecord, error)
	ValidationForAttendance(ctx context.Context, subjectID, attendanceID string) (model.SkillValidationRecord, error)
	ValidationProgress(ctx context.Context, subjectID string) ([]types.ValidationProgress, error)
}

// EvaluationDependencies covers trainer self-evaluations.
type EvaluationDependencies interface {
	SubmitTrainerEvaluation(ctx context.Context, ev model.TrainerEvaluation) (model.TrainerEvaluation, error)
	TrainerEvaluation(ctx context.Context, trainerID, courseID string) (types.EvaluationSummary, error)
}

// StatisticsDependencies covers the dashboard aggregates.
type StatisticsDependencies interface {
	TrainerStats(ctx context.Context, trainerID string) ([]types.CourseStats, error)
	LearnerStats(ctx context.Context, learnerID string) (types.LearnerStats, error)
	AdminStats(ctx context.Context) ([]types.AdminCourseStats, error)
	GlobalStats(ctx context.Context) (types.GlobalStats, error)
}

// UserDependencies covers admin account management.
type UserDependencies interface {
	ListUsers(ctx context.Context, role model.Role) ([]model.User, error)
	UpdateUserProfile(ctx context.Context, actorID string, u model.User) (model.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
}

// EnrollmentDependencies covers the participant request workflow.
type EnrollmentDependencies interface {
	RequestEnrollment(ctx context.Context, req model.EnrollmentRequest) (model.EnrollmentRequest, error)
	EnrollmentRequests(ctx context.Context) ([]model.EnrollmentRequest, error)
	RespondEnrollment(ctx context.Context, actorID, requestID string, approve bool, reason string) (model.EnrollmentRequest, error)
}

// NotificationDependencies covers in-app notifications.
type NotificationDependencies interface {
	Notifications(ctx context.Context, recipientID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, id string) (model.Notification, error)
}

// HistoryDependencies covers the audit trail.
type HistoryDependencies interface {
	History(ctx context.Context, limit int) ([]model.HistoryEntry, error)
}

// TokenParser validates bearer tokens for the auth middleware.
type TokenParser interface {
	Parse(tokenString string) (*auth.Claims, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	authHandler         *AuthHandler
	courseHandler       *CourseHandler
	attendanceHandler   *AttendanceHandler
	feedbackHandler     *FeedbackHandler
	validationHandler   *ValidationHandler
	evaluationHandler   *EvaluationHandler
	statisticsHandler   *StatisticsHandler
	userHandler         *UserHandler
	enrollmentHandler   *EnrollmentHandler
	notificationHandler *NotificationHandler
	historyHandler      *HistoryHandler
	parser              TokenParser
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, parser TokenParser) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		authHandler:         NewAuthHandler(deps),
		courseHandler:       NewCourseHandler(deps),
		attendanceHandler:   NewAttendanceHandler(deps),
		feedbackHandler:     NewFeedbackHandler(deps),
		validationHandler:   NewValidationHandler(deps),
		evaluationHandler:   NewEvaluationHandler(deps),
		statisticsHandler:   NewStatisticsHandler(deps),
		userHandler:         NewUserHandler(deps),
		enrollmentHandler:   NewEnrollmentHandler(deps),
		notificationHandler: NewNotificationHandler(deps),
		historyHandler:      NewHistoryHandler(deps),
		parser:              parser,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	authed := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(AuthMiddleware(s.parser, h), endpoint)
	}
	role := func(h http.HandlerFunc, endpoint string, roles ...model.Role) http.HandlerFunc {
		return MetricsMiddleware(AuthMiddleware(s.parser, RequireRole(h, roles...)), endpoint)
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/auth/signup", MetricsMiddleware(s.authHandler.HandleSignup, "auth_signup"))
	mux.HandleFunc("/api/auth/login", MetricsMiddleware(s.authHandler.HandleLogin, "auth_login"))
	mux.HandleFunc("/api/auth/verify-pin", MetricsMiddleware(s.authHandler.HandleVerifyPIN, "auth_verify_pin"))
	mux.HandleFunc("/api/auth/refresh", MetricsMiddleware(s.authHandler.HandleRefresh, "auth_refresh"))
	mux.HandleFunc("/api/users/me", authed(s.authHandler.HandleProfile, "users_me"))
	mux.HandleFunc("/api/users/learners", role(s.userHandler.HandleLearners, "users_learners", model.RoleAdmin))
	mux.HandleFunc("/api/users/trainers", role(s.userHandler.HandleTrainers, "users_trainers", model.RoleAdmin))
	mux.HandleFunc("/api/users/", role(s.userHandler.HandleUser, "users_manage", model.RoleAdmin))

	mux.HandleFunc("/api/courses", authed(s.courseHandler.HandleCourses, "courses"))
	mux.HandleFunc("/api/sessions", role(s.courseHandler.HandleCreateSession, "sessions", model.RoleTrainer, model.RoleAdmin))

	mux.HandleFunc("/api/attendance/sign", role(s.attendanceHandler.HandleSign, "attendance_sign", model.RoleLearner))
	mux.HandleFunc("/api/attendance/user", authed(s.attendanceHandler.HandleForUser, "attendance_user"))
	mux.HandleFunc("/api/attendance/", role(s.attendanceHandler.HandleValidate, "attendance_validate", model.RoleTrainer))

	mux.HandleFunc("/api/feedback/submit", role(s.feedbackHandler.HandleSubmit, "feedback_submit", model.RoleLearner))
	mux.HandleFunc("/api/feedback/user", authed(s.feedbackHandler.HandleForUser, "feedback_user"))

	mux.HandleFunc("/api/validation/submit", role(s.validationHandler.HandleSubmit, "validation_submit", model.RoleLearner))
	mux.HandleFunc("/api/validation/progress", authed(s.validationHandler.HandleProgress, "validation_progress"))
	mux.HandleFunc("/api/validation/attendance/", authed(s.validationHandler.HandleForAttendance, "validation_attendance"))

	mux.HandleFunc("/api/trainer/evaluation/submit", role(s.evaluationHandler.HandleSubmit, "evaluation_submit", model.RoleTrainer))
	mux.HandleFunc("/api/trainer/evaluation/", role(s.evaluationHandler.HandleGet, "evaluation_get", model.RoleTrainer))

	mux.HandleFunc("/api/stats/trainer", role(s.statisticsHandler.HandleTrainer, "stats_trainer", model.RoleTrainer))
	mux.HandleFunc("/api/stats/learner", role(s.statisticsHandler.HandleLearner, "stats_learner", model.RoleLearner))
	mux.HandleFunc("/api/stats/admin", role(s.statisticsHandler.HandleAdmin, "stats_admin", model.RoleAdmin))
	mux.HandleFunc("/api/stats/admin/global", role(s.statisticsHandler.HandleGlobal, "stats_global", model.RoleAdmin))

	mux.HandleFunc("/api/enrollment/request", role(s.enrollmentHandler.HandleRequest, "enrollment_request", model.RoleTrainer))
	mux.HandleFunc("/api/enrollment/requests", role(s.enrollmentHandler.HandleRequests, "enrollment_requests", model.RoleAdmin))
	mux.HandleFunc("/api/enrollment/", role(s.enrollmentHandler.HandleRespond, "enrollment_respond", model.RoleAdmin))

	mux.HandleFunc("/api/notifications", authed(s.notificationHandler.HandleList, "notifications"))
	mux.HandleFunc("/api/notifications/", authed(s.notificationHandler.HandleRead, "notification_read"))

	mux.HandleFunc("/api/history", role(s.historyHandler.HandleHistory, "history", model.RoleAdmin))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service and store errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var vErr *model.ValidationError
	var fieldErrs validator.ValidationErrors

	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, "validation_error", err)
	case errors.As(err, &fieldErrs):
		field := "payload"
		if len(fieldErrs) > 0 {
			field = fieldErrs[0].Field()
		}
		writeError(w, http.StatusBadRequest, "validation_error", model.Invalid(field, "failed validation"))
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, auth.ErrBadCredentials), errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, pincode.ErrNoPIN), errors.Is(err, pincode.ErrExpired),
		errors.Is(err, pincode.ErrMismatch), errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrAuditBackpressure), errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// pathParam extracts the trailing path segment after a route prefix.
func pathParam(r *http.Request, prefix string) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
}
