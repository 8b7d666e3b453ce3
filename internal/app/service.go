// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unowhq/forma/internal/adapters/mailer"
	auditqueue "github.com/unowhq/forma/internal/adapters/mq/queue"
	workerpool "github.com/unowhq/forma/internal/adapters/mq/worker"
	repository "github.com/unowhq/forma/internal/adapters/repository"
	"github.com/unowhq/forma/internal/auth"
	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/internal/domain/pincode"
	"github.com/unowhq/forma/internal/domain/stats"
	"github.com/unowhq/forma/internal/domain/types"
	"github.com/unowhq/forma/pkg/logger"
	"github.com/unowhq/forma/pkg/metrics"
)

const trendMonths = 6

// Service implements the API dependencies for the training platform.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	pins       pincode.Store
	issuer     *auth.Issuer
	mail       mailer.Mailer
	auditQueue auditqueue.Queue
	workerPool *workerpool.Pool

	// Aggregators
	attendance *stats.AttendanceAggregator
	feedback   *stats.FeedbackAggregator
	skills     *stats.SkillProgressAggregator

	// Composite scoring
	courseScorer  *stats.CompositeScorer
	trainerScorer *stats.CompositeScorer

	// Configuration
	workerCount        int
	queueSize          int
	historyCapacity    int
	maxHistoryLimit    int
	pinTTL             time.Duration
	jwtSecret          string
	feedbackScale      float64
	countPending       bool
	adminWeights       map[string]float64
	participantWeights map[string]float64

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of audit recorder goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the audit queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithHistoryCapacity caps how many audit entries are retained.
func WithHistoryCapacity(capacity int) Option {
	return func(s *Service) {
		s.historyCapacity = capacity
	}
}

// WithMaxHistoryLimit caps the limit accepted by History.
func WithMaxHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxHistoryLimit = limit
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore sets a custom domain store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMailer sets the outgoing message delivery.
func WithMailer(m mailer.Mailer) Option {
	return func(s *Service) {
		if m != nil {
			s.mail = m
		}
	}
}

// WithIssuer sets the token issuer.
func WithIssuer(issuer *auth.Issuer) Option {
	return func(s *Service) {
		if issuer != nil {
			s.issuer = issuer
		}
	}
}

// WithJWTSecret sets the signing secret used when no issuer is supplied.
func WithJWTSecret(secret string) Option {
	return func(s *Service) {
		if secret != "" {
			s.jwtSecret = secret
		}
	}
}

// WithPinTTL sets how long a login PIN stays valid.
func WithPinTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.pinTTL = ttl
		}
	}
}

// WithFeedbackScale sets the multiplier applied to feedback averages.
func WithFeedbackScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.feedbackScale = scale
		}
	}
}

// WithPendingAttendanceCounted includes unruled sign-ins in attendance rates.
func WithPendingAttendanceCounted(include bool) Option {
	return func(s *Service) {
		s.countPending = include
	}
}

// WithAdminWeights sets the course composite weighting scheme.
func WithAdminWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.adminWeights = weights
		}
	}
}

// WithParticipantWeights sets the evaluation composite weighting scheme.
func WithParticipantWeights(weights map[string]float64) Option {
	return func(s *Service) {
		if len(weights) > 0 {
			s.participantWeights = weights
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       10_000,
		historyCapacity: 10_000,
		maxHistoryLimit: 500,
		pinTTL:          10 * time.Minute,
		jwtSecret:       "forma-dev-secret",
		feedbackScale:   stats.ScaleRaw,
		countPending:    true,
		adminWeights: map[string]float64{
			"attendance":   0.4,
			"satisfaction": 0.3,
			"validation":   0.3,
		},
		participantWeights: map[string]float64{
			"pedagogy":    0.4,
			"skills":      0.3,
			"environment": 0.2,
			"global":      0.1,
		},
		stopCh: make(chan struct{}),
		logger: nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components. Weight schemes
// are checked here so a bad configuration fails the boot, never a
// request.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting training service...")

	courseScorer, err := stats.NewCompositeScorer(s.adminWeights)
	if err != nil {
		return fmt.Errorf("admin weights: %w", err)
	}
	trainerScorer, err := stats.NewCompositeScorer(s.participantWeights)
	if err != nil {
		return fmt.Errorf("participant weights: %w", err)
	}
	s.courseScorer = courseScorer
	s.trainerScorer = trainerScorer

	if s.issuer == nil {
		issuer, err := auth.NewIssuer(s.jwtSecret)
		if err != nil {
			return fmt.Errorf("token issuer: %w", err)
		}
		s.issuer = issuer
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx,
			repository.WithHistoryCapacity(s.historyCapacity),
		)
	}
	if s.mail == nil {
		s.mail = mailer.NewLogMailer()
	}
	s.pins = pincode.NewMemoryStore(
		pincode.WithTTL(s.pinTTL),
	)
	s.auditQueue = auditqueue.NewInMemoryQueue(
		auditqueue.WithCapacity(s.queueSize),
		auditqueue.WithBufferSize(s.queueSize),
	)

	s.attendance = stats.NewAttendanceAggregator(
		stats.WithPendingCounted(s.countPending),
	)
	s.feedback = stats.NewFeedbackAggregator(
		stats.WithScale(s.feedbackScale),
	)
	s.skills = stats.NewSkillProgressAggregator()

	s.workerPool = workerpool.NewPool(s.workerCount, s.auditQueue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "training service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("pinTTL", s.pinTTL),
		logger.Bool("countPending", s.countPending),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping training service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close queue
	if q, ok := s.auditQueue.(*auditqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	// Stop the PIN sweep goroutine
	if closer, ok := s.pins.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "training service stopped")
}

// audit enqueues an audit entry for asynchronous recording.
func (s *Service) audit(ctx context.Context, action, actorID string, actorRole model.Role, details string) error {
	entry := model.HistoryEntry{
		ID:        uuid.NewString(),
		Action:    action,
		ActorID:   actorID,
		ActorRole: actorRole,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if !s.auditQueue.Enqueue(ctx, entry) {
		s.logger.Warn(ctx, "audit entry dropped",
			logger.String("action", action),
			logger.String("actorID", actorID),
		)
		return ErrAuditBackpressure
	}
	return nil
}

// Signup registers a new user. The password is hashed before storage
// and never persisted in clear text.
func (s *Service) Signup(ctx context.Context, u model.User, password string) (model.User, error) {
	if !u.Role.Valid() {
		return model.User{}, model.Invalid("role", "must be learner, trainer or admin")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.PasswordHash = hash
	u.Verified = false
	u.RefreshToken = ""
	u.CreatedAt = time.Now()

	if err := s.store.CreateUser(ctx, u); err != nil {
		return model.User{}, err
	}

	if err := s.mail.SendWelcome(ctx, u.Email, u.Name); err != nil {
		s.logger.Warn(ctx, "welcome message failed",
			logger.String("email", u.Email),
			logger.Error(err),
		)
	}

	if err := s.audit(ctx, "user_registered", u.ID, u.Role, u.Email); err != nil {
		return u, err
	}
	return u, nil
}

// Login verifies credentials and issues a one-time PIN via the mailer.
// A repeated login replaces any pending PIN for the same email.
func (s *Service) Login(ctx context.Context, email, password string) error {
	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the account exists.
		return auth.ErrBadCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return err
	}

	pin, err := s.pins.Issue(ctx, email)
	if err != nil {
		return fmt.Errorf("issue pin: %w", err)
	}
	metrics.RecordPinIssued()
	metrics.UpdatePendingPins(s.pins.Size())

	if err := s.mail.SendPIN(ctx, email, pin); err != nil {
		return fmt.Errorf("deliver pin: %w", err)
	}

	return s.audit(ctx, "login_pin_issued", u.ID, u.Role, email)
}

// VerifyPIN consumes a pending PIN and issues a token pair. The PIN is
// single use; expired or mismatched codes fail.
func (s *Service) VerifyPIN(ctx context.Context, email, pin string) (auth.TokenPair, model.User, error) {
	if err := s.pins.Consume(ctx, email, pin); err != nil {
		metrics.RecordPinRejected()
		return auth.TokenPair{}, model.User{}, err
	}
	metrics.RecordPinVerified()
	metrics.UpdatePendingPins(s.pins.Size())

	u, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		return auth.TokenPair{}, model.User{}, err
	}

	pair, err := s.issuer.IssuePair(u.ID, u.Role)
	if err != nil {
		return auth.TokenPair{}, model.User{}, fmt.Errorf("issue tokens: %w", err)
	}

	u.Verified = true
	u.RefreshToken = pair.RefreshToken
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return auth.TokenPair{}, model.User{}, err
	}
	metrics.RecordLogin()

	if err := s.audit(ctx, "login", u.ID, u.Role, email); err != nil {
		return pair, u, err
	}
	return pair, u, nil
}

// Refresh exchanges a stored refresh token for a new token pair. The
// presented token must match the one persisted on the user.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.issuer.Parse(refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}

	u, err := s.store.UserByID(ctx, claims.UserID)
	if err != nil {
		return auth.TokenPair{}, auth.ErrInvalidToken
	}
	if u.RefreshToken != refreshToken {
		return auth.TokenPair{}, auth.ErrInvalidToken
	}

	pair, err := s.issuer.IssuePair(u.ID, u.Role)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}

	u.RefreshToken = pair.RefreshToken
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return auth.TokenPair{}, err
	}
	metrics.RecordTokenRefreshed()

	return pair, nil
}

// UserProfile returns the stored account for an ID.
func (s *Service) UserProfile(ctx context.Context, id string) (model.User, error) {
	return s.store.UserByID(ctx, id)
}

// ListUsers returns every account holding a role.
func (s *Service) ListUsers(ctx context.Context, role model.Role) ([]model.User, error) {
	if !role.Valid() {
		return nil, model.Invalid("role", "must be learner, trainer or admin")
	}
	return s.store.UsersByRole(ctx, role), nil
}

// UpdateUserProfile overwrites an account's contact details. The email
// must stay unique across accounts.
func (s *Service) UpdateUserProfile(ctx context.Context, actorID string, u model.User) (model.User, error) {
	if u.Name == "" || u.Email == "" {
		return model.User{}, model.Invalid("user", "name and email are required")
	}
	stored, err := s.store.UserByID(ctx, u.ID)
	if err != nil {
		return model.User{}, err
	}
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Phone = u.Phone
	stored.Country = u.Country
	stored.City = u.City
	if err := s.store.UpdateUser(ctx, stored); err != nil {
		return model.User{}, err
	}

	if err := s.audit(ctx, "user_updated", actorID, model.RoleAdmin, stored.ID); err != nil {
		return stored, err
	}
	return stored, nil
}

// DeleteUser removes an account.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	return s.audit(ctx, "user_deleted", actorID, model.RoleAdmin, id)
}

// RequestEnrollment records a trainer's request to add a participant
// to an owned course and notifies every admin.
func (s *Service) RequestEnrollment(ctx context.Context, req model.EnrollmentRequest) (model.EnrollmentRequest, error) {
	if req.Email == "" {
		return model.EnrollmentRequest{}, model.Invalid("email", "required")
	}
	course, err := s.store.CourseByID(ctx, req.CourseID)
	if err != nil {
		return model.EnrollmentRequest{}, err
	}
	if course.TrainerID != req.RequestedBy {
		return model.EnrollmentRequest{}, fmt.Errorf("%w: course %s is not owned by trainer %s", ErrForbidden, req.CourseID, req.RequestedBy)
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = model.EnrollmentPending
	req.RejectionReason = ""
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := s.store.CreateEnrollmentRequest(ctx, req); err != nil {
		return model.EnrollmentRequest{}, err
	}

	trainerName := req.RequestedBy
	if u, err := s.store.UserByID(ctx, req.RequestedBy); err == nil {
		trainerName = u.Name
	}
	for _, admin := range s.store.UsersByRole(ctx, model.RoleAdmin) {
		n := model.Notification{
			ID:          uuid.NewString(),
			RecipientID: admin.ID,
			RequestID:   req.ID,
			Message:     fmt.Sprintf("new participant request (%s) for course %q by %s", req.Email, course.Title, trainerName),
			CreatedAt:   time.Now(),
		}
		if err := s.store.CreateNotification(ctx, n); err != nil {
			s.logger.Warn(ctx, "admin notification failed",
				logger.String("recipientID", admin.ID),
				logger.Error(err),
			)
		}
	}

	if err := s.audit(ctx, "enrollment_requested", req.RequestedBy, model.RoleTrainer, req.Email); err != nil {
		return req, err
	}
	return req, nil
}

// EnrollmentRequests returns every participant request, oldest first.
func (s *Service) EnrollmentRequests(ctx context.Context) ([]model.EnrollmentRequest, error) {
	return s.store.EnrollmentRequests(ctx), nil
}

// RespondEnrollment resolves a pending participant request. The
// requested participant is mailed the decision and the requesting
// trainer is notified in app. A resolved request cannot be re-resolved.
func (s *Service) RespondEnrollment(ctx context.Context, actorID, requestID string, approve bool, reason string) (model.EnrollmentRequest, error) {
	req, err := s.store.EnrollmentRequestByID(ctx, requestID)
	if err != nil {
		return model.EnrollmentRequest{}, err
	}
	if req.Status != model.EnrollmentPending {
		return model.EnrollmentRequest{}, model.Invalid("status", "request already resolved")
	}

	req.Status = model.EnrollmentApproved
	action := "enrollment_approved"
	if !approve {
		req.Status = model.EnrollmentRejected
		req.RejectionReason = reason
		action = "enrollment_rejected"
	}
	req.UpdatedAt = time.Now()
	if err := s.store.UpdateEnrollmentRequest(ctx, req); err != nil {
		return model.EnrollmentRequest{}, err
	}

	title := req.CourseID
	if course, err := s.store.CourseByID(ctx, req.CourseID); err == nil {
		title = course.Title
	}
	if err := s.mail.SendEnrollmentDecision(ctx, req.Email, title, approve, reason); err != nil {
		s.logger.Warn(ctx, "enrollment decision message failed",
			logger.String("email", req.Email),
			logger.Error(err),
		)
	}

	n := model.Notification{
		ID:          uuid.NewString(),
		RecipientID: req.RequestedBy,
		RequestID:   req.ID,
		Message:     fmt.Sprintf("request %s for %q", req.Status, title),
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Warn(ctx, "trainer notification failed",
			logger.String("recipientID", req.RequestedBy),
			logger.Error(err),
		)
	}

	if err := s.audit(ctx, action, actorID, model.RoleAdmin, req.Email); err != nil {
		return req, err
	}
	return req, nil
}

// Notifications returns a user's in-app notifications, newest first.
func (s *Service) Notifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	return s.store.NotificationsByRecipient(ctx, recipientID), nil
}

// MarkNotificationRead flips the read flag on the caller's own
// notification.
func (s *Service) MarkNotificationRead(ctx context.Context, recipientID, id string) (model.Notification, error) {
	n, err := s.store.NotificationByID(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}
	if n.RecipientID != recipientID {
		return model.Notification{}, fmt.Errorf("%w: notification %s does not belong to user %s", ErrForbidden, id, recipientID)
	}
	return s.store.MarkNotificationRead(ctx, id)
}

// CreateCourse stores a course with its sections.
func (s *Service) CreateCourse(ctx context.Context, c model.Course) (model.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	for i := range c.Sections {
		if c.Sections[i].ID == "" {
			c.Sections[i].ID = uuid.NewString()
		}
		c.Sections[i].CourseID = c.ID
		c.Sections[i].Position = i
	}

	if err := s.store.CreateCourse(ctx, c); err != nil {
		return model.Course{}, err
	}

	if err := s.audit(ctx, "course_created", c.TrainerID, model.RoleTrainer, c.Title); err != nil {
		return c, err
	}
	return c, nil
}

// Course returns a course by ID.
func (s *Service) Course(ctx context.Context, id string) (model.Course, error) {
	return s.store.CourseByID(ctx, id)
}

// Courses returns all courses.
func (s *Service) Courses(ctx context.Context) ([]model.Course, error) {
	return s.store.Courses(ctx), nil
}

// CreateSession schedules a session for an existing course.
func (s *Service) CreateSession(ctx context.Context, sess model.Session) (model.Session, error) {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

// SignAttendance records a subject's sign-off for a session. Presence
// stays pending until a trainer rules on it.
func (s *Service) SignAttendance(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Present = nil
	rec.ValidatedAt = nil
	rec.SignedAt = time.Now()

	if err := s.store.CreateAttendance(ctx, rec); err != nil {
		return model.AttendanceRecord{}, err
	}

	if err := s.audit(ctx, "attendance_signed", rec.SubjectID, model.RoleLearner, rec.SessionID); err != nil {
		return rec, err
	}
	return rec, nil
}

// AttendanceForUser returns a subject's attendance records.
func (s *Service) AttendanceForUser(ctx context.Context, subjectID string) ([]model.AttendanceRecord, error) {
	return s.store.AttendanceBySubject(ctx, subjectID), nil
}

// ValidateAttendance records the trainer's presence ruling. Only the
// trainer owning the course may rule.
func (s *Service) ValidateAttendance(ctx context.Context, trainerID, attendanceID string, present bool) (model.AttendanceRecord, error) {
	rec, err := s.store.AttendanceByID(ctx, attendanceID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	sess, err := s.store.SessionByID(ctx, rec.SessionID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	course, err := s.store.CourseByID(ctx, sess.CourseID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if course.TrainerID != trainerID {
		return model.AttendanceRecord{}, fmt.Errorf("%w: course %s is not owned by trainer %s", ErrForbidden, course.ID, trainerID)
	}

	now := time.Now()
	if err := s.store.SetPresence(ctx, attendanceID, present, now); err != nil {
		return model.AttendanceRecord{}, err
	}
	metrics.RecordAttendanceValidated()

	rec.Present = &present
	rec.ValidatedAt = &now

	if err := s.audit(ctx, "attendance_validated", trainerID, model.RoleTrainer, attendanceID); err != nil {
		return rec, err
	}
	return rec, nil
}

// validateFeedback bounds-checks a submission and fills optional
// criteria defaults. Mandatory criteria are scored 2 to 10; optional
// ones default to 5 when omitted.
func validateFeedback(f model.FeedbackRecord) (model.FeedbackRecord, error) {
	mandatory := map[string]int{
		model.CriterionClarity:    f.Clarity,
		model.CriterionObjectives: f.Objectives,
		model.CriterionLevel:      f.Level,
		model.CriterionTrainer:    f.Trainer,
		model.CriterionMaterials:  f.Materials,
	}
	for _, name := range model.MandatoryCriteria {
		if v := mandatory[name]; v < 2 || v > 10 {
			return f, model.Invalid(name, "must be between 2 and 10")
		}
	}

	optional := []struct {
		name  string
		value *int
	}{
		{model.CriterionMaterialOrganization, &f.MaterialOrganization},
		{model.CriterionWelcomeQuality, &f.WelcomeQuality},
		{model.CriterionPremisesComfort, &f.PremisesComfort},
	}
	for _, o := range optional {
		if *o.value == 0 {
			*o.value = 5
			continue
		}
		if *o.value < 0 || *o.value > 10 {
			return f, model.Invalid(o.name, "must be between 0 and 10")
		}
	}

	if f.GlobalRating != nil && (*f.GlobalRating < 0 || *f.GlobalRating > 10) {
		return f, model.Invalid(model.CriterionGlobalRating, "must be between 0 and 10")
	}

	return f, nil
}

// SubmitFeedback stores or overwrites a participant's session feedback.
func (s *Service) SubmitFeedback(ctx context.Context, rec model.FeedbackRecord) (model.FeedbackRecord, error) {
	att, err := s.store.AttendanceByID(ctx, rec.AttendanceID)
	if err != nil {
		return model.FeedbackRecord{}, err
	}
	if att.SubjectID != rec.SubjectID {
		return model.FeedbackRecord{}, fmt.Errorf("%w: attendance %s does not belong to subject %s", ErrForbidden, rec.AttendanceID, rec.SubjectID)
	}
	sess, err := s.store.SessionByID(ctx, att.SessionID)
	if err != nil {
		return model.FeedbackRecord{}, err
	}
	rec.CourseID = sess.CourseID

	rec, err = validateFeedback(rec)
	if err != nil {
		return model.FeedbackRecord{}, err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := s.store.UpsertFeedback(ctx, rec); err != nil {
		return model.FeedbackRecord{}, err
	}
	metrics.RecordFeedbackSubmitted()

	if err := s.audit(ctx, "feedback_submitted", rec.SubjectID, model.RoleLearner, rec.AttendanceID); err != nil {
		return rec, err
	}
	return rec, nil
}

// FeedbackForUser returns a subject's feedback records.
func (s *Service) FeedbackForUser(ctx context.Context, subjectID string) ([]model.FeedbackRecord, error) {
	return s.store.FeedbackBySubject(ctx, subjectID), nil
}

// SubmitValidation stores or overwrites a skill self-assessment. Every
// skill key must name a section of the session's course and levels are
// bounded to 0 to 10.
func (s *Service) SubmitValidation(ctx context.Context, rec model.SkillValidationRecord) (model.SkillValidationRecord, error) {
	att, err := s.store.AttendanceByID(ctx, rec.AttendanceID)
	if err != nil {
		return model.SkillValidationRecord{}, err
	}
	if att.SubjectID != rec.SubjectID {
		return model.SkillValidationRecord{}, fmt.Errorf("%w: attendance %s does not belong to subject %s", ErrForbidden, rec.AttendanceID, rec.SubjectID)
	}
	sess, err := s.store.SessionByID(ctx, att.SessionID)
	if err != nil {
		return model.SkillValidationRecord{}, err
	}
	course, err := s.store.CourseByID(ctx, sess.CourseID)
	if err != nil {
		return model.SkillValidationRecord{}, err
	}
	rec.CourseID = course.ID

	if len(rec.SkillsBefore) == 0 || len(rec.SkillsAfter) == 0 {
		return model.SkillValidationRecord{}, model.Invalid("skills", "before and after levels are required")
	}
	if len(rec.SkillsBefore) != len(rec.SkillsAfter) {
		return model.SkillValidationRecord{}, model.Invalid("skills", "before and after must cover the same sections")
	}
	for key, before := range rec.SkillsBefore {
		after, ok := rec.SkillsAfter[key]
		if !ok {
			return model.SkillValidationRecord{}, model.Invalid("skills", "before and after must cover the same sections")
		}
		if !course.HasSection(key) {
			return model.SkillValidationRecord{}, model.Invalid("skills", "unknown section "+key)
		}
		if before < 0 || before > 10 || after < 0 || after > 10 {
			return model.SkillValidationRecord{}, model.Invalid("skills", "levels must be between 0 and 10")
		}
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := s.store.UpsertValidation(ctx, rec); err != nil {
		return model.SkillValidationRecord{}, err
	}
	metrics.RecordValidationSubmitted()

	if err := s.audit(ctx, "validation_submitted", rec.SubjectID, model.RoleLearner, rec.AttendanceID); err != nil {
		return rec, err
	}
	return rec, nil
}

// ValidationForAttendance returns the skill assessment for one sign-off.
func (s *Service) ValidationForAttendance(ctx context.Context, subjectID, attendanceID string) (model.SkillValidationRecord, error) {
	return s.store.ValidationByAttendance(ctx, subjectID, attendanceID)
}

// ValidationProgress aggregates a subject's skill improvement per
// course: total improvement over total possible improvement, capped at
// 100.
func (s *Service) ValidationProgress(ctx context.Context, subjectID string) ([]types.ValidationProgress, error) {
	validations := s.store.ValidationsBySubject(ctx, subjectID)

	type tally struct {
		improvement float64
		possible    float64
	}
	byCourse := make(map[string]*tally)
	order := make([]string, 0)
	for _, v := range validations {
		t, ok := byCourse[v.CourseID]
		if !ok {
			t = &tally{}
			byCourse[v.CourseID] = t
			order = append(order, v.CourseID)
		}
		for key, before := range v.SkillsBefore {
			after, ok := v.SkillsAfter[key]
			if !ok {
				continue
			}
			t.improvement += after - before
			t.possible += 10 - before
		}
	}

	out := make([]types.ValidationProgress, 0, len(order))
	for _, courseID := range order {
		t := byCourse[courseID]
		progress := 100
		if t.possible > 0 {
			progress = int(math.Round(t.improvement / t.possible * 100))
			if progress > 100 {
				progress = 100
			}
		}
		title := ""
		if course, err := s.store.CourseByID(ctx, courseID); err == nil {
			title = course.Title
		}
		out = append(out, types.ValidationProgress{
			CourseID:        courseID,
			Title:           title,
			ProgressPercent: progress,
		})
	}
	return out, nil
}

// validateEvaluation bounds-checks a trainer self-evaluation.
func validateEvaluation(e model.TrainerEvaluation) error {
	criteria := map[string]int{
		"objectivesClarity":  e.ObjectivesClarity,
		"contentMastery":     e.ContentMastery,
		"paceAdequacy":       e.PaceAdequacy,
		"methodsVariety":     e.MethodsVariety,
		"participantsEngage": e.ParticipantsEngage,
		"roomSuitability":    e.RoomSuitability,
		"equipmentAdequacy":  e.EquipmentAdequacy,
		"scheduleConvenient": e.ScheduleConvenient,
		"groupSizeAdequacy":  e.GroupSizeAdequacy,
	}
	for name, v := range criteria {
		if v < 2 || v > 10 {
			return model.Invalid(name, "must be between 2 and 10")
		}
	}
	if e.Adapted && e.AdaptedDetails == "" {
		return model.Invalid("adaptedDetails", "required when the course was adapted")
	}
	return nil
}

// SubmitTrainerEvaluation stores or overwrites a trainer's course
// self-evaluation. Only the owning trainer may evaluate.
func (s *Service) SubmitTrainerEvaluation(ctx context.Context, ev model.TrainerEvaluation) (model.TrainerEvaluation, error) {
	course, err := s.store.CourseByID(ctx, ev.CourseID)
	if err != nil {
		return model.TrainerEvaluation{}, err
	}
	if course.TrainerID != ev.TrainerID {
		return model.TrainerEvaluation{}, fmt.Errorf("%w: course %s is not owned by trainer %s", ErrForbidden, ev.CourseID, ev.TrainerID)
	}
	if err := validateEvaluation(ev); err != nil {
		return model.TrainerEvaluation{}, err
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	now := time.Now()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if _, err := s.store.UpsertEvaluation(ctx, ev); err != nil {
		return model.TrainerEvaluation{}, err
	}

	if err := s.audit(ctx, "evaluation_submitted", ev.TrainerID, model.RoleTrainer, ev.CourseID); err != nil {
		return ev, err
	}
	return ev, nil
}

// TrainerEvaluation returns a trainer's evaluation for a course with
// its weighted composite. The pedagogy and environment averages are
// scaled to 0 to 100 to share the scale of the other metrics.
func (s *Service) TrainerEvaluation(ctx context.Context, trainerID, courseID string) (types.EvaluationSummary, error) {
	ev, err := s.store.EvaluationByTrainerCourse(ctx, trainerID, courseID)
	if err != nil {
		return types.EvaluationSummary{}, err
	}

	course, err := s.store.CourseByID(ctx, courseID)
	if err != nil {
		return types.EvaluationSummary{}, err
	}
	validations := s.store.ValidationsByCourse(ctx, courseID)
	feedback := s.store.FeedbackByCourse(ctx, courseID)

	skills := s.skills.Course(s.skills.Sections(validations, course.SectionIDs()))
	global := stats.NewFeedbackAggregator(stats.WithScale(stats.ScalePercent)).
		Average(feedback, model.CriterionGlobalRating)

	score, err := s.trainerScorer.Score(map[string]float64{
		"pedagogy":    ev.PedagogyAverage() * 10,
		"skills":      skills.Score,
		"environment": ev.EnvironmentAverage() * 10,
		"global":      global,
	})
	if err != nil {
		return types.EvaluationSummary{}, err
	}

	return types.EvaluationSummary{
		Evaluation:     ev,
		CompositeScore: score,
	}, nil
}

// TrainerStats aggregates every course owned by a trainer.
func (s *Service) TrainerStats(ctx context.Context, trainerID string) ([]types.CourseStats, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStatsComputeLatency("trainer", float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordStatsComputed("trainer")

	courses := s.store.CoursesByTrainer(ctx, trainerID)
	out := make([]types.CourseStats, 0, len(courses))
	for _, course := range courses {
		out = append(out, s.courseStats(ctx, course))
	}
	return out, nil
}

// courseStats computes the trainer-facing aggregate for one course.
func (s *Service) courseStats(ctx context.Context, course model.Course) types.CourseStats {
	attendance := s.store.AttendanceByCourse(ctx, course.ID)
	feedback := s.store.FeedbackByCourse(ctx, course.ID)

	subjects := make(map[string]struct{})
	for _, a := range attendance {
		subjects[a.SubjectID] = struct{}{}
	}

	comments := make([]string, 0)
	for _, f := range feedback {
		if f.Comments != "" {
			comments = append(comments, f.Comments)
		}
	}

	sessions := s.store.SessionsByCourse(ctx, course.ID)
	trend := make([]types.SessionPoint, 0, len(sessions))
	for _, sess := range sessions {
		trend = append(trend, types.SessionPoint{
			SessionID:      sess.ID,
			StartsAt:       sess.StartsAt.Format(time.RFC3339),
			AttendanceRate: s.attendance.Rate(s.store.AttendanceBySession(ctx, sess.ID)),
		})
	}

	return types.CourseStats{
		CourseID:         course.ID,
		Title:            course.Title,
		AttendanceRate:   s.attendance.Rate(attendance),
		FeedbackAverages: s.feedback.Averages(feedback),
		Satisfaction:     s.feedback.GlobalSatisfaction(feedback),
		FeedbackCount:    len(feedback),
		ParticipantCount: len(subjects),
		Comments:         comments,
		SessionTrend:     trend,
	}
}

// LearnerStats aggregates every course a learner attended. Feedback
// averages are projected to 0 to 100 and skills use the x10 headline
// scale.
func (s *Service) LearnerStats(ctx context.Context, learnerID string) (types.LearnerStats, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStatsComputeLatency("learner", float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordStatsComputed("learner")

	attendance := s.store.AttendanceBySubject(ctx, learnerID)

	// Resolve each attendance to its course, keeping first-seen order.
	courseIDs := make([]string, 0)
	byCourse := make(map[string][]model.AttendanceRecord)
	for _, a := range attendance {
		sess, err := s.store.SessionByID(ctx, a.SessionID)
		if err != nil {
			continue
		}
		if _, ok := byCourse[sess.CourseID]; !ok {
			courseIDs = append(courseIDs, sess.CourseID)
		}
		byCourse[sess.CourseID] = append(byCourse[sess.CourseID], a)
	}

	percent := stats.NewFeedbackAggregator(stats.WithScale(stats.ScalePercent))
	validations := s.store.ValidationsBySubject(ctx, learnerID)
	feedback := s.store.FeedbackBySubject(ctx, learnerID)

	certificates := 0
	courses := make([]types.LearnerCourseStats, 0, len(courseIDs))
	for _, courseID := range courseIDs {
		course, err := s.store.CourseByID(ctx, courseID)
		if err != nil {
			continue
		}

		own := byCourse[courseID]

		// A certificate needs confirmed presence at every session.
		sessions := s.store.SessionsByCourse(ctx, courseID)
		presentAtAll := len(sessions) > 0
		for _, sess := range sessions {
			attended := false
			for _, a := range own {
				if a.SessionID == sess.ID && a.IsPresent() {
					attended = true
					break
				}
			}
			if !attended {
				presentAtAll = false
				break
			}
		}
		if presentAtAll {
			certificates++
		}

		ownValidations := make([]model.SkillValidationRecord, 0)
		for _, v := range validations {
			if v.CourseID == courseID {
				ownValidations = append(ownValidations, v)
			}
		}
		ownFeedback := make([]model.FeedbackRecord, 0)
		for _, f := range feedback {
			if f.CourseID == courseID {
				ownFeedback = append(ownFeedback, f)
			}
		}

		sectionResults := s.skills.Sections(ownValidations, course.SectionIDs())
		courseSkills := s.skills.Course(sectionResults)

		sections := make([]types.SectionProgress, 0, len(sectionResults))
		for _, r := range sectionResults {
			title := ""
			for _, sec := range course.Sections {
				if sec.ID == r.SectionID {
					title = sec.Title
					break
				}
			}
			sections = append(sections, types.SectionProgress{
				SectionID:       r.SectionID,
				Title:           title,
				BeforeAverage:   r.BeforeAverage,
				AfterAverage:    r.AfterAverage,
				ProgressPercent: r.ProgressPercent,
			})
		}

		courses = append(courses, types.LearnerCourseStats{
			CourseID:         courseID,
			Title:            course.Title,
			AttendanceRate:   s.attendance.Rate(own),
			FeedbackAverages: percent.Averages(ownFeedback),
			SkillsBefore:     courseSkills.Before,
			SkillsAfter:      courseSkills.After,
			SkillsScore:      courseSkills.Score,
			Sections:         sections,
		})
	}

	return types.LearnerStats{
		CourseCount:      len(courseIDs),
		CertificateCount: certificates,
		Courses:          courses,
	}, nil
}

// AdminStats aggregates every course with its weighted composite.
func (s *Service) AdminStats(ctx context.Context) ([]types.AdminCourseStats, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStatsComputeLatency("admin", float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordStatsComputed("admin")

	courses := s.store.Courses(ctx)
	out := make([]types.AdminCourseStats, 0, len(courses))
	for _, course := range courses {
		cs, err := s.adminCourseStats(ctx, course)
		if err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, nil
}

// adminCourseStats computes the admin-facing aggregate for one course.
func (s *Service) adminCourseStats(ctx context.Context, course model.Course) (types.AdminCourseStats, error) {
	attendance := s.store.AttendanceByCourse(ctx, course.ID)
	feedback := s.store.FeedbackByCourse(ctx, course.ID)
	validations := s.store.ValidationsByCourse(ctx, course.ID)
	sessions := s.store.SessionsByCourse(ctx, course.ID)

	percent := stats.NewFeedbackAggregator(stats.WithScale(stats.ScalePercent))

	attendanceRate := s.attendance.Rate(attendance)
	satisfaction := percent.Average(feedback, model.CriterionGlobalRating)

	validationProgress := 0.0
	if len(attendance) > 0 {
		validationProgress = stats.Round2(float64(len(validations)) / float64(len(attendance)) * 100)
	}

	evaluationRate := 0.0
	if len(sessions) > 0 {
		covered := 0
		for _, sess := range sessions {
			found := false
			for _, a := range s.store.AttendanceBySession(ctx, sess.ID) {
				if _, err := s.store.FeedbackByAttendance(ctx, a.SubjectID, a.ID); err == nil {
					found = true
					break
				}
			}
			if found {
				covered++
			}
		}
		evaluationRate = stats.Round2(float64(covered) / float64(len(sessions)) * 100)
	}

	composite, err := s.courseScorer.Score(map[string]float64{
		"attendance":   attendanceRate,
		"satisfaction": satisfaction,
		"validation":   validationProgress,
	})
	if err != nil {
		return types.AdminCourseStats{}, err
	}

	comments := make([]string, 0)
	for _, f := range feedback {
		if f.Comments != "" {
			comments = append(comments, f.Comments)
		}
	}

	return types.AdminCourseStats{
		CourseID:               course.ID,
		Title:                  course.Title,
		TrainerID:              course.TrainerID,
		AttendanceRate:         attendanceRate,
		Satisfaction:           satisfaction,
		FeedbackAverages:       percent.Averages(feedback),
		ValidationProgress:     validationProgress,
		FeedbackEvaluationRate: evaluationRate,
		Comments:               comments,
		CompositeScore:         composite,
	}, nil
}

// GlobalStats builds the admin dashboard payload: role counts, the
// best course and trainer by composite score, and a six month trend.
func (s *Service) GlobalStats(ctx context.Context) (types.GlobalStats, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStatsComputeLatency("global", float64(time.Since(start).Milliseconds()))
	}()
	metrics.RecordStatsComputed("global")

	roleCounts := s.store.CountByRole(ctx)

	courseStats, err := s.AdminStats(ctx)
	if err != nil {
		return types.GlobalStats{}, err
	}

	out := types.GlobalStats{
		LearnerCount: roleCounts[model.RoleLearner],
		TrainerCount: roleCounts[model.RoleTrainer],
		AdminCount:   roleCounts[model.RoleAdmin],
		MonthlyTrend: s.monthlyTrend(ctx),
	}

	// Best course by composite, stable on ties.
	ranked := make([]stats.Ranked, 0, len(courseStats))
	for _, cs := range courseStats {
		ranked = append(ranked, stats.Ranked{ID: cs.CourseID, Score: cs.CompositeScore})
	}
	ranked = stats.Rank(ranked)
	if len(ranked) > 0 {
		for i := range courseStats {
			if courseStats[i].CourseID == ranked[0].ID {
				best := courseStats[i]
				out.BestCourse = &best
				break
			}
		}
	}

	// Trainer metrics are means over owned courses, re-scored with the
	// course weighting.
	type trainerTally struct {
		attendance   float64
		satisfaction float64
		validation   float64
		count        int
	}
	tallies := make(map[string]*trainerTally)
	trainerOrder := make([]string, 0)
	for _, cs := range courseStats {
		t, ok := tallies[cs.TrainerID]
		if !ok {
			t = &trainerTally{}
			tallies[cs.TrainerID] = t
			trainerOrder = append(trainerOrder, cs.TrainerID)
		}
		t.attendance += cs.AttendanceRate
		t.satisfaction += cs.Satisfaction
		t.validation += cs.ValidationProgress
		t.count++
	}

	trainerRanked := make([]stats.Ranked, 0, len(trainerOrder))
	for _, trainerID := range trainerOrder {
		t := tallies[trainerID]
		n := float64(t.count)
		score, err := s.courseScorer.Score(map[string]float64{
			"attendance":   t.attendance / n,
			"satisfaction": t.satisfaction / n,
			"validation":   t.validation / n,
		})
		if err != nil {
			return types.GlobalStats{}, err
		}
		trainerRanked = append(trainerRanked, stats.Ranked{ID: trainerID, Score: score})
	}
	trainerRanked = stats.Rank(trainerRanked)
	if len(trainerRanked) > 0 {
		best := types.RankedTrainer{
			TrainerID:      trainerRanked[0].ID,
			CompositeScore: trainerRanked[0].Score,
		}
		if u, err := s.store.UserByID(ctx, best.TrainerID); err == nil {
			best.Name = u.Name
		}
		out.BestTrainer = &best
	}

	return out, nil
}

// monthlyTrend buckets attendance, satisfaction and validation volume
// by calendar month over the trailing window, oldest first.
func (s *Service) monthlyTrend(ctx context.Context) []types.TrendPoint {
	percent := stats.NewFeedbackAggregator(stats.WithScale(stats.ScalePercent))
	now := time.Now()

	trend := make([]types.TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		month := now.AddDate(0, -i, 0)
		key := month.Format("2006-01")

		monthAttendance := make([]model.AttendanceRecord, 0)
		for _, course := range s.store.Courses(ctx) {
			for _, a := range s.store.AttendanceByCourse(ctx, course.ID) {
				if a.SignedAt.Format("2006-01") == key {
					monthAttendance = append(monthAttendance, a)
				}
			}
		}

		monthFeedback := make([]model.FeedbackRecord, 0)
		monthValidations := 0
		for _, course := range s.store.Courses(ctx) {
			for _, f := range s.store.FeedbackByCourse(ctx, course.ID) {
				if f.CreatedAt.Format("2006-01") == key {
					monthFeedback = append(monthFeedback, f)
				}
			}
			for _, v := range s.store.ValidationsByCourse(ctx, course.ID) {
				if v.CreatedAt.Format("2006-01") == key {
					monthValidations++
				}
			}
		}

		validationRate := 0.0
		if len(monthAttendance) > 0 {
			validationRate = stats.Round2(float64(monthValidations) / float64(len(monthAttendance)) * 100)
		}

		trend = append(trend, types.TrendPoint{
			Month:          key,
			AttendanceRate: s.attendance.Rate(monthAttendance),
			Satisfaction:   percent.Average(monthFeedback, model.CriterionGlobalRating),
			ValidationRate: validationRate,
		})
	}
	return trend
}

// History returns audit entries, newest first. The limit is capped to
// the configured maximum.
func (s *Service) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit > s.maxHistoryLimit {
		limit = s.maxHistoryLimit
	}
	return s.store.History(ctx, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		queueLen := s.auditQueue.Len(ctx)
		out["queueLength"] = queueLen
		out["historyCount"] = s.store.HistoryCount(ctx)
		out["pendingPins"] = s.pins.Size()
		out["courseCount"] = len(s.store.Courses(ctx))

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdatePendingPins(s.pins.Size())
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return out
}
