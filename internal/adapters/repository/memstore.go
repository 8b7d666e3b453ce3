package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/pkg/metrics"
)

// Default store configuration constants.
const (
	defaultHistoryCapacity = 10000
)

// MemoryStore implements Store with mutex-guarded maps. Reads return
// copies so callers can never mutate shared state.
type MemoryStore struct {
	mu sync.RWMutex

	usersByID    map[string]model.User
	usersByEmail map[string]string // email -> id

	courses  map[string]model.Course
	sessions map[string]model.Session

	attendance          map[string]model.AttendanceRecord
	attendanceBySubject map[string]map[string]struct{} // subject -> attendance ids

	feedback    map[string]model.FeedbackRecord        // subject|attendance -> record
	validations map[string]model.SkillValidationRecord // subject|attendance -> record
	evaluations map[string]model.TrainerEvaluation     // trainer|course -> record

	enrollments   map[string]model.EnrollmentRequest
	notifications map[string]model.Notification

	history         []model.HistoryEntry
	historyCapacity int
}

// NewMemoryStore creates an empty store with configuration options.
func NewMemoryStore(ctx context.Context, opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		usersByID:           make(map[string]model.User),
		usersByEmail:        make(map[string]string),
		courses:             make(map[string]model.Course),
		sessions:            make(map[string]model.Session),
		attendance:          make(map[string]model.AttendanceRecord),
		attendanceBySubject: make(map[string]map[string]struct{}),
		feedback:            make(map[string]model.FeedbackRecord),
		validations:         make(map[string]model.SkillValidationRecord),
		evaluations:         make(map[string]model.TrainerEvaluation),
		enrollments:         make(map[string]model.EnrollmentRequest),
		notifications:       make(map[string]model.Notification),
		historyCapacity:     defaultHistoryCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func pairKey(a, b string) string { return a + "|" + b }

// CreateUser stores a new user.
func (s *MemoryStore) CreateUser(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByEmail[u.Email]; taken {
		return fmt.Errorf("email %s: %w", u.Email, ErrDuplicate)
	}
	if _, taken := s.usersByID[u.ID]; taken {
		return fmt.Errorf("user %s: %w", u.ID, ErrDuplicate)
	}
	s.usersByID[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	metrics.UpdateStoreRecords("users", len(s.usersByID))
	return nil
}

// UserByEmail returns the user for an email.
func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return model.User{}, fmt.Errorf("email %s: %w", email, ErrNotFound)
	}
	return s.usersByID[id], nil
}

// UserByID returns the user for an ID.
func (s *MemoryStore) UserByID(ctx context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByID[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, nil
}

// UpdateUser overwrites a stored user, matched by ID.
func (s *MemoryStore) UpdateUser(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.usersByID[u.ID]
	if !ok {
		return fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	if old.Email != u.Email {
		if _, taken := s.usersByEmail[u.Email]; taken {
			return fmt.Errorf("email %s: %w", u.Email, ErrDuplicate)
		}
		delete(s.usersByEmail, old.Email)
		s.usersByEmail[u.Email] = u.ID
	}
	s.usersByID[u.ID] = u
	return nil
}

// DeleteUser removes a user.
func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByID[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(s.usersByID, id)
	delete(s.usersByEmail, u.Email)
	return nil
}

// UsersByRole returns every user holding a role, ordered by creation
// time.
func (s *MemoryStore) UsersByRole(ctx context.Context, role model.Role) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.User
	for _, u := range s.usersByID {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CountByRole returns how many users hold each role.
func (s *MemoryStore) CountByRole(ctx context.Context) map[model.Role]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.Role]int)
	for _, u := range s.usersByID {
		counts[u.Role]++
	}
	return counts
}

// CreateCourse stores a course with its sections.
func (s *MemoryStore) CreateCourse(ctx context.Context, c model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.courses[c.ID]; taken {
		return fmt.Errorf("course %s: %w", c.ID, ErrDuplicate)
	}
	c.Sections = append([]model.Section(nil), c.Sections...)
	s.courses[c.ID] = c
	metrics.UpdateStoreRecords("courses", len(s.courses))
	return nil
}

// CourseByID returns a course.
func (s *MemoryStore) CourseByID(ctx context.Context, id string) (model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.courseLocked(id)
}

func (s *MemoryStore) courseLocked(id string) (model.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return model.Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	c.Sections = append([]model.Section(nil), c.Sections...)
	return c, nil
}

// Courses returns all courses sorted by creation time.
func (s *MemoryStore) Courses(ctx context.Context) []model.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Course, 0, len(s.courses))
	for _, c := range s.courses {
		c.Sections = append([]model.Section(nil), c.Sections...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CoursesByTrainer returns the courses a trainer owns.
func (s *MemoryStore) CoursesByTrainer(ctx context.Context, trainerID string) []model.Course {
	all := s.Courses(ctx)
	out := all[:0]
	for _, c := range all {
		if c.TrainerID == trainerID {
			out = append(out, c)
		}
	}
	return out
}

// CreateSession stores a session under an existing course.
func (s *MemoryStore) CreateSession(ctx context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[sess.CourseID]; !ok {
		return fmt.Errorf("course %s: %w", sess.CourseID, ErrNotFound)
	}
	if _, taken := s.sessions[sess.ID]; taken {
		return fmt.Errorf("session %s: %w", sess.ID, ErrDuplicate)
	}
	s.sessions[sess.ID] = sess
	metrics.UpdateStoreRecords("sessions", len(s.sessions))
	return nil
}

// SessionByID returns a session.
func (s *MemoryStore) SessionByID(ctx context.Context, id string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

// SessionsByCourse returns a course's sessions ordered by start time.
func (s *MemoryStore) SessionsByCourse(ctx context.Context, courseID string) []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionsByCourseLocked(courseID)
}

func (s *MemoryStore) sessionsByCourseLocked(courseID string) []model.Session {
	var out []model.Session
	for _, sess := range s.sessions {
		if sess.CourseID == courseID {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out
}

// CreateAttendance stores a sign-off.
func (s *MemoryStore) CreateAttendance(ctx context.Context, a model.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[a.SessionID]; !ok {
		return fmt.Errorf("session %s: %w", a.SessionID, ErrNotFound)
	}
	if _, taken := s.attendance[a.ID]; taken {
		return fmt.Errorf("attendance %s: %w", a.ID, ErrDuplicate)
	}
	for id := range s.attendanceBySubject[a.SubjectID] {
		if s.attendance[id].SessionID == a.SessionID {
			return fmt.Errorf("subject %s already signed session %s: %w", a.SubjectID, a.SessionID, ErrDuplicate)
		}
	}
	s.attendance[a.ID] = a
	if s.attendanceBySubject[a.SubjectID] == nil {
		s.attendanceBySubject[a.SubjectID] = make(map[string]struct{})
	}
	s.attendanceBySubject[a.SubjectID][a.ID] = struct{}{}
	metrics.UpdateStoreRecords("attendance", len(s.attendance))
	return nil
}

// AttendanceByID returns a sign-off.
func (s *MemoryStore) AttendanceByID(ctx context.Context, id string) (model.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attendance[id]
	if !ok {
		return model.AttendanceRecord{}, fmt.Errorf("attendance %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// AttendanceBySubject returns a subject's sign-offs ordered by signing time.
func (s *MemoryStore) AttendanceBySubject(ctx context.Context, subjectID string) []model.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AttendanceRecord
	for id := range s.attendanceBySubject[subjectID] {
		out = append(out, s.attendance[id])
	}
	sortAttendance(out)
	return out
}

// AttendanceBySession returns the sign-offs of one session.
func (s *MemoryStore) AttendanceBySession(ctx context.Context, sessionID string) []model.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AttendanceRecord
	for _, a := range s.attendance {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sortAttendance(out)
	return out
}

// AttendanceByCourse returns every sign-off across a course's sessions.
func (s *MemoryStore) AttendanceByCourse(ctx context.Context, courseID string) []model.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inCourse := make(map[string]struct{})
	for _, sess := range s.sessions {
		if sess.CourseID == courseID {
			inCourse[sess.ID] = struct{}{}
		}
	}
	var out []model.AttendanceRecord
	for _, a := range s.attendance {
		if _, ok := inCourse[a.SessionID]; ok {
			out = append(out, a)
		}
	}
	sortAttendance(out)
	return out
}

func sortAttendance(records []model.AttendanceRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].SignedAt.Equal(records[j].SignedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].SignedAt.Before(records[j].SignedAt)
	})
}

// SetPresence records the trainer's ruling on a sign-off.
func (s *MemoryStore) SetPresence(ctx context.Context, id string, present bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attendance[id]
	if !ok {
		return fmt.Errorf("attendance %s: %w", id, ErrNotFound)
	}
	a.Present = &present
	a.ValidatedAt = &at
	s.attendance[id] = a
	return nil
}

// UpsertFeedback stores or overwrites the record for the pair.
func (s *MemoryStore) UpsertFeedback(ctx context.Context, f model.FeedbackRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(f.SubjectID, f.AttendanceID)
	old, exists := s.feedback[key]
	if exists {
		// Upsert keeps the original identity and creation time.
		f.ID = old.ID
		f.CreatedAt = old.CreatedAt
	}
	s.feedback[key] = f
	metrics.UpdateStoreRecords("feedback", len(s.feedback))
	return !exists, nil
}

// FeedbackByAttendance returns the record for the pair.
func (s *MemoryStore) FeedbackByAttendance(ctx context.Context, subjectID, attendanceID string) (model.FeedbackRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.feedback[pairKey(subjectID, attendanceID)]
	if !ok {
		return model.FeedbackRecord{}, fmt.Errorf("feedback for attendance %s: %w", attendanceID, ErrNotFound)
	}
	return f, nil
}

// FeedbackBySubject returns a subject's feedback ordered by creation time.
func (s *MemoryStore) FeedbackBySubject(ctx context.Context, subjectID string) []model.FeedbackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.FeedbackRecord
	for _, f := range s.feedback {
		if f.SubjectID == subjectID {
			out = append(out, f)
		}
	}
	sortFeedback(out)
	return out
}

// FeedbackByCourse returns all feedback for a course.
func (s *MemoryStore) FeedbackByCourse(ctx context.Context, courseID string) []model.FeedbackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.FeedbackRecord
	for _, f := range s.feedback {
		if f.CourseID == courseID {
			out = append(out, f)
		}
	}
	sortFeedback(out)
	return out
}

func sortFeedback(records []model.FeedbackRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

// UpsertValidation stores or overwrites the record for the pair.
func (s *MemoryStore) UpsertValidation(ctx context.Context, v model.SkillValidationRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.SkillsBefore = copySkills(v.SkillsBefore)
	v.SkillsAfter = copySkills(v.SkillsAfter)

	key := pairKey(v.SubjectID, v.AttendanceID)
	old, exists := s.validations[key]
	if exists {
		v.ID = old.ID
		v.CreatedAt = old.CreatedAt
	}
	s.validations[key] = v
	metrics.UpdateStoreRecords("validations", len(s.validations))
	return !exists, nil
}

func copySkills(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidationByAttendance returns the record for the pair.
func (s *MemoryStore) ValidationByAttendance(ctx context.Context, subjectID, attendanceID string) (model.SkillValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.validations[pairKey(subjectID, attendanceID)]
	if !ok {
		return model.SkillValidationRecord{}, fmt.Errorf("validation for attendance %s: %w", attendanceID, ErrNotFound)
	}
	v.SkillsBefore = copySkills(v.SkillsBefore)
	v.SkillsAfter = copySkills(v.SkillsAfter)
	return v, nil
}

// ValidationsBySubject returns a subject's validations.
func (s *MemoryStore) ValidationsBySubject(ctx context.Context, subjectID string) []model.SkillValidationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.SkillValidationRecord
	for _, v := range s.validations {
		if v.SubjectID == subjectID {
			v.SkillsBefore = copySkills(v.SkillsBefore)
			v.SkillsAfter = copySkills(v.SkillsAfter)
			out = append(out, v)
		}
	}
	sortValidations(out)
	return out
}

// ValidationsByCourse returns all validations for a course.
func (s *MemoryStore) ValidationsByCourse(ctx context.Context, courseID string) []model.SkillValidationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.SkillValidationRecord
	for _, v := range s.validations {
		if v.CourseID == courseID {
			v.SkillsBefore = copySkills(v.SkillsBefore)
			v.SkillsAfter = copySkills(v.SkillsAfter)
			out = append(out, v)
		}
	}
	sortValidations(out)
	return out
}

func sortValidations(records []model.SkillValidationRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

// UpsertEvaluation stores or overwrites the evaluation for the pair.
func (s *MemoryStore) UpsertEvaluation(ctx context.Context, e model.TrainerEvaluation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(e.TrainerID, e.CourseID)
	old, exists := s.evaluations[key]
	if exists {
		e.ID = old.ID
		e.CreatedAt = old.CreatedAt
	}
	s.evaluations[key] = e
	return !exists, nil
}

// EvaluationByTrainerCourse returns the evaluation for the pair.
func (s *MemoryStore) EvaluationByTrainerCourse(ctx context.Context, trainerID, courseID string) (model.TrainerEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.evaluations[pairKey(trainerID, courseID)]
	if !ok {
		return model.TrainerEvaluation{}, fmt.Errorf("evaluation for course %s: %w", courseID, ErrNotFound)
	}
	return e, nil
}

// CreateEnrollmentRequest stores a pending participant request.
func (s *MemoryStore) CreateEnrollmentRequest(ctx context.Context, r model.EnrollmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[r.CourseID]; !ok {
		return fmt.Errorf("course %s: %w", r.CourseID, ErrNotFound)
	}
	if _, exists := s.enrollments[r.ID]; exists {
		return fmt.Errorf("enrollment request %s: %w", r.ID, ErrDuplicate)
	}
	s.enrollments[r.ID] = r
	return nil
}

// EnrollmentRequestByID returns the request for an ID.
func (s *MemoryStore) EnrollmentRequestByID(ctx context.Context, id string) (model.EnrollmentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.enrollments[id]
	if !ok {
		return model.EnrollmentRequest{}, fmt.Errorf("enrollment request %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// EnrollmentRequests returns every request, ordered by creation time.
func (s *MemoryStore) EnrollmentRequests(ctx context.Context) []model.EnrollmentRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.EnrollmentRequest, 0, len(s.enrollments))
	for _, r := range s.enrollments {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// UpdateEnrollmentRequest overwrites a stored request, matched by ID.
func (s *MemoryStore) UpdateEnrollmentRequest(ctx context.Context, r model.EnrollmentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.enrollments[r.ID]
	if !ok {
		return fmt.Errorf("enrollment request %s: %w", r.ID, ErrNotFound)
	}
	r.CreatedAt = old.CreatedAt
	s.enrollments[r.ID] = r
	return nil
}

// CreateNotification stores an in-app notification.
func (s *MemoryStore) CreateNotification(ctx context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.notifications[n.ID]; exists {
		return fmt.Errorf("notification %s: %w", n.ID, ErrDuplicate)
	}
	s.notifications[n.ID] = n
	return nil
}

// NotificationsByRecipient returns a user's notifications, newest
// first.
func (s *MemoryStore) NotificationsByRecipient(ctx context.Context, recipientID string) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// NotificationByID returns the notification for an ID.
func (s *MemoryStore) NotificationByID(ctx context.Context, id string) (model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return model.Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return n, nil
}

// MarkNotificationRead flips the read flag.
func (s *MemoryStore) MarkNotificationRead(ctx context.Context, id string) (model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return model.Notification{}, fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	n.Read = true
	s.notifications[id] = n
	return n, nil
}

// AppendHistory adds an audit entry, evicting the oldest entries once
// the retention capacity is reached.
func (s *MemoryStore) AppendHistory(ctx context.Context, h model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, h)
	if s.historyCapacity > 0 && len(s.history) > s.historyCapacity {
		drop := len(s.history) - s.historyCapacity
		s.history = append([]model.HistoryEntry(nil), s.history[drop:]...)
	}
	metrics.UpdateStoreRecords("history", len(s.history))
	return nil
}

// History returns up to limit entries, newest first.
func (s *MemoryStore) History(ctx context.Context, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit %d: %w", limit, ErrInvalidLimit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.history)
	if limit > n {
		limit = n
	}
	out := make([]model.HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

// HistoryCount returns the number of retained entries.
func (s *MemoryStore) HistoryCount(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}
