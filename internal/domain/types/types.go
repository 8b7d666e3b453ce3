// Package types contains read shapes shared between the service layer
// and the HTTP API.
package types

import "github.com/unowhq/forma/internal/domain/model"

// SectionProgress is the per-section skill progression of a course.
// Averages are on the raw 0 to 10 scale, rounded to 1 decimal;
// ProgressPercent is a whole percentage capped at 100 with no lower
// bound so regressions stay visible.
type SectionProgress struct {
	SectionID       string  `json:"section_id"`
	Title           string  `json:"title"`
	BeforeAverage   float64 `json:"before_average"`
	AfterAverage    float64 `json:"after_average"`
	ProgressPercent int     `json:"progress_percent"`
}

// CourseStats is the trainer-facing aggregate for one course.
type CourseStats struct {
	CourseID         string             `json:"course_id"`
	Title            string             `json:"title"`
	AttendanceRate   float64            `json:"attendance_rate"`
	FeedbackAverages map[string]float64 `json:"feedback_averages"`
	Satisfaction     float64            `json:"satisfaction"`
	FeedbackCount    int                `json:"feedback_count"`
	ParticipantCount int                `json:"participant_count"`
	Comments         []string           `json:"comments"`
	SessionTrend     []SessionPoint     `json:"session_trend"`
}

// SessionPoint is one session's attendance figure in a course trend.
type SessionPoint struct {
	SessionID      string  `json:"session_id"`
	StartsAt       string  `json:"starts_at"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// LearnerCourseStats is the learner-facing aggregate for one enrolled
// course. Feedback averages and skills are projected to 0 to 100.
type LearnerCourseStats struct {
	CourseID         string             `json:"course_id"`
	Title            string             `json:"title"`
	AttendanceRate   float64            `json:"attendance_rate"`
	FeedbackAverages map[string]float64 `json:"feedback_averages"`
	SkillsBefore     float64            `json:"skills_before"`
	SkillsAfter      float64            `json:"skills_after"`
	SkillsScore      float64            `json:"skills_score"`
	Sections         []SectionProgress  `json:"sections"`
}

// LearnerStats is the learner dashboard payload.
type LearnerStats struct {
	CourseCount      int                  `json:"course_count"`
	CertificateCount int                  `json:"certificate_count"`
	Courses          []LearnerCourseStats `json:"courses"`
}

// AdminCourseStats is the admin-facing aggregate for one course,
// including the weighted composite used for ranking.
type AdminCourseStats struct {
	CourseID               string             `json:"course_id"`
	Title                  string             `json:"title"`
	TrainerID              string             `json:"trainer_id"`
	AttendanceRate         float64            `json:"attendance_rate"`
	Satisfaction           float64            `json:"satisfaction"`
	FeedbackAverages       map[string]float64 `json:"feedback_averages"`
	ValidationProgress     float64            `json:"validation_progress"`
	FeedbackEvaluationRate float64            `json:"feedback_evaluation_rate"`
	Comments               []string           `json:"comments"`
	CompositeScore         float64            `json:"composite_score"`
}

// ValidationProgress is a learner's aggregate skill improvement for
// one course, capped at 100 like section progress.
type ValidationProgress struct {
	CourseID        string `json:"course_id"`
	Title           string `json:"title"`
	ProgressPercent int    `json:"progress_percent"`
}

// EvaluationSummary pairs a trainer self-evaluation with the weighted
// composite computed from pedagogy, skills, environment and global
// satisfaction metrics.
type EvaluationSummary struct {
	Evaluation     model.TrainerEvaluation `json:"evaluation"`
	CompositeScore float64                 `json:"composite_score"`
}

// TrendPoint is one month's bucket in the global dashboard trend.
type TrendPoint struct {
	Month          string  `json:"month"`
	AttendanceRate float64 `json:"attendance_rate"`
	Satisfaction   float64 `json:"satisfaction"`
	ValidationRate float64 `json:"validation_rate"`
}

// RankedTrainer is a trainer scored across all owned courses.
type RankedTrainer struct {
	TrainerID      string  `json:"trainer_id"`
	Name           string  `json:"name"`
	CompositeScore float64 `json:"composite_score"`
}

// GlobalStats is the admin global dashboard payload.
type GlobalStats struct {
	LearnerCount int               `json:"learner_count"`
	TrainerCount int               `json:"trainer_count"`
	AdminCount   int               `json:"admin_count"`
	BestCourse   *AdminCourseStats `json:"best_course,omitempty"`
	BestTrainer  *RankedTrainer    `json:"best_trainer,omitempty"`
	MonthlyTrend []TrendPoint      `json:"monthly_trend"`
}
