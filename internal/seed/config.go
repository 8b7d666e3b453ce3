package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL           string        // Base URL of the service
	Trainers          int           // Number of trainers to create
	Learners          int           // Number of learners to create
	CoursesPerTrainer int           // Courses created per trainer
	SessionsPerCourse int           // Sessions scheduled per course
	Workers           int           // Number of concurrent workers
	Timeout           time.Duration // HTTP request timeout
	Secret            string        // JWT secret shared with the service
	LogFile           string        // Log file for run output
	Verbose           bool          // Enable verbose logging
}

// user is an account created during the run, with its minted token.
type user struct {
	ID    string
	Email string
	Name  string
	Role  string
	Token string
}

// course tracks a created course with its section IDs.
type course struct {
	ID        string
	Title     string
	TrainerID string
	Sections  []string
	Sessions  []string
}

// attendance pairs a learner with their sign-off for one session.
type attendance struct {
	ID        string
	LearnerID string
	SessionID string
	CourseID  string
}

// Stats holds run statistics.
type Stats struct {
	UsersCreated         int
	CoursesCreated       int
	SessionsCreated      int
	AttendanceSigned     int
	AttendanceValidated  int
	FeedbackSubmitted    int
	ValidationsSubmitted int
	EvaluationsSubmitted int
	RequestsFailed       int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
