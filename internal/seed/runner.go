package seed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/unowhq/forma/internal/auth"
	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/pkg/logger"
)

// Presence and participation probabilities for the seeded population.
const (
	presenceProbability   = 0.85
	feedbackProbability   = 0.8
	validationProbability = 0.6
	sectionsPerCourse     = 3
)

// Run executes the complete seeding run.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting forma seed run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("trainers", config.Trainers),
		logger.Int("learners", config.Learners),
		logger.Int("coursesPerTrainer", config.CoursesPerTrainer),
		logger.Int("sessionsPerCourse", config.SessionsPerCourse),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	client := newHTTPClient(config.Timeout)

	issuer, err := auth.NewIssuer(config.Secret)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create the population
	admin, trainers, learners, err := createPopulation(ctx, client, config, issuer, stats)
	if err != nil {
		return fmt.Errorf("population creation failed: %w", err)
	}

	// Step 3: Create courses and sessions
	courses, err := createCourses(ctx, client, config, trainers, stats)
	if err != nil {
		return fmt.Errorf("course creation failed: %w", err)
	}

	// Step 4: Sign attendance
	records := signAttendance(ctx, client, config, learners, courses, stats)

	// Step 5: Trainers rule on presence
	validateAttendance(ctx, client, config, trainers, courses, records, stats)

	// Step 6: Learners submit feedback and skill validations
	submitFeedback(ctx, client, config, learners, records, stats)
	submitValidations(ctx, client, config, learners, courses, records, stats)

	// Step 7: Trainers evaluate their courses
	submitEvaluations(ctx, client, config, trainers, courses, stats)

	// Step 8: Verify the admin dashboard
	if err := verifyDashboard(ctx, client, config, admin, courses, stats); err != nil {
		return fmt.Errorf("dashboard verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "seed run completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

type signupPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type userReply struct {
	ID string `json:"id"`
}

// createPopulation registers the admin, trainers and learners and mints
// a token for each with the shared secret.
func createPopulation(ctx context.Context, client *HTTPClient, config *Config, issuer *auth.Issuer, stats *Stats) (admin user, trainers, learners []user, err error) {
	total := 1 + config.Trainers + config.Learners
	log.Printf("Creating %d accounts...", total)

	register := func(email, name, role string) (user, error) {
		var reply userReply
		err := client.postDecoded(ctx, config.BaseURL+"/api/auth/signup", "", signupPayload{
			Email:    email,
			Password: "seed-password-1",
			Name:     name,
			Role:     role,
		}, &reply, StatusCreated)
		if err != nil {
			return user{}, err
		}

		pair, err := issuer.IssuePair(reply.ID, model.Role(role))
		if err != nil {
			return user{}, fmt.Errorf("mint token: %w", err)
		}
		stats.UsersCreated++
		return user{ID: reply.ID, Email: email, Name: name, Role: role, Token: pair.AccessToken}, nil
	}

	admin, err = register("admin@seed.forma.test", "Seed Admin", "admin")
	if err != nil {
		return user{}, nil, nil, err
	}

	trainers = make([]user, 0, config.Trainers)
	for i := 0; i < config.Trainers; i++ {
		u, err := register(userEmail("trainer", i), userName("Trainer", i), "trainer")
		if err != nil {
			return user{}, nil, nil, err
		}
		trainers = append(trainers, u)
	}

	learners = make([]user, 0, config.Learners)
	for i := 0; i < config.Learners; i++ {
		u, err := register(userEmail("learner", i), userName("Learner", i), "learner")
		if err != nil {
			return user{}, nil, nil, err
		}
		learners = append(learners, u)
	}

	log.Printf("Created %d accounts", stats.UsersCreated)
	return admin, trainers, learners, nil
}

type sectionPayload struct {
	Title string `json:"title"`
}

type coursePayload struct {
	Title    string           `json:"title"`
	Sections []sectionPayload `json:"sections"`
}

type courseReply struct {
	ID       string `json:"id"`
	Sections []struct {
		ID string `json:"id"`
	} `json:"sections"`
}

type sessionPayload struct {
	CourseID string `json:"course_id"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

type sessionReply struct {
	ID string `json:"id"`
}

// createCourses creates every trainer's courses with their sections and
// scheduled sessions.
func createCourses(ctx context.Context, client *HTTPClient, config *Config, trainers []user, stats *Stats) ([]course, error) {
	log.Printf("Creating %d courses with %d sessions each...",
		len(trainers)*config.CoursesPerTrainer, config.SessionsPerCourse)

	courses := make([]course, 0, len(trainers)*config.CoursesPerTrainer)
	for ti, trainer := range trainers {
		for ci := 0; ci < config.CoursesPerTrainer; ci++ {
			index := ti*config.CoursesPerTrainer + ci
			sections := make([]sectionPayload, sectionsPerCourse)
			for si := range sections {
				sections[si] = sectionPayload{Title: sectionTitles[(index+si)%len(sectionTitles)]}
			}

			var reply courseReply
			err := client.postDecoded(ctx, config.BaseURL+"/api/courses", trainer.Token, coursePayload{
				Title:    courseTitle(index),
				Sections: sections,
			}, &reply, StatusCreated)
			if err != nil {
				return nil, fmt.Errorf("create course %d: %w", index, err)
			}
			stats.CoursesCreated++

			c := course{ID: reply.ID, Title: courseTitle(index), TrainerID: trainer.ID}
			for _, s := range reply.Sections {
				c.Sections = append(c.Sections, s.ID)
			}

			// Sessions spread over the trailing weeks, oldest first.
			for si := 0; si < config.SessionsPerCourse; si++ {
				start := time.Now().AddDate(0, 0, -7*(config.SessionsPerCourse-si))
				var sessReply sessionReply
				err := client.postDecoded(ctx, config.BaseURL+"/api/sessions", trainer.Token, sessionPayload{
					CourseID: reply.ID,
					StartsAt: start.Format(time.RFC3339),
					EndsAt:   start.Add(3 * time.Hour).Format(time.RFC3339),
				}, &sessReply, StatusCreated)
				if err != nil {
					return nil, fmt.Errorf("create session %d for course %d: %w", si, index, err)
				}
				stats.SessionsCreated++
				c.Sessions = append(c.Sessions, sessReply.ID)
			}

			courses = append(courses, c)
		}
	}

	log.Printf("Created %d courses and %d sessions", stats.CoursesCreated, stats.SessionsCreated)
	return courses, nil
}

type signPayload struct {
	SessionID string `json:"session_id"`
}

type attendanceReply struct {
	ID string `json:"id"`
}

// signAttendance assigns each learner to a course round-robin and signs
// every session of it concurrently.
func signAttendance(ctx context.Context, client *HTTPClient, config *Config, learners []user, courses []course, stats *Stats) []attendance {
	log.Printf("Signing attendance for %d learners with %d workers...", len(learners), config.Workers)

	var mu sync.Mutex
	records := make([]attendance, 0, len(learners)*config.SessionsPerCourse)

	failed := forEach(ctx, config, "attendance", len(learners), func(index int) error {
		learner := learners[index]
		assigned := courses[index%len(courses)]

		for _, sessionID := range assigned.Sessions {
			var reply attendanceReply
			err := client.postDecoded(ctx, config.BaseURL+"/api/attendance/sign", learner.Token, signPayload{
				SessionID: sessionID,
			}, &reply, StatusCreated)
			if err != nil {
				return err
			}

			mu.Lock()
			records = append(records, attendance{
				ID:        reply.ID,
				LearnerID: learner.ID,
				SessionID: sessionID,
				CourseID:  assigned.ID,
			})
			stats.AttendanceSigned++
			mu.Unlock()
		}
		return nil
	})

	stats.RequestsFailed += failed
	log.Printf("Signed %d attendance records (failed learners: %d)", stats.AttendanceSigned, failed)
	return records
}

type validatePayload struct {
	Present bool `json:"present"`
}

// validateAttendance has each owning trainer rule on the sign-offs,
// present with a fixed probability.
func validateAttendance(ctx context.Context, client *HTTPClient, config *Config, trainers []user, courses []course, records []attendance, stats *Stats) {
	log.Printf("Validating %d attendance records...", len(records))

	tokenByTrainer := make(map[string]string, len(trainers))
	for _, t := range trainers {
		tokenByTrainer[t.ID] = t.Token
	}
	trainerByCourse := make(map[string]string, len(courses))
	for _, c := range courses {
		trainerByCourse[c.ID] = c.TrainerID
	}

	var mu sync.Mutex
	failed := forEach(ctx, config, "validation ruling", len(records), func(index int) error {
		rec := records[index]
		token := tokenByTrainer[trainerByCourse[rec.CourseID]]
		present := getRandomFloat() < presenceProbability

		url := config.BaseURL + "/api/attendance/" + rec.ID + "/validate"
		if err := client.postDecoded(ctx, url, token, validatePayload{Present: present}, nil, StatusOK); err != nil {
			return err
		}

		mu.Lock()
		stats.AttendanceValidated++
		mu.Unlock()
		return nil
	})

	stats.RequestsFailed += failed
	log.Printf("Validated %d attendance records (failed: %d)", stats.AttendanceValidated, failed)
}

type feedbackPayload struct {
	AttendanceID         string `json:"attendance_id"`
	Clarity              int    `json:"clarity"`
	Objectives           int    `json:"objectives"`
	Level                int    `json:"level"`
	Trainer              int    `json:"trainer"`
	Materials            int    `json:"materials"`
	MaterialOrganization int    `json:"materialOrganization,omitempty"`
	WelcomeQuality       int    `json:"welcomeQuality,omitempty"`
	PremisesComfort      int    `json:"premisesComfort,omitempty"`
	GlobalRating         *int   `json:"globalRating,omitempty"`
	Comments             string `json:"comments,omitempty"`
}

// submitFeedback has a share of learners rate their sessions.
func submitFeedback(ctx context.Context, client *HTTPClient, config *Config, learners []user, records []attendance, stats *Stats) {
	log.Printf("Submitting feedback for %d attendance records...", len(records))

	tokenByLearner := make(map[string]string, len(learners))
	for _, l := range learners {
		tokenByLearner[l.ID] = l.Token
	}

	var mu sync.Mutex
	failed := forEach(ctx, config, "feedback", len(records), func(index int) error {
		rec := records[index]
		if getRandomFloat() >= feedbackProbability {
			return nil
		}

		global := generateGlobalRating()
		payload := feedbackPayload{
			AttendanceID: rec.ID,
			Clarity:      generateRating(),
			Objectives:   generateRating(),
			Level:        generateRating(),
			Trainer:      generateRating(),
			Materials:    generateRating(),
			GlobalRating: &global,
			Comments:     feedbackComment(),
		}

		if err := client.postDecoded(ctx, config.BaseURL+"/api/feedback/submit", tokenByLearner[rec.LearnerID], payload, nil, StatusOK); err != nil {
			return err
		}

		mu.Lock()
		stats.FeedbackSubmitted++
		mu.Unlock()
		return nil
	})

	stats.RequestsFailed += failed
	log.Printf("Submitted %d feedback records (failed: %d)", stats.FeedbackSubmitted, failed)
}

type validationPayload struct {
	AttendanceID string             `json:"attendance_id"`
	SkillsBefore map[string]float64 `json:"skills_before"`
	SkillsAfter  map[string]float64 `json:"skills_after"`
}

// submitValidations has a share of learners self-assess their skills.
func submitValidations(ctx context.Context, client *HTTPClient, config *Config, learners []user, courses []course, records []attendance, stats *Stats) {
	log.Printf("Submitting skill validations for %d attendance records...", len(records))

	tokenByLearner := make(map[string]string, len(learners))
	for _, l := range learners {
		tokenByLearner[l.ID] = l.Token
	}
	sectionsByCourse := make(map[string][]string, len(courses))
	for _, c := range courses {
		sectionsByCourse[c.ID] = c.Sections
	}

	var mu sync.Mutex
	failed := forEach(ctx, config, "skill validation", len(records), func(index int) error {
		rec := records[index]
		if getRandomFloat() >= validationProbability {
			return nil
		}

		before := make(map[string]float64)
		after := make(map[string]float64)
		for _, sectionID := range sectionsByCourse[rec.CourseID] {
			b, a := generateSkillLevels()
			before[sectionID] = b
			after[sectionID] = a
		}

		payload := validationPayload{
			AttendanceID: rec.ID,
			SkillsBefore: before,
			SkillsAfter:  after,
		}

		if err := client.postDecoded(ctx, config.BaseURL+"/api/validation/submit", tokenByLearner[rec.LearnerID], payload, nil, StatusOK); err != nil {
			return err
		}

		mu.Lock()
		stats.ValidationsSubmitted++
		mu.Unlock()
		return nil
	})

	stats.RequestsFailed += failed
	log.Printf("Submitted %d skill validations (failed: %d)", stats.ValidationsSubmitted, failed)
}

type evaluationPayload struct {
	CourseID           string `json:"course_id"`
	ObjectivesClarity  int    `json:"objectivesClarity"`
	ContentMastery     int    `json:"contentMastery"`
	PaceAdequacy       int    `json:"paceAdequacy"`
	MethodsVariety     int    `json:"methodsVariety"`
	ParticipantsEngage int    `json:"participantsEngage"`
	RoomSuitability    int    `json:"roomSuitability"`
	EquipmentAdequacy  int    `json:"equipmentAdequacy"`
	ScheduleConvenient int    `json:"scheduleConvenient"`
	GroupSizeAdequacy  int    `json:"groupSizeAdequacy"`
}

// submitEvaluations has every trainer self-evaluate their courses.
func submitEvaluations(ctx context.Context, client *HTTPClient, config *Config, trainers []user, courses []course, stats *Stats) {
	log.Printf("Submitting %d trainer evaluations...", len(courses))

	tokenByTrainer := make(map[string]string, len(trainers))
	for _, t := range trainers {
		tokenByTrainer[t.ID] = t.Token
	}

	for _, c := range courses {
		payload := evaluationPayload{
			CourseID:           c.ID,
			ObjectivesClarity:  generateRating(),
			ContentMastery:     generateRating(),
			PaceAdequacy:       generateRating(),
			MethodsVariety:     generateRating(),
			ParticipantsEngage: generateRating(),
			RoomSuitability:    generateRating(),
			EquipmentAdequacy:  generateRating(),
			ScheduleConvenient: generateRating(),
			GroupSizeAdequacy:  generateRating(),
		}

		if err := client.postDecoded(ctx, config.BaseURL+"/api/trainer/evaluation/submit", tokenByTrainer[c.TrainerID], payload, nil, StatusOK); err != nil {
			stats.RequestsFailed++
			if config.Verbose {
				log.Printf("evaluation for course %s failed: %v", c.ID, err)
			}
			continue
		}
		stats.EvaluationsSubmitted++
	}

	log.Printf("Submitted %d trainer evaluations", stats.EvaluationsSubmitted)
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	var requestsPerSecond float64
	totalRequests := stats.UsersCreated + stats.CoursesCreated + stats.SessionsCreated +
		stats.AttendanceSigned + stats.AttendanceValidated +
		stats.FeedbackSubmitted + stats.ValidationsSubmitted + stats.EvaluationsSubmitted

	if stats.Duration > 0 {
		requestsPerSecond = float64(totalRequests) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("usersCreated", stats.UsersCreated),
		logger.Int("coursesCreated", stats.CoursesCreated),
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("attendanceSigned", stats.AttendanceSigned),
		logger.Int("attendanceValidated", stats.AttendanceValidated),
		logger.Int("feedbackSubmitted", stats.FeedbackSubmitted),
		logger.Int("validationsSubmitted", stats.ValidationsSubmitted),
		logger.Int("evaluationsSubmitted", stats.EvaluationsSubmitted),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
