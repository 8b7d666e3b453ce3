package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/unowhq/forma/internal/seed"
)

// Default configuration constants.
const (
	defaultTrainers          = 5
	defaultLearners          = 100
	defaultCoursesPerTrainer = 2
	defaultSessionsPerCourse = 3
	defaultWorkers           = 2 // multiplier for runtime.NumCPU()
	defaultTimeout           = 30 * time.Second
	defaultRunTimeout        = 10 * time.Minute
	defaultSecret            = "forma-dev-secret"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		trainers = flag.Int("trainers", defaultTrainers, "Number of trainer accounts to create")
		learners = flag.Int("learners", defaultLearners, "Number of learner accounts to create")
		courses  = flag.Int("courses", defaultCoursesPerTrainer, "Courses created per trainer")
		sessions = flag.Int("sessions", defaultSessionsPerCourse, "Sessions scheduled per course")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		secret   = flag.String("secret", defaultSecret, "JWT secret shared with the service")
		logFile  = flag.String("log", "", "Log file for seed output (default: seed_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	// Setup logging
	if err := seed.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create seed configuration
	config := &seed.Config{
		BaseURL:           *baseURL,
		Trainers:          *trainers,
		Learners:          *learners,
		CoursesPerTrainer: *courses,
		SessionsPerCourse: *sessions,
		Workers:           *workers,
		Timeout:           *timeout,
		Secret:            *secret,
		LogFile:           *logFile,
		Verbose:           *verbose,
	}

	// Run the seeder
	if err := seed.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		return
	}
}
