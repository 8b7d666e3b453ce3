package seed

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/unowhq/forma/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "seed_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`Forma Seed Tool
===============

Populates a running Forma instance with a realistic training population:
accounts, courses, sessions, attendance, feedback, skill validations and
trainer evaluations, then checks the admin dashboard for consistency.

Authenticated requests use tokens minted locally with the shared JWT
secret, so the target must run with the same -secret value.

Usage:
  go run cmd/seed/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -trainers int
        Number of trainers to create (default 5)
  -learners int
        Number of learners to create (default 100)
  -courses int
        Courses per trainer (default 2)
  -sessions int
        Sessions per course (default 3)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -secret string
        JWT secret shared with the target service (default "forma-dev-secret")
  -log string
        Log file for run output (default: seed_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Seed with default settings
  go run cmd/seed/main.go

  # Seed a larger population
  go run cmd/seed/main.go -learners 1000 -trainers 20 -workers 16

  # Seed a remote instance
  go run cmd/seed/main.go -url http://staging:9080 -secret staging-secret
`)
}
