// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AuditQueueSize bounds the in-memory audit event queue.
	AuditQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of audit recorder workers.
	WorkerCount int `koanf:"worker_count"`

	// HistoryCapacity caps how many audit entries the store retains.
	// Zero or negative means unbounded.
	HistoryCapacity int `koanf:"history_capacity"`

	// MaxHistoryLimit caps GET /api/history?limit.
	MaxHistoryLimit int `koanf:"max_history_limit"`

	// JWTSecret signs access and refresh tokens. Must be set in production.
	JWTSecret string `koanf:"jwt_secret"`

	// AccessTTLMinutes sets the access token lifetime.
	AccessTTLMinutes int `koanf:"access_ttl_minutes"`

	// RefreshTTLHours sets the refresh token lifetime.
	RefreshTTLHours int `koanf:"refresh_ttl_hours"`

	// PinTTLMinutes sets how long a login PIN stays valid.
	PinTTLMinutes int `koanf:"pin_ttl_minutes"`

	// FeedbackScale converts 1..5 feedback marks to the reporting scale.
	// 1.0 keeps raw marks, 20.0 reports percentages.
	FeedbackScale float64 `koanf:"feedback_scale"`

	// CountPendingAttendance includes unvalidated sign-ins in attendance rates.
	CountPendingAttendance bool `koanf:"count_pending_attendance"`

	// AdminWeights maps metric names to weights for course composite scores.
	AdminWeights map[string]float64 `koanf:"admin_weights"`

	// ParticipantWeights maps metric names to weights for trainer ranking.
	ParticipantWeights map[string]float64 `koanf:"participant_weights"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		AuditQueueSize:         10_000,
		WorkerCount:            runtime.NumCPU() * 2,
		HistoryCapacity:        10_000,
		MaxHistoryLimit:        500,
		JWTSecret:              "forma-dev-secret",
		AccessTTLMinutes:       60,
		RefreshTTLHours:        168,
		PinTTLMinutes:          10,
		FeedbackScale:          1.0,
		CountPendingAttendance: true,
		AdminWeights: map[string]float64{
			"attendance":   0.4,
			"satisfaction": 0.3,
			"validation":   0.3,
		},
		ParticipantWeights: map[string]float64{
			"pedagogy":    0.4,
			"skills":      0.3,
			"environment": 0.2,
			"global":      0.1,
		},
	}
	return c
}
