// Package mailer delivers transactional messages to users. The default
// implementation writes to the application log, which is enough for
// local development and for environments where a delivery provider is
// configured out of band.
package mailer

import (
	"context"

	"github.com/unowhq/forma/pkg/logger"
)

// Mailer sends transactional messages.
type Mailer interface {
	// SendPIN delivers a login PIN to the given address.
	SendPIN(ctx context.Context, email, pin string) error

	// SendWelcome notifies a newly registered user.
	SendWelcome(ctx context.Context, email, name string) error

	// SendEnrollmentDecision tells a requested participant whether
	// their course enrollment was approved. Reason is only set on
	// rejection.
	SendEnrollmentDecision(ctx context.Context, email, courseTitle string, approved bool, reason string) error
}

// LogMailer logs outgoing messages instead of delivering them.
type LogMailer struct {
	logger logger.Logger
}

// NewLogMailer creates a mailer that writes messages to the log.
func NewLogMailer(opts ...Option) *LogMailer {
	m := &LogMailer{
		logger: logger.Get().Named("mailer"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// SendPIN logs the PIN that would be delivered to the address.
func (m *LogMailer) SendPIN(ctx context.Context, email, pin string) error {
	m.logger.Info(ctx, "login PIN issued",
		logger.String("email", email),
		logger.String("pin", pin),
	)
	return nil
}

// SendWelcome logs the welcome message for a new user.
func (m *LogMailer) SendWelcome(ctx context.Context, email, name string) error {
	m.logger.Info(ctx, "welcome message",
		logger.String("email", email),
		logger.String("name", name),
	)
	return nil
}

// SendEnrollmentDecision logs the enrollment decision message.
func (m *LogMailer) SendEnrollmentDecision(ctx context.Context, email, courseTitle string, approved bool, reason string) error {
	m.logger.Info(ctx, "enrollment decision",
		logger.String("email", email),
		logger.String("course", courseTitle),
		logger.Bool("approved", approved),
		logger.String("reason", reason),
	)
	return nil
}
