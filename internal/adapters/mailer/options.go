package mailer

import (
	"github.com/unowhq/forma/pkg/logger"
)

// Option applies a configuration option to the LogMailer.
type Option func(*LogMailer)

// WithLogger sets a custom logger for the mailer.
func WithLogger(l logger.Logger) Option {
	return func(m *LogMailer) {
		if l != nil {
			m.logger = l
		}
	}
}
