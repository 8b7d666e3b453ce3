// Package pincode stores one-time login PINs keyed by email.
package pincode

import "time"

// Option applies a configuration option to the memory store.
type Option func(*memoryStore)

// WithTTL sets how long an issued PIN stays valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *memoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval sets how often expired entries are dropped.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *memoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock overrides the time source, used by tests to force expiry.
func WithClock(now func() time.Time) Option {
	return func(s *memoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGenerator overrides PIN generation, used by tests for fixed codes.
func WithGenerator(generate func() (string, error)) Option {
	return func(s *memoryStore) {
		if generate != nil {
			s.generate = generate
		}
	}
}
