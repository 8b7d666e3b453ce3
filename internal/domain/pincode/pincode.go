// Package pincode stores one-time login PINs keyed by email.
//
// Every entry expires after a TTL and is consumed atomically on
// verification, so a code can never be replayed and the store cannot
// grow without bound.
package pincode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// PINs are four digits in this range, matching what the mailer template
// expects.
const (
	pinMin = 1000
	pinMax = 9999

	defaultTTL           = 10 * time.Minute
	defaultSweepInterval = time.Minute
)

// Store issues and consumes one-time PINs.
type Store interface {
	// Issue generates a PIN for email, replacing any pending one.
	Issue(ctx context.Context, email string) (string, error)

	// Consume atomically verifies and removes the PIN for email.
	// It fails with ErrNoPIN when nothing is pending, ErrExpired when
	// the TTL has passed, and ErrMismatch on a wrong code. A consumed
	// or failed-expired entry is gone either way.
	Consume(ctx context.Context, email, code string) error

	// Size returns the number of pending PINs.
	Size() int
}

type entry struct {
	code      string
	expiresAt time.Time
}

// memoryStore implements Store with a mutex-guarded map and a
// background sweep that drops expired entries.
type memoryStore struct {
	mu      sync.Mutex
	pending map[string]entry

	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	generate      func() (string, error)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryStore creates a PIN store with configuration options and
// starts its expiry sweep.
func NewMemoryStore(opts ...Option) Store {
	s := &memoryStore{
		pending:       make(map[string]entry),
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
		generate:      randomPIN,
		stopCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweep()

	return s
}

// randomPIN draws a uniform four-digit code.
func randomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(pinMax-pinMin+1))
	if err != nil {
		return "", fmt.Errorf("generate pin: %w", err)
	}
	return fmt.Sprintf("%d", pinMin+n.Int64()), nil
}

// Issue generates a PIN for email, replacing any pending one.
func (s *memoryStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[email] = entry{code: code, expiresAt: s.now().Add(s.ttl)}
	return code, nil
}

// Consume atomically verifies and removes the PIN for email.
func (s *memoryStore) Consume(ctx context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[email]
	if !ok {
		return ErrNoPIN
	}
	if s.now().After(e.expiresAt) {
		delete(s.pending, email)
		return ErrExpired
	}
	if e.code != code {
		return ErrMismatch
	}
	delete(s.pending, email)
	return nil
}

// Size returns the number of pending PINs.
func (s *memoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops the expiry sweep.
func (s *memoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}

// sweep drops expired entries so abandoned logins do not accumulate.
func (s *memoryStore) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for email, e := range s.pending {
				if now.After(e.expiresAt) {
					delete(s.pending, email)
				}
			}
			s.mu.Unlock()
		}
	}
}
