package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrForbidden marks an operation on a record the actor does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrAuditBackpressure marks a mutation whose audit entry could not
	// be queued. The mutation itself is persisted.
	ErrAuditBackpressure = errors.New("audit queue full")

	// ErrNotStarted marks a call on a service that was never started.
	ErrNotStarted = errors.New("service not started")
)
