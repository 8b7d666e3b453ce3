package pincode

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoPIN    = errors.New("no pending pin")
	ErrExpired  = errors.New("pin expired")
	ErrMismatch = errors.New("pin mismatch")
)
