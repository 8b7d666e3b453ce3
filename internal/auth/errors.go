package auth

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptySecret    = errors.New("jwt secret must not be empty")
	ErrInvalidToken   = errors.New("invalid token")
	ErrBadCredentials = errors.New("bad credentials")
)
