package stats

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrBadWeights    = errors.New("weights must be positive and sum to 1.0")
	ErrUnknownMetric = errors.New("metric has no configured weight")
)
