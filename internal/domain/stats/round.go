// Package stats computes the derived course aggregates: attendance
// rates, feedback averages, skill progression, and weighted composite
// scores. All functions are pure; zero denominators yield 0, never NaN.
package stats

import "math"

// Round2 rounds to 2 decimals, the precision of every externally
// visible rate and average.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to 1 decimal, used for per-section skill averages.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
