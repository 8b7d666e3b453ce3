package stats

import (
	"fmt"
	"math"
	"sort"
)

// Weight sums within this tolerance of 1.0 are accepted.
const weightSumTolerance = 1e-9

// CompositeScorer folds named metrics into a single weighted score.
// Weights are fixed at construction and must sum to 1.0 so the result
// stays a convex combination of its inputs.
type CompositeScorer struct {
	weights map[string]float64
}

// NewCompositeScorer validates weights and builds a scorer. Every
// weight must be positive and the sum must be 1.0 within tolerance;
// violations fail here, never at scoring time.
func NewCompositeScorer(weights map[string]float64) (*CompositeScorer, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weights given: %w", ErrBadWeights)
	}
	var sum float64
	for name, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("weight %q is %v: %w", name, w, ErrBadWeights)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, fmt.Errorf("weights sum to %v: %w", sum, ErrBadWeights)
	}
	// Copy to shield against caller mutation.
	owned := make(map[string]float64, len(weights))
	for name, w := range weights {
		owned[name] = w
	}
	return &CompositeScorer{weights: owned}, nil
}

// Score returns the weighted sum of metrics, rounded to 2 decimals.
// A metric key with no configured weight is rejected; a configured
// weight with no supplied metric contributes 0.
func (c *CompositeScorer) Score(metrics map[string]float64) (float64, error) {
	for name := range metrics {
		if _, ok := c.weights[name]; !ok {
			return 0, fmt.Errorf("%q: %w", name, ErrUnknownMetric)
		}
	}
	var score float64
	for name, w := range c.weights {
		score += w * metrics[name]
	}
	return Round2(score), nil
}

// Metrics lists the metric names the scorer expects, sorted.
func (c *CompositeScorer) Metrics() []string {
	names := make([]string, 0, len(c.weights))
	for name := range c.weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ranked pairs an identifier with its composite score.
type Ranked struct {
	ID    string
	Score float64
}

// Rank sorts entries by score descending. The sort is stable so ties
// keep their input order.
func Rank(entries []Ranked) []Ranked {
	out := make([]Ranked, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
