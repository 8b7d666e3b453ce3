package stats

import (
	"github.com/unowhq/forma/internal/domain/model"
)

// Projection scales applied to raw 0 to 10 criterion averages.
const (
	ScaleRaw     = 1.0  // keep the 0 to 10 scale
	ScalePercent = 20.0 // project a 0 to 5 mean onto 0 to 100
)

// FeedbackAggregator averages feedback criteria across records.
type FeedbackAggregator struct {
	scale float64
}

// FeedbackOption applies a configuration option to the FeedbackAggregator.
type FeedbackOption func(*FeedbackAggregator)

// WithScale sets the multiplier applied to every criterion average.
func WithScale(scale float64) FeedbackOption {
	return func(f *FeedbackAggregator) {
		if scale > 0 {
			f.scale = scale
		}
	}
}

// NewFeedbackAggregator creates an aggregator producing raw-scale
// averages unless configured otherwise.
func NewFeedbackAggregator(opts ...FeedbackOption) *FeedbackAggregator {
	f := &FeedbackAggregator{scale: ScaleRaw}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Averages returns the scaled mean of every criterion over records,
// rounded to 2 decimals. Every criterion key is present in the result;
// with no records all values are 0. Absent optional values contribute 0
// to the sum but the record still counts in the denominator.
func (f *FeedbackAggregator) Averages(records []model.FeedbackRecord) map[string]float64 {
	out := make(map[string]float64, len(model.AllCriteria))
	for _, c := range model.AllCriteria {
		out[c] = 0
	}
	if len(records) == 0 {
		return out
	}
	n := float64(len(records))
	for _, c := range model.AllCriteria {
		var sum float64
		for _, r := range records {
			sum += r.Criterion(c)
		}
		out[c] = Round2(sum / n * f.scale)
	}
	return out
}

// Average returns the scaled mean of a single criterion.
func (f *FeedbackAggregator) Average(records []model.FeedbackRecord, criterion string) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.Criterion(criterion)
	}
	return Round2(sum / float64(len(records)) * f.scale)
}

// GlobalSatisfaction is the scaled mean of the global rating. Under the
// percent projection a 0 to 5 rating reads as 0 to 100.
func (f *FeedbackAggregator) GlobalSatisfaction(records []model.FeedbackRecord) float64 {
	return f.Average(records, model.CriterionGlobalRating)
}
