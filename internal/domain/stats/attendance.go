package stats

import (
	"github.com/unowhq/forma/internal/domain/model"
)

// AttendanceAggregator turns attendance records into a presence rate.
type AttendanceAggregator struct {
	includePending bool
}

// AttendanceOption applies a configuration option to the AttendanceAggregator.
type AttendanceOption func(*AttendanceAggregator)

// WithPendingCounted controls whether records the trainer has not ruled
// on yet count toward the denominator. Counting them reads as "absent
// until validated"; excluding them rates only resolved records.
func WithPendingCounted(include bool) AttendanceOption {
	return func(a *AttendanceAggregator) {
		a.includePending = include
	}
}

// NewAttendanceAggregator creates an aggregator. By default pending
// records count toward the denominator.
func NewAttendanceAggregator(opts ...AttendanceOption) *AttendanceAggregator {
	a := &AttendanceAggregator{includePending: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rate returns the presence percentage over records, rounded to 2
// decimals. An empty record set, or one with no resolved records when
// pending records are excluded, yields 0.
func (a *AttendanceAggregator) Rate(records []model.AttendanceRecord) float64 {
	var present, total int
	for _, r := range records {
		if !a.includePending && !r.Resolved() {
			continue
		}
		total++
		if r.IsPresent() {
			present++
		}
	}
	if total == 0 {
		return 0
	}
	return Round2(float64(present) / float64(total) * 100)
}

// PresentCount returns how many records are confirmed present.
func (a *AttendanceAggregator) PresentCount(records []model.AttendanceRecord) int {
	var n int
	for _, r := range records {
		if r.IsPresent() {
			n++
		}
	}
	return n
}
