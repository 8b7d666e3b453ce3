package stats_test

import (
	"testing"

	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func boolPtr(b bool) *bool { return &b }

func records(presence ...*bool) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, len(presence))
	for i, p := range presence {
		out[i] = model.AttendanceRecord{ID: "att-" + string(rune('a'+i)), Present: p}
	}
	return out
}

func TestAttendanceAggregator_Rate(t *testing.T) {
	Convey("Given an aggregator that counts pending records", t, func() {
		agg := stats.NewAttendanceAggregator()

		Convey("When three of four records are present", func() {
			recs := records(boolPtr(true), boolPtr(true), boolPtr(false), boolPtr(true))

			Convey("Then the rate is 75.00", func() {
				So(agg.Rate(recs), ShouldEqual, 75.0)
			})
		})

		Convey("When the record set is empty", func() {
			Convey("Then the rate is 0, not NaN", func() {
				So(agg.Rate(nil), ShouldEqual, 0)
			})
		})

		Convey("When all records are pending", func() {
			recs := records(nil, nil, nil)

			Convey("Then pending records count as absent", func() {
				So(agg.Rate(recs), ShouldEqual, 0)
			})
		})

		Convey("When one of two records is pending", func() {
			recs := records(boolPtr(true), nil)

			Convey("Then the pending record dilutes the rate", func() {
				So(agg.Rate(recs), ShouldEqual, 50.0)
			})
		})

		Convey("When all records are present", func() {
			recs := records(boolPtr(true), boolPtr(true))

			Convey("Then the rate is 100", func() {
				So(agg.Rate(recs), ShouldEqual, 100.0)
			})
		})

		Convey("When the split does not divide evenly", func() {
			recs := records(boolPtr(true), boolPtr(false), boolPtr(false))

			Convey("Then the rate is rounded to 2 decimals", func() {
				So(agg.Rate(recs), ShouldEqual, 33.33)
			})
		})
	})

	Convey("Given an aggregator that excludes pending records", t, func() {
		agg := stats.NewAttendanceAggregator(stats.WithPendingCounted(false))

		Convey("When one of two records is pending", func() {
			recs := records(boolPtr(true), nil)

			Convey("Then only the resolved record counts", func() {
				So(agg.Rate(recs), ShouldEqual, 100.0)
			})
		})

		Convey("When every record is pending", func() {
			recs := records(nil, nil)

			Convey("Then the empty denominator yields 0", func() {
				So(agg.Rate(recs), ShouldEqual, 0)
			})
		})
	})
}

func TestAttendanceAggregator_PresentCount(t *testing.T) {
	Convey("Given mixed records", t, func() {
		agg := stats.NewAttendanceAggregator()
		recs := records(boolPtr(true), boolPtr(false), nil, boolPtr(true))

		Convey("Then only confirmed presences count", func() {
			So(agg.PresentCount(recs), ShouldEqual, 2)
		})
	})
}
