package stats_test

import (
	"testing"

	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(v int) *int { return &v }

func TestFeedbackAggregator_Averages(t *testing.T) {
	Convey("Given a raw-scale aggregator", t, func() {
		agg := stats.NewFeedbackAggregator()

		Convey("When two records rate clarity 8 and 6", func() {
			recs := []model.FeedbackRecord{
				{Clarity: 8, Objectives: 7, Level: 6, Trainer: 9, Materials: 5,
					MaterialOrganization: 5, WelcomeQuality: 5, PremisesComfort: 5},
				{Clarity: 6, Objectives: 7, Level: 8, Trainer: 7, Materials: 7,
					MaterialOrganization: 5, WelcomeQuality: 5, PremisesComfort: 5},
			}
			avgs := agg.Averages(recs)

			Convey("Then clarity averages to 7.00", func() {
				So(avgs[model.CriterionClarity], ShouldEqual, 7.0)
			})

			Convey("And every criterion key is present", func() {
				So(len(avgs), ShouldEqual, len(model.AllCriteria))
				for _, c := range model.AllCriteria {
					_, ok := avgs[c]
					So(ok, ShouldBeTrue)
				}
			})

			Convey("And absent global ratings count as 0 in the mean", func() {
				So(avgs[model.CriterionGlobalRating], ShouldEqual, 0)
			})
		})

		Convey("When there are no records", func() {
			avgs := agg.Averages(nil)

			Convey("Then all averages are 0", func() {
				for _, c := range model.AllCriteria {
					So(avgs[c], ShouldEqual, 0)
				}
			})
		})

		Convey("When one of two records has a global rating", func() {
			recs := []model.FeedbackRecord{
				{GlobalRating: intPtr(8)},
				{},
			}

			Convey("Then the missing rating dilutes the mean", func() {
				So(agg.GlobalSatisfaction(recs), ShouldEqual, 4.0)
			})
		})
	})

	Convey("Given a percent-projection aggregator", t, func() {
		agg := stats.NewFeedbackAggregator(stats.WithScale(stats.ScalePercent))

		Convey("When a single record rates global 4 of 5", func() {
			recs := []model.FeedbackRecord{{GlobalRating: intPtr(4)}}

			Convey("Then satisfaction projects onto 0 to 100", func() {
				So(agg.GlobalSatisfaction(recs), ShouldEqual, 80.0)
			})
		})

		Convey("When averages do not divide evenly", func() {
			recs := []model.FeedbackRecord{{Clarity: 4}, {Clarity: 3}, {Clarity: 3}}
			avgs := agg.Averages(recs)

			Convey("Then the result is rounded to 2 decimals", func() {
				So(avgs[model.CriterionClarity], ShouldEqual, 66.67)
			})
		})
	})
}
