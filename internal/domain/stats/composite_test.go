package stats_test

import (
	"testing"

	"github.com/unowhq/forma/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewCompositeScorer(t *testing.T) {
	Convey("Given weights summing to 1.0", t, func() {
		scorer, err := stats.NewCompositeScorer(map[string]float64{
			"attendance":   0.4,
			"satisfaction": 0.3,
			"validation":   0.3,
		})

		Convey("Then construction succeeds", func() {
			So(err, ShouldBeNil)
			So(scorer, ShouldNotBeNil)
			So(scorer.Metrics(), ShouldResemble, []string{"attendance", "satisfaction", "validation"})
		})
	})

	Convey("Given weights summing to something else", t, func() {
		_, err := stats.NewCompositeScorer(map[string]float64{
			"attendance":   0.5,
			"satisfaction": 0.3,
		})

		Convey("Then construction fails fast", func() {
			So(err, ShouldNotBeNil)
			So(err, ShouldWrap, stats.ErrBadWeights)
		})
	})

	Convey("Given a non-positive weight", t, func() {
		_, err := stats.NewCompositeScorer(map[string]float64{
			"attendance":   1.2,
			"satisfaction": -0.2,
		})

		Convey("Then construction fails", func() {
			So(err, ShouldWrap, stats.ErrBadWeights)
		})
	})

	Convey("Given no weights at all", t, func() {
		_, err := stats.NewCompositeScorer(nil)

		Convey("Then construction fails", func() {
			So(err, ShouldWrap, stats.ErrBadWeights)
		})
	})
}

func TestCompositeScorer_Score(t *testing.T) {
	Convey("Given the course-ranking weighting", t, func() {
		scorer, err := stats.NewCompositeScorer(map[string]float64{
			"attendance":   0.4,
			"satisfaction": 0.3,
			"validation":   0.3,
		})
		So(err, ShouldBeNil)

		Convey("When all metrics are supplied", func() {
			score, err := scorer.Score(map[string]float64{
				"attendance":   80,
				"satisfaction": 70,
				"validation":   60,
			})

			Convey("Then the score is the weighted sum", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 71.0)
			})
		})

		Convey("When a metric is missing", func() {
			score, err := scorer.Score(map[string]float64{
				"attendance": 100,
			})

			Convey("Then it contributes 0", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 40.0)
			})
		})

		Convey("When an unknown metric sneaks in", func() {
			_, err := scorer.Score(map[string]float64{
				"attendance": 80,
				"charisma":   99,
			})

			Convey("Then scoring is rejected", func() {
				So(err, ShouldWrap, stats.ErrUnknownMetric)
			})
		})

		Convey("When all metrics share one value", func() {
			score, err := scorer.Score(map[string]float64{
				"attendance":   55,
				"satisfaction": 55,
				"validation":   55,
			})

			Convey("Then the convex combination returns that value", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 55.0)
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given scored entries", t, func() {
		ranked := stats.Rank([]stats.Ranked{
			{ID: "b", Score: 70},
			{ID: "a", Score: 90},
			{ID: "c", Score: 70},
		})

		Convey("Then they sort descending with stable ties", func() {
			So(ranked[0].ID, ShouldEqual, "a")
			So(ranked[1].ID, ShouldEqual, "b")
			So(ranked[2].ID, ShouldEqual, "c")
		})
	})
}
