package stats_test

import (
	"testing"

	"github.com/unowhq/forma/internal/domain/model"
	"github.com/unowhq/forma/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func validation(section string, before, after float64) model.SkillValidationRecord {
	return model.SkillValidationRecord{
		SkillsBefore: map[string]float64{section: before},
		SkillsAfter:  map[string]float64{section: after},
	}
}

func TestSkillProgressAggregator_Sections(t *testing.T) {
	agg := stats.NewSkillProgressAggregator()

	Convey("Given a single validation going from 4 to 8", t, func() {
		res := agg.Sections([]model.SkillValidationRecord{validation("sec-1", 4, 8)}, []string{"sec-1"})

		Convey("Then progress covers 4 of 6 remaining points", func() {
			So(len(res), ShouldEqual, 1)
			So(res[0].BeforeAverage, ShouldEqual, 4.0)
			So(res[0].AfterAverage, ShouldEqual, 8.0)
			So(res[0].ProgressPercent, ShouldEqual, 67)
		})
	})

	Convey("Given no movement from 9 to 9", t, func() {
		res := agg.Sections([]model.SkillValidationRecord{validation("sec-1", 9, 9)}, []string{"sec-1"})

		Convey("Then progress is 0", func() {
			So(res[0].ProgressPercent, ShouldEqual, 0)
		})
	})

	Convey("Given a subject already at the ceiling", t, func() {
		res := agg.Sections([]model.SkillValidationRecord{validation("sec-1", 10, 10)}, []string{"sec-1"})

		Convey("Then progress is 100", func() {
			So(res[0].ProgressPercent, ShouldEqual, 100)
		})
	})

	Convey("Given a regression from 8 to 5", t, func() {
		res := agg.Sections([]model.SkillValidationRecord{validation("sec-1", 8, 5)}, []string{"sec-1"})

		Convey("Then progress goes negative instead of clamping to 0", func() {
			So(res[0].ProgressPercent, ShouldEqual, -150)
		})
	})

	Convey("Given two validations on the same section", t, func() {
		res := agg.Sections([]model.SkillValidationRecord{
			validation("sec-1", 2, 6),
			validation("sec-1", 4, 8),
		}, []string{"sec-1"})

		Convey("Then averages fold both subjects", func() {
			So(res[0].BeforeAverage, ShouldEqual, 3.0)
			So(res[0].AfterAverage, ShouldEqual, 7.0)
			So(res[0].ProgressPercent, ShouldEqual, 57)
		})
	})

	Convey("Given a section no validation covers", t, func() {
		res := agg.Sections([]model.SkillValidationRecord{validation("sec-1", 4, 8)}, []string{"sec-1", "sec-2"})

		Convey("Then the section is present with zero progress", func() {
			So(len(res), ShouldEqual, 2)
			So(res[1].SectionID, ShouldEqual, "sec-2")
			So(res[1].BeforeAverage, ShouldEqual, 0)
			So(res[1].AfterAverage, ShouldEqual, 0)
			So(res[1].ProgressPercent, ShouldEqual, 0)
		})
	})

	Convey("Given a validation missing the section key", t, func() {
		v := model.SkillValidationRecord{
			SkillsBefore: map[string]float64{"other": 3},
			SkillsAfter:  map[string]float64{"other": 5},
		}
		res := agg.Sections([]model.SkillValidationRecord{v}, []string{"sec-1"})

		Convey("Then it does not contribute", func() {
			So(res[0].ProgressPercent, ShouldEqual, 0)
		})
	})
}

func TestSkillProgressAggregator_Course(t *testing.T) {
	agg := stats.NewSkillProgressAggregator()

	Convey("Given two section results", t, func() {
		course := agg.Course([]stats.SectionResult{
			{BeforeAverage: 4, AfterAverage: 8},
			{BeforeAverage: 6, AfterAverage: 8},
		})

		Convey("Then course skills project onto the headline scale", func() {
			So(course.Before, ShouldEqual, 50.0)
			So(course.After, ShouldEqual, 80.0)
		})

		Convey("And the score applies the headroom formula to the means", func() {
			// before 5, after 8: 3 of 5 remaining points.
			So(course.Score, ShouldEqual, 60.0)
		})
	})

	Convey("Given no sections", t, func() {
		course := agg.Course(nil)

		Convey("Then everything is 0 with no division error", func() {
			So(course.Before, ShouldEqual, 0)
			So(course.After, ShouldEqual, 0)
			So(course.Score, ShouldEqual, 0)
		})
	})
}
