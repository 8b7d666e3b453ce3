package stats

import (
	"math"

	"github.com/unowhq/forma/internal/domain/model"
)

// Skill levels are self-assessed on this scale; progress measures how
// much of the remaining headroom was covered.
const maxSkillLevel = 10.0

// SectionResult is the aggregated progression for one course section.
type SectionResult struct {
	SectionID       string
	BeforeAverage   float64
	AfterAverage    float64
	ProgressPercent int
}

// CourseSkills is the course-level skill aggregate derived from all
// section averages.
type CourseSkills struct {
	Before float64 // 0 to 100 headline scale
	After  float64 // 0 to 100 headline scale
	Score  float64 // share of headroom covered, capped at 100
}

// SkillProgressAggregator computes skill progression per section and
// per course from validation records.
type SkillProgressAggregator struct{}

// NewSkillProgressAggregator creates an aggregator.
func NewSkillProgressAggregator() *SkillProgressAggregator {
	return &SkillProgressAggregator{}
}

// progressPercent measures improvement against the remaining headroom.
// A subject already at the ceiling scores 100; the result is capped at
// 100 but deliberately not floored, so regressions go negative.
func progressPercent(before, after float64) int {
	maxPossible := maxSkillLevel - before
	if maxPossible <= 0 {
		return 100
	}
	p := int(math.Round((after - before) / maxPossible * 100))
	if p > 100 {
		p = 100
	}
	return p
}

// Sections aggregates per-section averages over validations. Every
// requested section appears in the result in order; a section no
// validation covers reads as zero progress from level 0.
func (s *SkillProgressAggregator) Sections(validations []model.SkillValidationRecord, sectionIDs []string) []SectionResult {
	out := make([]SectionResult, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		var beforeSum, afterSum float64
		var n int
		for _, v := range validations {
			b, okB := v.SkillsBefore[id]
			a, okA := v.SkillsAfter[id]
			if !okB || !okA {
				continue
			}
			beforeSum += b
			afterSum += a
			n++
		}
		r := SectionResult{SectionID: id}
		if n > 0 {
			before := beforeSum / float64(n)
			after := afterSum / float64(n)
			r.BeforeAverage = Round1(before)
			r.AfterAverage = Round1(after)
			r.ProgressPercent = progressPercent(before, after)
		}
		out = append(out, r)
	}
	return out
}

// Course folds section averages into the course-level skill aggregate.
// Section means are averaged evenly, then projected onto the 0 to 100
// headline scale; the score applies the headroom formula to the raw
// course means.
func (s *SkillProgressAggregator) Course(sections []SectionResult) CourseSkills {
	n := len(sections)
	if n == 0 {
		n = 1
	}
	var beforeSum, afterSum float64
	for _, sec := range sections {
		beforeSum += sec.BeforeAverage
		afterSum += sec.AfterAverage
	}
	before := beforeSum / float64(n)
	after := afterSum / float64(n)

	score := float64(progressPercent(before, after))
	return CourseSkills{
		Before: Round2(before * 10),
		After:  Round2(after * 10),
		Score:  Round2(score),
	}
}
