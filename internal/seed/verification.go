package seed

import (
	"context"
	"fmt"
	"log"

	"github.com/unowhq/forma/internal/domain/types"
)

const topCoursesToShow = 5

// verifyDashboard fetches the admin dashboard and checks that the
// aggregates are consistent with the population just seeded.
func verifyDashboard(ctx context.Context, client *HTTPClient, config *Config, admin user, courses []course, stats *Stats) error {
	log.Printf("Verifying admin dashboard...")

	var courseStats []types.AdminCourseStats
	if err := client.getDecoded(ctx, config.BaseURL+"/api/stats/admin", admin.Token, &courseStats); err != nil {
		return fmt.Errorf("fetch course stats: %w", err)
	}

	if len(courseStats) != len(courses) {
		return fmt.Errorf("dashboard shows %d courses, seeded %d", len(courseStats), len(courses))
	}

	var best *types.AdminCourseStats
	for i := range courseStats {
		cs := &courseStats[i]
		if cs.CompositeScore < 0 || cs.CompositeScore > PercentageMultiplier {
			return fmt.Errorf("course %s composite score %.2f out of range", cs.CourseID, cs.CompositeScore)
		}
		if cs.AttendanceRate < 0 || cs.AttendanceRate > PercentageMultiplier {
			return fmt.Errorf("course %s attendance rate %.2f out of range", cs.CourseID, cs.AttendanceRate)
		}
		if best == nil || cs.CompositeScore > best.CompositeScore {
			best = cs
		}
	}

	var global types.GlobalStats
	if err := client.getDecoded(ctx, config.BaseURL+"/api/stats/admin/global", admin.Token, &global); err != nil {
		return fmt.Errorf("fetch global stats: %w", err)
	}

	if global.TrainerCount != config.Trainers {
		return fmt.Errorf("dashboard shows %d trainers, seeded %d", global.TrainerCount, config.Trainers)
	}
	if global.LearnerCount != config.Learners {
		return fmt.Errorf("dashboard shows %d learners, seeded %d", global.LearnerCount, config.Learners)
	}
	if best != nil && best.CompositeScore > 0 {
		if global.BestCourse == nil {
			return fmt.Errorf("dashboard has no best course, expected %s", best.CourseID)
		}
		if global.BestCourse.CompositeScore != best.CompositeScore {
			return fmt.Errorf("best course score %.2f does not match top composite %.2f",
				global.BestCourse.CompositeScore, best.CompositeScore)
		}
	}

	displayTopCourses(courseStats)

	log.Printf("Dashboard verified: %d courses, average composite %.2f",
		len(courseStats), calculateAverageComposite(courseStats))
	return nil
}

// displayTopCourses prints the highest scoring courses.
func displayTopCourses(courseStats []types.AdminCourseStats) {
	shown := make([]types.AdminCourseStats, len(courseStats))
	copy(shown, courseStats)

	// Selection sort is fine at dashboard scale.
	for i := 0; i < len(shown); i++ {
		top := i
		for j := i + 1; j < len(shown); j++ {
			if shown[j].CompositeScore > shown[top].CompositeScore {
				top = j
			}
		}
		shown[i], shown[top] = shown[top], shown[i]
	}

	limit := topCoursesToShow
	if len(shown) < limit {
		limit = len(shown)
	}

	log.Printf("Top %d courses by composite score:", limit)
	for i := 0; i < limit; i++ {
		cs := shown[i]
		log.Printf("  %d. %s  composite=%.2f attendance=%.2f satisfaction=%.2f validation=%.2f",
			i+1, cs.Title, cs.CompositeScore, cs.AttendanceRate, cs.Satisfaction, cs.ValidationProgress)
	}
}

// calculateAverageComposite returns the mean composite score across courses.
func calculateAverageComposite(courseStats []types.AdminCourseStats) float64 {
	if len(courseStats) == 0 {
		return 0
	}
	var sum float64
	for _, cs := range courseStats {
		sum += cs.CompositeScore
	}
	return sum / float64(len(courseStats))
}
