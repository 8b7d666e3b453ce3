package seed

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	raterProfileCount  = 5
)

// Constants for rating profiles. Mandatory criteria are scored 2 to 10;
// profiles skew the distribution the way real cohorts do.
const (
	caseHarshRater    = 0
	caseAverageRater  = 1
	caseGenerousRater = 2
	caseEliteRater    = 3
	caseWideRater     = 4
)

// Section titles drawn per course, in rotation.
var sectionTitles = []string{
	"Fundamentals",
	"Safety",
	"Technique",
	"Tooling",
	"Practice",
	"Assessment",
}

// Course title fragments combined per trainer.
var courseSubjects = []string{
	"Welding",
	"Electrical Wiring",
	"First Aid",
	"Forklift Operation",
	"Food Hygiene",
	"Project Management",
	"Workplace Safety",
	"Customer Relations",
}

var courseLevels = []string{
	"Basics",
	"Intermediate",
	"Advanced",
	"Refresher",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateRating produces a mandatory-criterion score in [2, 10] with a
// varied distribution across rater profiles.
func generateRating() int {
	switch randomInt(raterProfileCount) {
	case caseHarshRater:
		// Harsh raters (2 - 5)
		return 2 + randomInt(4)
	case caseAverageRater:
		// Average raters (5 - 8) - most common
		return 5 + randomInt(4)
	case caseGenerousRater:
		// Generous raters (7 - 10)
		return 7 + randomInt(4)
	case caseEliteRater:
		// Near-perfect scores (9 - 10) - rare
		return 9 + randomInt(2)
	default:
		// Random across the full range (2 - 10)
		return 2 + randomInt(9)
	}
}

// generateGlobalRating produces a 0 to 5 overall rating skewed upward,
// matching how participants actually answer the closing question.
func generateGlobalRating() int {
	if getRandomFloat() < 0.7 {
		return 3 + randomInt(3)
	}
	return randomInt(4)
}

// generateSkillLevels produces a before/after pair for one section.
// After is never below before, so most seeded progressions are gains.
func generateSkillLevels() (before, after float64) {
	before = float64(randomInt(7)) // 0 - 6
	gain := float64(randomInt(int(10-before) + 1))
	return before, before + gain
}

// courseTitle builds a plausible course title for an index.
func courseTitle(index int) string {
	subject := courseSubjects[index%len(courseSubjects)]
	level := courseLevels[(index/len(courseSubjects))%len(courseLevels)]
	return subject + " " + level
}

// userName builds a deterministic display name for an index.
func userName(prefix string, index int) string {
	return prefix + " " + strconv.Itoa(index+1)
}

// userEmail builds a unique email for an index.
func userEmail(prefix string, index int) string {
	return prefix + strconv.Itoa(index+1) + "@seed.forma.test"
}

// feedbackComment returns a short comment for roughly a third of
// submissions, empty otherwise.
func feedbackComment() string {
	comments := []string{
		"Great session, well paced.",
		"Could use more hands-on practice.",
		"The trainer answered every question.",
		"Room was a bit small for the group.",
		"Clear objectives from the start.",
	}
	if randomInt(3) != 0 {
		return ""
	}
	return comments[randomInt(len(comments))]
}
