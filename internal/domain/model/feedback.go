package model

import "time"

// Feedback criterion names as they appear in API payloads and
// aggregated averages.
const (
	CriterionClarity              = "clarity"
	CriterionObjectives           = "objectives"
	CriterionLevel                = "level"
	CriterionTrainer              = "trainer"
	CriterionMaterials            = "materials"
	CriterionMaterialOrganization = "materialOrganization"
	CriterionWelcomeQuality       = "welcomeQuality"
	CriterionPremisesComfort      = "premisesComfort"
	CriterionGlobalRating         = "globalRating"
)

// MandatoryCriteria must be supplied on every submission, scored 2 to 10.
var MandatoryCriteria = []string{
	CriterionClarity,
	CriterionObjectives,
	CriterionLevel,
	CriterionTrainer,
	CriterionMaterials,
}

// AllCriteria is the fixed set of averaged criteria, in output order.
var AllCriteria = []string{
	CriterionClarity,
	CriterionObjectives,
	CriterionLevel,
	CriterionTrainer,
	CriterionMaterials,
	CriterionMaterialOrganization,
	CriterionWelcomeQuality,
	CriterionPremisesComfort,
	CriterionGlobalRating,
}

// FeedbackRecord is one participant's rating of a session. Exactly one
// record exists per (subject, attendance); resubmission overwrites.
type FeedbackRecord struct {
	ID           string
	SubjectID    string
	AttendanceID string
	CourseID     string

	Clarity              int
	Objectives           int
	Level                int
	Trainer              int
	Materials            int
	MaterialOrganization int
	WelcomeQuality       int
	PremisesComfort      int
	GlobalRating         *int

	Comments  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Criterion returns the stored value for a named criterion. Absent
// global ratings read as 0, matching how averages treat them.
func (f FeedbackRecord) Criterion(name string) float64 {
	switch name {
	case CriterionClarity:
		return float64(f.Clarity)
	case CriterionObjectives:
		return float64(f.Objectives)
	case CriterionLevel:
		return float64(f.Level)
	case CriterionTrainer:
		return float64(f.Trainer)
	case CriterionMaterials:
		return float64(f.Materials)
	case CriterionMaterialOrganization:
		return float64(f.MaterialOrganization)
	case CriterionWelcomeQuality:
		return float64(f.WelcomeQuality)
	case CriterionPremisesComfort:
		return float64(f.PremisesComfort)
	case CriterionGlobalRating:
		if f.GlobalRating == nil {
			return 0
		}
		return float64(*f.GlobalRating)
	}
	return 0
}
