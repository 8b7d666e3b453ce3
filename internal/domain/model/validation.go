package model

import "time"

// SkillValidationRecord captures self-assessed skill levels before and
// after a session, keyed by section ID. Both maps carry the same keys
// and every key must name a section of the course the session belongs
// to; values are on a 0 to 10 scale.
type SkillValidationRecord struct {
	ID           string
	SubjectID    string
	AttendanceID string
	CourseID     string
	SkillsBefore map[string]float64
	SkillsAfter  map[string]float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TrainerEvaluation is a trainer's self-evaluation of one course run.
// Criteria are scored 2 to 10 and grouped for composite scoring.
type TrainerEvaluation struct {
	ID        string
	TrainerID string
	CourseID  string

	// Pedagogy group.
	ObjectivesClarity  int
	ContentMastery     int
	PaceAdequacy       int
	MethodsVariety     int
	ParticipantsEngage int

	// Environment group.
	RoomSuitability    int
	EquipmentAdequacy  int
	ScheduleConvenient int
	GroupSizeAdequacy  int

	Adapted        bool
	AdaptedDetails string
	Comments       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PedagogyAverage is the mean of the pedagogy-group criteria.
func (e TrainerEvaluation) PedagogyAverage() float64 {
	sum := e.ObjectivesClarity + e.ContentMastery + e.PaceAdequacy +
		e.MethodsVariety + e.ParticipantsEngage
	return float64(sum) / 5
}

// EnvironmentAverage is the mean of the environment-group criteria.
func (e TrainerEvaluation) EnvironmentAverage() float64 {
	sum := e.RoomSuitability + e.EquipmentAdequacy + e.ScheduleConvenient +
		e.GroupSizeAdequacy
	return float64(sum) / 4
}
