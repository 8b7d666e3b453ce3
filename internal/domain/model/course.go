package model

import "time"

// Section is one skill area of a course. Skill validations reference
// sections by ID.
type Section struct {
	ID       string
	CourseID string
	Title    string
	Position int
}

// Course groups ordered sections and scheduled sessions under one trainer.
type Course struct {
	ID        string
	Title     string
	TrainerID string
	Sections  []Section
	CreatedAt time.Time
}

// SectionIDs returns the IDs of the course sections in order.
func (c Course) SectionIDs() []string {
	ids := make([]string, len(c.Sections))
	for i, s := range c.Sections {
		ids[i] = s.ID
	}
	return ids
}

// HasSection reports whether id names a section of this course.
func (c Course) HasSection(id string) bool {
	for _, s := range c.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Session is a scheduled occurrence of a course.
type Session struct {
	ID       string
	CourseID string
	StartsAt time.Time
	EndsAt   time.Time
}
