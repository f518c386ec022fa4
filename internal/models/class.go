package models

import "time"

// ClassSubject binds a subject taught in a class to its weekly quota and teacher.
type ClassSubject struct {
	Subject       string `json:"subject"`
	WeeklyPeriods int    `json:"weekly_periods"`
	TeacherID     string `json:"teacher_id"`
}

// Class represents an academic class or section with its subject plan.
type Class struct {
	ID        string         `db:"id" json:"id"`
	Name      string         `db:"name" json:"name"`
	Subjects  []ClassSubject `json:"subjects"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// WeeklyDemand returns the total weekly periods the class requires.
func (c Class) WeeklyDemand() int {
	total := 0
	for _, cs := range c.Subjects {
		total += cs.WeeklyPeriods
	}
	return total
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
