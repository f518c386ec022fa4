package models

import "time"

// Teacher represents an instructor together with their scheduling limits.
type Teacher struct {
	ID                string    `db:"id" json:"id"`
	FullName          string    `db:"full_name" json:"full_name"`
	Subjects          []string  `json:"subjects"`
	Sections          []string  `json:"sections,omitempty"`
	MaxPeriodsPerDay  int       `db:"max_periods_per_day" json:"max_periods_per_day"`
	MaxPeriodsPerWeek int       `db:"max_periods_per_week" json:"max_periods_per_week"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Teaches reports whether the teacher is qualified for the subject.
func (t Teacher) Teaches(subject string) bool {
	for _, s := range t.Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// EligibleFor reports whether the teacher may be scheduled for the class.
// An empty section list means no restriction.
func (t Teacher) EligibleFor(classID string) bool {
	if len(t.Sections) == 0 {
		return true
	}
	for _, s := range t.Sections {
		if s == classID {
			return true
		}
	}
	return false
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
