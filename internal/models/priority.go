package models

// ClassPriorityConfig lists optional soft scheduling preferences for a class.
// Its absence means the hard model alone decides placement.
type ClassPriorityConfig struct {
	ClassID          string   `db:"class_id" json:"class_id"`
	PrioritySubjects []string `json:"priority_subjects,omitempty"`
	WeakSubjects     []string `json:"weak_subjects,omitempty"`
	HeavySubjects    []string `json:"heavy_subjects,omitempty"`
}

// IsPriority reports whether the subject should prefer early periods.
func (c ClassPriorityConfig) IsPriority(subject string) bool {
	return containsSubject(c.PrioritySubjects, subject)
}

// IsHeavy reports whether back-to-back placement of the subject is discouraged.
func (c ClassPriorityConfig) IsHeavy(subject string) bool {
	return containsSubject(c.HeavySubjects, subject)
}

// IsWeak reports whether the subject may be bumped during repair.
func (c ClassPriorityConfig) IsWeak(subject string) bool {
	return containsSubject(c.WeakSubjects, subject)
}

func containsSubject(list []string, subject string) bool {
	for _, s := range list {
		if s == subject {
			return true
		}
	}
	return false
}
