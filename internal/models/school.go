package models

// SchoolConfig describes the school calendar the timetable is laid out on.
// Break periods are calendar fixtures and are never assignable.
type SchoolConfig struct {
	Days          []string       `json:"days"`
	PeriodsPerDay int            `json:"periods_per_day"`
	Breaks        map[int]string `json:"breaks,omitempty"`
}

// DefaultSchoolConfig returns a five day, eight period week without breaks.
func DefaultSchoolConfig() SchoolConfig {
	return SchoolConfig{
		Days:          []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		PeriodsPerDay: 8,
		Breaks:        map[int]string{},
	}
}

// IsBreak reports whether the period index is a designated break.
func (c SchoolConfig) IsBreak(period int) bool {
	_, ok := c.Breaks[period]
	return ok
}

// AssignablePeriodsPerDay returns the number of non-break periods in a day.
func (c SchoolConfig) AssignablePeriodsPerDay() int {
	count := 0
	for p := 0; p < c.PeriodsPerDay; p++ {
		if !c.IsBreak(p) {
			count++
		}
	}
	return count
}

// WeeklyCapacity returns the number of assignable slots per class per week.
func (c SchoolConfig) WeeklyCapacity() int {
	return len(c.Days) * c.AssignablePeriodsPerDay()
}
