package models

// TeacherAbsentScenario frees all of one teacher's slots on the selected day.
type TeacherAbsentScenario struct {
	Active    bool   `json:"active"`
	TeacherID string `json:"teacher_id,omitempty"`
}

// SubstituteScenario rewrites an absent teacher's slots to a substitute when
// the substitute is free at that slot in the base schedule.
type SubstituteScenario struct {
	Active            bool   `json:"active"`
	OriginalTeacher   string `json:"original_teacher,omitempty"`
	SubstituteTeacher string `json:"substitute_teacher,omitempty"`
}

// LabUnavailableScenario frees slots of the listed subjects on the selected day.
type LabUnavailableScenario struct {
	Active   bool     `json:"active"`
	Subjects []string `json:"subjects,omitempty"`
}

// ShortenedDayScenario truncates the selected day after MaxPeriods periods.
type ShortenedDayScenario struct {
	Active     bool `json:"active"`
	MaxPeriods int  `json:"max_periods,omitempty"`
}

// EmergencyFreeScenario forces one class period free on the selected day,
// overriding every other scenario.
type EmergencyFreeScenario struct {
	Active  bool   `json:"active"`
	ClassID string `json:"class_id,omitempty"`
	Period  int    `json:"period"`
}

// ScenarioState is the full set of what-if toggles for a session. It is
// persisted as opaque configuration and only ever read by the overlay engine;
// the base timetable is never modified through it.
type ScenarioState struct {
	SelectedDay    int                    `json:"selected_day"`
	TeacherAbsent  TeacherAbsentScenario  `json:"teacher_absent"`
	Substitute     SubstituteScenario     `json:"substitute"`
	LabUnavailable LabUnavailableScenario `json:"lab_unavailable"`
	ShortenedDay   ShortenedDayScenario   `json:"shortened_day"`
	EmergencyFree  EmergencyFreeScenario  `json:"emergency_free"`
}

// AnyActive reports whether at least one scenario toggle is on.
func (s ScenarioState) AnyActive() bool {
	return s.TeacherAbsent.Active ||
		s.Substitute.Active ||
		s.LabUnavailable.Active ||
		s.ShortenedDay.Active ||
		s.EmergencyFree.Active
}
