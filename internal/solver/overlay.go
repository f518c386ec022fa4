package solver

import "github.com/noah-isme/sma-timetable-api/internal/models"

// ResolveScenarios computes the what-if view of a frozen base timetable. It
// is a pure function: the base is copied, never written, and the same inputs
// always yield the same derived view.
//
// Scenarios apply to the selected day only, in fixed precedence:
//
//  1. lab unavailability frees slots of the listed subjects;
//  2. teacher absence frees the teacher's slots, unless the substitute pair
//     names that exact teacher and the substitute is free at the slot in the
//     base schedule, in which case the slot is rewritten to the substitute;
//  3. a shortened day frees every period at or past the declared maximum;
//  4. an emergency free period frees the named class slot last, regardless
//     of the prior steps.
//
// A scenario referencing a teacher or class that no longer exists in the
// domain model is treated as inactive; the view stays total.
func ResolveScenarios(
	base models.Timetable,
	config models.SchoolConfig,
	teachers []models.Teacher,
	classes []models.Class,
	state models.ScenarioState,
) models.Timetable {
	out := base.Clone()
	day := state.SelectedDay
	if day < 0 || day >= len(config.Days) || !state.AnyActive() {
		return out
	}

	teacherSet := make(map[string]bool, len(teachers))
	for _, t := range teachers {
		teacherSet[t.ID] = true
	}
	classSet := make(map[string]bool, len(classes))
	for _, c := range classes {
		classSet[c.ID] = true
	}

	if lab := state.LabUnavailable; lab.Active && len(lab.Subjects) > 0 {
		unavailable := make(map[string]bool, len(lab.Subjects))
		for _, s := range lab.Subjects {
			unavailable[s] = true
		}
		for key, val := range out {
			if key.Day == day && unavailable[val.Subject] {
				delete(out, key)
			}
		}
	}

	if absent := state.TeacherAbsent; absent.Active && teacherSet[absent.TeacherID] {
		substituteFor := substituteTeacher(state, absent.TeacherID, teacherSet)
		for key, val := range out {
			if key.Day != day || val.TeacherID != absent.TeacherID {
				continue
			}
			if substituteFor != "" && substituteFreeAt(base, substituteFor, key.Day, key.Period) {
				val.TeacherID = substituteFor
				out[key] = val
				continue
			}
			delete(out, key)
		}
	}

	if short := state.ShortenedDay; short.Active && short.MaxPeriods > 0 {
		for key := range out {
			if key.Day == day && key.Period >= short.MaxPeriods {
				delete(out, key)
			}
		}
	}

	if free := state.EmergencyFree; free.Active && classSet[free.ClassID] &&
		free.Period >= 0 && free.Period < config.PeriodsPerDay {
		delete(out, models.SlotKey{ClassID: free.ClassID, Day: day, Period: free.Period})
	}

	return out
}

// substituteTeacher resolves the substitute for an absent teacher, or ""
// when the substitution scenario does not cover this exact teacher or names
// someone who no longer exists.
func substituteTeacher(state models.ScenarioState, absentID string, teacherSet map[string]bool) string {
	sub := state.Substitute
	if !sub.Active || sub.OriginalTeacher != absentID {
		return ""
	}
	if sub.SubstituteTeacher == "" || sub.SubstituteTeacher == absentID || !teacherSet[sub.SubstituteTeacher] {
		return ""
	}
	return sub.SubstituteTeacher
}

// substituteFreeAt checks occupancy against the base schedule; a substitution
// must never introduce a double booking.
func substituteFreeAt(base models.Timetable, teacherID string, day, period int) bool {
	for key, val := range base {
		if key.Day == day && key.Period == period && val.TeacherID == teacherID {
			return false
		}
	}
	return true
}
