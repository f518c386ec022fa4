package solver

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// Verify checks a materialized timetable against every hard constraint and
// returns the violations found. An empty result means the timetable is valid.
// It is shared by the solve debug path, the rotation self-check and the
// repair loop.
func Verify(config models.SchoolConfig, teachers []models.Teacher, classes []models.Class, tt models.Timetable) []models.Violation {
	teacherMap := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		teacherMap[t.ID] = t
	}

	var violations []models.Violation

	type cell struct {
		Day    int
		Period int
	}
	teacherSlots := make(map[string]map[cell][]string) // teacher -> cell -> class ids
	teacherDays := make(map[string]map[int]int)
	teacherWeeks := make(map[string]int)
	subjectCounts := make(map[string]map[string]int) // class -> subject -> placed

	for key, val := range tt {
		if key.Day < 0 || key.Day >= len(config.Days) || key.Period < 0 || key.Period >= config.PeriodsPerDay {
			violations = append(violations, models.Violation{
				Kind:    models.ViolationBreakAssigned,
				ClassID: key.ClassID,
				Subject: val.Subject,
				Day:     key.Day,
				Period:  key.Period,
				Detail:  "slot outside the configured week grid",
			})
			continue
		}
		if config.IsBreak(key.Period) {
			violations = append(violations, models.Violation{
				Kind:    models.ViolationBreakAssigned,
				ClassID: key.ClassID,
				Subject: val.Subject,
				Day:     key.Day,
				Period:  key.Period,
				Detail:  fmt.Sprintf("period %d is the %s break", key.Period, config.Breaks[key.Period]),
			})
		}
		if _, ok := teacherMap[val.TeacherID]; !ok {
			violations = append(violations, models.Violation{
				Kind:      models.ViolationUnknownTeacher,
				TeacherID: val.TeacherID,
				ClassID:   key.ClassID,
				Subject:   val.Subject,
				Day:       key.Day,
				Period:    key.Period,
				Detail:    "assignment references a teacher that no longer exists",
			})
		}

		c := cell{Day: key.Day, Period: key.Period}
		if teacherSlots[val.TeacherID] == nil {
			teacherSlots[val.TeacherID] = make(map[cell][]string)
			teacherDays[val.TeacherID] = make(map[int]int)
		}
		teacherSlots[val.TeacherID][c] = append(teacherSlots[val.TeacherID][c], key.ClassID)
		teacherDays[val.TeacherID][key.Day]++
		teacherWeeks[val.TeacherID]++

		if subjectCounts[key.ClassID] == nil {
			subjectCounts[key.ClassID] = make(map[string]int)
		}
		subjectCounts[key.ClassID][val.Subject]++
	}

	for teacherID, cells := range teacherSlots {
		for c, classIDs := range cells {
			if len(classIDs) > 1 {
				sort.Strings(classIDs)
				violations = append(violations, models.Violation{
					Kind:      models.ViolationTeacherDoubleBooked,
					TeacherID: teacherID,
					Day:       c.Day,
					Period:    c.Period,
					Detail:    fmt.Sprintf("teacher %s booked for %d classes at once", teacherID, len(classIDs)),
				})
			}
		}
		teacher, ok := teacherMap[teacherID]
		if !ok {
			continue
		}
		if teacher.MaxPeriodsPerDay > 0 {
			for day, count := range teacherDays[teacherID] {
				if count > teacher.MaxPeriodsPerDay {
					violations = append(violations, models.Violation{
						Kind:      models.ViolationDailyOverload,
						TeacherID: teacherID,
						Day:       day,
						Detail:    fmt.Sprintf("%d periods on one day, cap is %d", count, teacher.MaxPeriodsPerDay),
					})
				}
			}
		}
		if teacher.MaxPeriodsPerWeek > 0 && teacherWeeks[teacherID] > teacher.MaxPeriodsPerWeek {
			violations = append(violations, models.Violation{
				Kind:      models.ViolationWeeklyOverload,
				TeacherID: teacherID,
				Detail:    fmt.Sprintf("%d periods in the week, cap is %d", teacherWeeks[teacherID], teacher.MaxPeriodsPerWeek),
			})
		}
	}

	for _, class := range classes {
		for _, cs := range class.Subjects {
			placed := subjectCounts[class.ID][cs.Subject]
			switch {
			case placed < cs.WeeklyPeriods:
				violations = append(violations, models.Violation{
					Kind:      models.ViolationMissingPeriods,
					TeacherID: cs.TeacherID,
					ClassID:   class.ID,
					Subject:   cs.Subject,
					Detail:    fmt.Sprintf("placed %d of %d weekly periods", placed, cs.WeeklyPeriods),
				})
			case placed > cs.WeeklyPeriods:
				violations = append(violations, models.Violation{
					Kind:      models.ViolationExcessPeriods,
					TeacherID: cs.TeacherID,
					ClassID:   class.ID,
					Subject:   cs.Subject,
					Detail:    fmt.Sprintf("placed %d of %d weekly periods", placed, cs.WeeklyPeriods),
				})
			}
		}
	}

	sortViolations(violations)
	return violations
}

func sortViolations(violations []models.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Kind != violations[j].Kind {
			return violations[i].Kind < violations[j].Kind
		}
		if violations[i].TeacherID != violations[j].TeacherID {
			return violations[i].TeacherID < violations[j].TeacherID
		}
		if violations[i].ClassID != violations[j].ClassID {
			return violations[i].ClassID < violations[j].ClassID
		}
		if violations[i].Day != violations[j].Day {
			return violations[i].Day < violations[j].Day
		}
		return violations[i].Period < violations[j].Period
	})
}
