package solver

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// RepairStep attempts one force-fit pass over the reported violations,
// relocating offending placements into free, constraint-respecting slots.
// It is pure: the input timetable is never mutated, and the step either
// returns a new candidate with a changed flag or signals no progress. All
// rollback and loop bookkeeping belongs to the caller. Violations that
// relocation cannot address (weekly overload, missing periods, stale
// teachers) are left for the caller to report.
func RepairStep(
	config models.SchoolConfig,
	teachers []models.Teacher,
	classes []models.Class,
	tt models.Timetable,
	violations []models.Violation,
) (models.Timetable, bool, error) {
	classSet := make(map[string]bool, len(classes))
	for _, c := range classes {
		classSet[c.ID] = true
	}
	for key := range tt {
		if !classSet[key.ClassID] {
			return nil, false, fmt.Errorf("schedule references unknown class %s", key.ClassID)
		}
	}

	state := newRepairState(config, teachers, tt)
	changed := false
	for _, v := range violations {
		switch v.Kind {
		case models.ViolationDailyOverload:
			if state.relieveDailyOverload(v.TeacherID, v.Day) {
				changed = true
			}
		case models.ViolationTeacherDoubleBooked:
			if state.untangleDoubleBooking(v.TeacherID, v.Day, v.Period) {
				changed = true
			}
		case models.ViolationBreakAssigned:
			if state.evictFromBreak(v.ClassID, v.Day, v.Period) {
				changed = true
			}
		}
	}
	return state.tt, changed, nil
}

type repairState struct {
	config   models.SchoolConfig
	teachers map[string]models.Teacher
	tt       models.Timetable

	teacherBusy map[string]map[models.DayPeriod]bool
	teacherDay  map[string]map[int]int
}

func newRepairState(config models.SchoolConfig, teachers []models.Teacher, tt models.Timetable) *repairState {
	s := &repairState{
		config:      config,
		teachers:    make(map[string]models.Teacher, len(teachers)),
		tt:          tt.Clone(),
		teacherBusy: make(map[string]map[models.DayPeriod]bool),
		teacherDay:  make(map[string]map[int]int),
	}
	for _, t := range teachers {
		s.teachers[t.ID] = t
	}
	for key, val := range s.tt {
		s.reserve(val.TeacherID, key.Day, key.Period)
	}
	return s
}

func (s *repairState) reserve(teacherID string, day, period int) {
	if s.teacherBusy[teacherID] == nil {
		s.teacherBusy[teacherID] = make(map[models.DayPeriod]bool)
		s.teacherDay[teacherID] = make(map[int]int)
	}
	s.teacherBusy[teacherID][models.DayPeriod{Day: day, Period: period}] = true
	s.teacherDay[teacherID][day]++
}

func (s *repairState) release(teacherID string, day, period int) {
	delete(s.teacherBusy[teacherID], models.DayPeriod{Day: day, Period: period})
	s.teacherDay[teacherID][day]--
}

// relieveDailyOverload moves the teacher's latest placements off the
// overloaded day until the daily cap holds or no placement can move.
func (s *repairState) relieveDailyOverload(teacherID string, day int) bool {
	teacher, ok := s.teachers[teacherID]
	if !ok || teacher.MaxPeriodsPerDay <= 0 {
		return false
	}
	moved := false
	for s.teacherDay[teacherID][day] > teacher.MaxPeriodsPerDay {
		key, ok := s.latestPlacement(teacherID, day)
		if !ok {
			break
		}
		target, ok := s.findSlot(key.ClassID, teacherID, day)
		if !ok {
			break
		}
		s.move(key, target)
		moved = true
	}
	return moved
}

// untangleDoubleBooking keeps the first class (by id) at the contested cell
// and relocates the rest.
func (s *repairState) untangleDoubleBooking(teacherID string, day, period int) bool {
	var contested []models.SlotKey
	for key, val := range s.tt {
		if val.TeacherID == teacherID && key.Day == day && key.Period == period {
			contested = append(contested, key)
		}
	}
	if len(contested) < 2 {
		return false
	}
	sort.Slice(contested, func(i, j int) bool { return contested[i].ClassID < contested[j].ClassID })

	moved := false
	for _, key := range contested[1:] {
		target, ok := s.findSlot(key.ClassID, teacherID, -1)
		if !ok {
			continue
		}
		s.move(key, target)
		moved = true
	}
	return moved
}

func (s *repairState) evictFromBreak(classID string, day, period int) bool {
	key := models.SlotKey{ClassID: classID, Day: day, Period: period}
	val, ok := s.tt[key]
	if !ok {
		return false
	}
	target, ok := s.findSlot(classID, val.TeacherID, -1)
	if !ok {
		return false
	}
	s.move(key, target)
	return true
}

// latestPlacement returns the teacher's highest-period slot on the day;
// evicting from the end of the day first mirrors how overload usually lands.
func (s *repairState) latestPlacement(teacherID string, day int) (models.SlotKey, bool) {
	var best models.SlotKey
	found := false
	for key, val := range s.tt {
		if val.TeacherID != teacherID || key.Day != day {
			continue
		}
		if !found || key.Period > best.Period || (key.Period == best.Period && key.ClassID < best.ClassID) {
			best = key
			found = true
		}
	}
	return best, found
}

// findSlot scans the week for a free cell where both the class and the
// teacher are available and the teacher's daily cap holds. avoidDay excludes
// one day entirely (used when relieving that day's overload); pass -1 to
// allow every day.
func (s *repairState) findSlot(classID, teacherID string, avoidDay int) (models.SlotKey, bool) {
	teacher := s.teachers[teacherID]
	for day := range s.config.Days {
		if day == avoidDay {
			continue
		}
		if teacher.MaxPeriodsPerDay > 0 && s.teacherDay[teacherID][day] >= teacher.MaxPeriodsPerDay {
			continue
		}
		for period := 0; period < s.config.PeriodsPerDay; period++ {
			if s.config.IsBreak(period) {
				continue
			}
			key := models.SlotKey{ClassID: classID, Day: day, Period: period}
			if _, taken := s.tt[key]; taken {
				continue
			}
			if s.teacherBusy[teacherID][models.DayPeriod{Day: day, Period: period}] {
				continue
			}
			return key, true
		}
	}
	return models.SlotKey{}, false
}

func (s *repairState) move(from, to models.SlotKey) {
	val := s.tt[from]
	delete(s.tt, from)
	s.release(val.TeacherID, from.Day, from.Period)
	s.tt[to] = val
	s.reserve(val.TeacherID, to.Day, to.Period)
}
