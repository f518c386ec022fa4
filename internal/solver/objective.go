package solver

import (
	"context"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const (
	// earlyBonusWindow rewards priority subjects placed in the first periods:
	// contribution max(0, earlyBonusWindow - period).
	earlyBonusWindow = 3
	// heavyAdjacentPenalty is charged per back-to-back pair of the same heavy
	// subject on consecutive non-break periods of one class.
	heavyAdjacentPenalty = 2

	maxImprovePasses = 64
)

// Score evaluates the soft preference objective for a timetable. A higher
// score is better; without priority configs the score is zero and every
// feasible timetable ranks equal.
func Score(config models.SchoolConfig, tt models.Timetable, priorities []models.ClassPriorityConfig) float64 {
	prioMap := priorityMap(priorities)
	if len(prioMap) == 0 {
		return 0
	}

	score := 0.0
	for key, val := range tt {
		pc, ok := prioMap[key.ClassID]
		if !ok {
			continue
		}
		if pc.IsPriority(val.Subject) {
			if bonus := earlyBonusWindow - key.Period; bonus > 0 {
				score += float64(bonus)
			}
		}
		if pc.IsHeavy(val.Subject) && !config.IsBreak(key.Period+1) && key.Period+1 < config.PeriodsPerDay {
			next := models.SlotKey{ClassID: key.ClassID, Day: key.Day, Period: key.Period + 1}
			if nv, ok := tt[next]; ok && nv.Subject == val.Subject {
				score -= heavyAdjacentPenalty
			}
		}
	}
	return score
}

// Improve runs a bounded hill climb over single-slot moves that keep every
// hard constraint intact, returning the improved timetable and the number of
// moves applied. It never mutates the input.
func Improve(
	ctx context.Context,
	config models.SchoolConfig,
	teachers []models.Teacher,
	tt models.Timetable,
	priorities []models.ClassPriorityConfig,
	deadline time.Time,
) (models.Timetable, int) {
	prioMap := priorityMap(priorities)
	if len(prioMap) == 0 || len(tt) == 0 {
		return tt.Clone(), 0
	}

	teacherMap := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		teacherMap[t.ID] = t
	}

	current := tt.Clone()
	moves := 0
	for pass := 0; pass < maxImprovePasses; pass++ {
		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}
		from, to, delta := bestMove(config, teacherMap, current, prioMap)
		if delta <= 0 {
			break
		}
		val := current[from]
		delete(current, from)
		current[to] = val
		moves++
	}
	return current, moves
}

// bestMove scans every placement against every free cell of the same class
// and returns the single relocation with the largest positive score delta.
func bestMove(
	config models.SchoolConfig,
	teachers map[string]models.Teacher,
	tt models.Timetable,
	prioMap map[string]models.ClassPriorityConfig,
) (models.SlotKey, models.SlotKey, float64) {
	occupancy := buildOccupancy(config, tt)

	var bestFrom, bestTo models.SlotKey
	bestDelta := 0.0
	for key, val := range tt {
		pc, ok := prioMap[key.ClassID]
		if !ok || (!pc.IsPriority(val.Subject) && !pc.IsHeavy(val.Subject)) {
			continue
		}
		for day := range config.Days {
			for period := 0; period < config.PeriodsPerDay; period++ {
				if config.IsBreak(period) {
					continue
				}
				target := models.SlotKey{ClassID: key.ClassID, Day: day, Period: period}
				if target == key || !occupancy.canMove(teachers, tt, key, target) {
					continue
				}
				delta := moveDelta(config, tt, pc, key, target)
				if delta > bestDelta {
					bestFrom, bestTo, bestDelta = key, target, delta
				}
			}
		}
	}
	return bestFrom, bestTo, bestDelta
}

// moveDelta computes the objective change for relocating one placement,
// looking only at the affected cell and its period neighbours.
func moveDelta(config models.SchoolConfig, tt models.Timetable, pc models.ClassPriorityConfig, from, to models.SlotKey) float64 {
	val := tt[from]
	delta := 0.0
	if pc.IsPriority(val.Subject) {
		delta += float64(earlyBonus(to.Period)) - float64(earlyBonus(from.Period))
	}
	if pc.IsHeavy(val.Subject) {
		delta += heavyAdjacentPenalty * float64(adjacentSameSubject(config, tt, from, val.Subject, from))
		delta -= heavyAdjacentPenalty * float64(adjacentSameSubject(config, tt, to, val.Subject, from))
	}
	return delta
}

func earlyBonus(period int) int {
	if b := earlyBonusWindow - period; b > 0 {
		return b
	}
	return 0
}

// adjacentSameSubject counts period neighbours of at holding the same subject
// for the same class, ignoring the slot being vacated.
func adjacentSameSubject(config models.SchoolConfig, tt models.Timetable, at models.SlotKey, subject string, vacated models.SlotKey) int {
	count := 0
	for _, period := range []int{at.Period - 1, at.Period + 1} {
		if period < 0 || period >= config.PeriodsPerDay || config.IsBreak(period) {
			continue
		}
		neighbour := models.SlotKey{ClassID: at.ClassID, Day: at.Day, Period: period}
		if neighbour == vacated {
			continue
		}
		if v, ok := tt[neighbour]; ok && v.Subject == subject {
			count++
		}
	}
	return count
}

func priorityMap(priorities []models.ClassPriorityConfig) map[string]models.ClassPriorityConfig {
	m := make(map[string]models.ClassPriorityConfig, len(priorities))
	for _, pc := range priorities {
		if len(pc.PrioritySubjects) == 0 && len(pc.WeakSubjects) == 0 && len(pc.HeavySubjects) == 0 {
			continue
		}
		m[pc.ClassID] = pc
	}
	return m
}

// occupancy tracks per-teacher usage for legality checks during improvement.
type occupancy struct {
	teacherBusy map[string]map[models.DayPeriod]bool
	teacherDay  map[string]map[int]int
}

func buildOccupancy(config models.SchoolConfig, tt models.Timetable) *occupancy {
	o := &occupancy{
		teacherBusy: make(map[string]map[models.DayPeriod]bool),
		teacherDay:  make(map[string]map[int]int),
	}
	for key, val := range tt {
		if o.teacherBusy[val.TeacherID] == nil {
			o.teacherBusy[val.TeacherID] = make(map[models.DayPeriod]bool)
			o.teacherDay[val.TeacherID] = make(map[int]int)
		}
		o.teacherBusy[val.TeacherID][models.DayPeriod{Day: key.Day, Period: key.Period}] = true
		o.teacherDay[val.TeacherID][key.Day]++
	}
	return o
}

// canMove reports whether relocating the placement at from into the free cell
// at to keeps every hard constraint satisfied.
func (o *occupancy) canMove(teachers map[string]models.Teacher, tt models.Timetable, from, to models.SlotKey) bool {
	if to.Period < 0 {
		return false
	}
	if _, taken := tt[to]; taken {
		return false
	}
	val := tt[from]
	cell := models.DayPeriod{Day: to.Day, Period: to.Period}
	if o.teacherBusy[val.TeacherID][cell] {
		return false
	}
	teacher, ok := teachers[val.TeacherID]
	if !ok {
		return false
	}
	// Same-day moves are cap neutral; cross-day moves must respect the
	// target day's cap.
	if to.Day != from.Day && teacher.MaxPeriodsPerDay > 0 &&
		o.teacherDay[val.TeacherID][to.Day] >= teacher.MaxPeriodsPerDay {
		return false
	}
	return true
}
