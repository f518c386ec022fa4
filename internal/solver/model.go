package solver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// ErrInfeasible marks a model that provably admits no assignment. The solve
// orchestrator maps it to a no-solution outcome; it never escapes the package
// boundary as a fault.
var ErrInfeasible = errors.New("timetable model admits no solution")

// demand is one (class, subject, teacher) triple that must occupy exactly
// WeeklyPeriods assignable slots.
type demand struct {
	ClassID   string
	Subject   string
	TeacherID string
	Weekly    int
}

// Model is the compiled constraint model: one boolean decision per feasible
// (class, subject, day, period) combination, with the hard-constraint
// families encoded in the index structures the search walks.
type Model struct {
	config   models.SchoolConfig
	teachers map[string]models.Teacher
	demands  []demand

	// slotGrid enumerates assignable (day, period) cells in sweep order;
	// break periods are excluded up front.
	slotGrid []models.DayPeriod
}

// BuildModel validates the domain and compiles it into a Model. Structural
// defects in the calendar surface as plain errors; inputs that are well formed
// but unsatisfiable by construction return ErrInfeasible.
func BuildModel(config models.SchoolConfig, teachers []models.Teacher, classes []models.Class) (*Model, error) {
	if len(config.Days) == 0 || config.PeriodsPerDay <= 0 {
		return nil, fmt.Errorf("school config must define days and periods per day")
	}
	if config.AssignablePeriodsPerDay() == 0 {
		return nil, fmt.Errorf("school config has no assignable periods")
	}

	teacherMap := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		teacherMap[t.ID] = t
	}

	m := &Model{
		config:   config,
		teachers: teacherMap,
		slotGrid: buildSlotGrid(config),
	}

	teacherDemand := make(map[string]int)
	for _, class := range classes {
		classTotal := 0
		for _, cs := range class.Subjects {
			if cs.WeeklyPeriods <= 0 {
				return nil, fmt.Errorf("class %s subject %s: weekly periods must be positive", class.ID, cs.Subject)
			}
			teacher, ok := teacherMap[cs.TeacherID]
			if !ok {
				// No variable can exist for this demand, so the exactly-N
				// constraint is unsatisfiable.
				return nil, fmt.Errorf("class %s subject %s references unknown teacher %s: %w",
					class.ID, cs.Subject, cs.TeacherID, ErrInfeasible)
			}
			if !teacher.Teaches(cs.Subject) {
				return nil, fmt.Errorf("teacher %s does not teach %s for class %s: %w",
					cs.TeacherID, cs.Subject, class.ID, ErrInfeasible)
			}
			if !teacher.EligibleFor(class.ID) {
				return nil, fmt.Errorf("teacher %s is not eligible for class %s: %w",
					cs.TeacherID, class.ID, ErrInfeasible)
			}
			classTotal += cs.WeeklyPeriods
			teacherDemand[cs.TeacherID] += cs.WeeklyPeriods
			m.demands = append(m.demands, demand{
				ClassID:   class.ID,
				Subject:   cs.Subject,
				TeacherID: cs.TeacherID,
				Weekly:    cs.WeeklyPeriods,
			})
		}
		if classTotal > config.WeeklyCapacity() {
			return nil, fmt.Errorf("class %s demands %d periods but the week holds %d: %w",
				class.ID, classTotal, config.WeeklyCapacity(), ErrInfeasible)
		}
	}

	// Capacity pre-check per teacher. The search would discover these as
	// exhausted branches; failing fast keeps obvious overload cheap.
	for teacherID, total := range teacherDemand {
		teacher := teacherMap[teacherID]
		if teacher.MaxPeriodsPerWeek > 0 && total > teacher.MaxPeriodsPerWeek {
			return nil, fmt.Errorf("teacher %s needs %d periods but is capped at %d/week: %w",
				teacherID, total, teacher.MaxPeriodsPerWeek, ErrInfeasible)
		}
		if teacher.MaxPeriodsPerDay > 0 && total > teacher.MaxPeriodsPerDay*len(config.Days) {
			return nil, fmt.Errorf("teacher %s needs %d periods but daily cap %d admits at most %d: %w",
				teacherID, total, teacher.MaxPeriodsPerDay, teacher.MaxPeriodsPerDay*len(config.Days), ErrInfeasible)
		}
	}

	m.orderDemands(teacherDemand)
	return m, nil
}

// orderDemands sorts most-constrained-first: teachers closest to their weekly
// cap go first, then larger weekly counts, with ids as a deterministic tie break.
func (m *Model) orderDemands(teacherDemand map[string]int) {
	tightness := func(d demand) float64 {
		teacher := m.teachers[d.TeacherID]
		if teacher.MaxPeriodsPerWeek <= 0 {
			return 0
		}
		return float64(teacherDemand[d.TeacherID]) / float64(teacher.MaxPeriodsPerWeek)
	}
	sort.SliceStable(m.demands, func(i, j int) bool {
		ti, tj := tightness(m.demands[i]), tightness(m.demands[j])
		if ti != tj {
			return ti > tj
		}
		if m.demands[i].Weekly != m.demands[j].Weekly {
			return m.demands[i].Weekly > m.demands[j].Weekly
		}
		if m.demands[i].ClassID != m.demands[j].ClassID {
			return m.demands[i].ClassID < m.demands[j].ClassID
		}
		return m.demands[i].Subject < m.demands[j].Subject
	})
}

func buildSlotGrid(config models.SchoolConfig) []models.DayPeriod {
	grid := make([]models.DayPeriod, 0, len(config.Days)*config.PeriodsPerDay)
	for day := range config.Days {
		for period := 0; period < config.PeriodsPerDay; period++ {
			if config.IsBreak(period) {
				continue
			}
			grid = append(grid, models.DayPeriod{Day: day, Period: period})
		}
	}
	return grid
}
