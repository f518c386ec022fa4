package solver

import (
	"context"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

type searchStatus int

const (
	statusFail searchStatus = iota
	statusFound
	statusDeadline
)

// deadlineCheckInterval bounds how often the clock is consulted; the search
// visits far more nodes per second than time.Now calls are worth.
const deadlineCheckInterval = 2048

type placement struct {
	demand int
	slot   int
}

// searchState holds the incremental occupancy bookkeeping for the
// backtracking sweep. Demand placements are chosen as a strictly increasing
// slot sequence so permutations of the same slot set are explored once.
type searchState struct {
	model *Model

	classBusy   map[string][]bool
	teacherBusy map[string][]bool
	teacherDay  map[string][]int
	teacherWeek map[string]int

	placed   []placement
	nodes    int
	deadline time.Time
	expired  bool
}

func newSearchState(m *Model, deadline time.Time) *searchState {
	slots := len(m.slotGrid)
	days := len(m.config.Days)
	s := &searchState{
		model:       m,
		classBusy:   make(map[string][]bool),
		teacherBusy: make(map[string][]bool),
		teacherDay:  make(map[string][]int),
		teacherWeek: make(map[string]int),
		deadline:    deadline,
	}
	for _, d := range m.demands {
		if s.classBusy[d.ClassID] == nil {
			s.classBusy[d.ClassID] = make([]bool, slots)
		}
		if s.teacherBusy[d.TeacherID] == nil {
			s.teacherBusy[d.TeacherID] = make([]bool, slots)
			s.teacherDay[d.TeacherID] = make([]int, days)
		}
	}
	return s
}

// run performs the full search. The returned timetable is nil unless the
// status is statusFound.
func (s *searchState) run(ctx context.Context) (models.Timetable, searchStatus) {
	if len(s.model.demands) == 0 {
		return models.Timetable{}, statusFound
	}
	status := s.assign(ctx, 0, s.model.demands[0].Weekly, 0)
	if status != statusFound {
		return nil, status
	}
	return s.export(), statusFound
}

func (s *searchState) assign(ctx context.Context, di, remaining, from int) searchStatus {
	if s.overBudget(ctx) {
		return statusDeadline
	}
	if remaining == 0 {
		if di+1 == len(s.model.demands) {
			return statusFound
		}
		return s.assign(ctx, di+1, s.model.demands[di+1].Weekly, 0)
	}

	d := s.model.demands[di]
	// Leave room for the remaining units of this demand.
	for slot := from; slot <= len(s.model.slotGrid)-remaining; slot++ {
		if !s.canPlace(d, slot) {
			continue
		}
		s.place(di, d, slot)
		status := s.assign(ctx, di, remaining-1, slot+1)
		if status != statusFail {
			return status
		}
		s.unplace(d, slot)
	}
	return statusFail
}

func (s *searchState) canPlace(d demand, slot int) bool {
	if s.classBusy[d.ClassID][slot] || s.teacherBusy[d.TeacherID][slot] {
		return false
	}
	teacher := s.model.teachers[d.TeacherID]
	day := s.model.slotGrid[slot].Day
	if teacher.MaxPeriodsPerDay > 0 && s.teacherDay[d.TeacherID][day] >= teacher.MaxPeriodsPerDay {
		return false
	}
	if teacher.MaxPeriodsPerWeek > 0 && s.teacherWeek[d.TeacherID] >= teacher.MaxPeriodsPerWeek {
		return false
	}
	return true
}

func (s *searchState) place(di int, d demand, slot int) {
	s.classBusy[d.ClassID][slot] = true
	s.teacherBusy[d.TeacherID][slot] = true
	s.teacherDay[d.TeacherID][s.model.slotGrid[slot].Day]++
	s.teacherWeek[d.TeacherID]++
	s.placed = append(s.placed, placement{demand: di, slot: slot})
}

func (s *searchState) unplace(d demand, slot int) {
	s.classBusy[d.ClassID][slot] = false
	s.teacherBusy[d.TeacherID][slot] = false
	s.teacherDay[d.TeacherID][s.model.slotGrid[slot].Day]--
	s.teacherWeek[d.TeacherID]--
	s.placed = s.placed[:len(s.placed)-1]
}

func (s *searchState) overBudget(ctx context.Context) bool {
	if s.expired {
		return true
	}
	s.nodes++
	if s.nodes != 1 && s.nodes%deadlineCheckInterval != 0 {
		return false
	}
	if ctx.Err() != nil || time.Now().After(s.deadline) {
		s.expired = true
	}
	return s.expired
}

func (s *searchState) export() models.Timetable {
	tt := make(models.Timetable, len(s.placed))
	for _, p := range s.placed {
		d := s.model.demands[p.demand]
		cell := s.model.slotGrid[p.slot]
		tt[models.SlotKey{ClassID: d.ClassID, Day: cell.Day, Period: cell.Period}] = models.SlotValue{
			Subject:   d.Subject,
			TeacherID: d.TeacherID,
		}
	}
	return tt
}
