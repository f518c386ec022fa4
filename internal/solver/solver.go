// Package solver implements the timetable assignment engine: the constraint
// model over (class, subject, day, period) decisions, a budgeted search, the
// soft preference objective, and the repair/rotation/overlay companions that
// operate on materialized timetables.
package solver

import (
	"context"
	"errors"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// DefaultTimeBudget bounds a single solve when the caller supplies none.
const DefaultTimeBudget = 30 * time.Second

// Solution is the terminal result of one solve. Timetable is nil unless
// Outcome is OutcomeSolved; OutcomeNoSolution and OutcomeTimeout are
// indistinguishable to callers beyond the outcome label, and neither proves
// impossibility in the timeout case.
type Solution struct {
	Timetable models.Timetable
	Outcome   models.SolveOutcome
	Score     float64
	Moves     int
	Elapsed   time.Duration
}

// Solve builds the constraint model, searches under the wall-clock budget and
// materializes the chosen variables. Model-level infeasibility is folded into
// the returned Solution, never raised as a fault; only structurally invalid
// input (an empty calendar) produces an error. The domain model is never
// mutated.
func Solve(
	ctx context.Context,
	config models.SchoolConfig,
	teachers []models.Teacher,
	classes []models.Class,
	priorities []models.ClassPriorityConfig,
	budget time.Duration,
) (*Solution, error) {
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	start := time.Now()

	model, err := BuildModel(config, teachers, classes)
	if err != nil {
		if errors.Is(err, ErrInfeasible) {
			return &Solution{Outcome: models.OutcomeNoSolution, Elapsed: time.Since(start)}, nil
		}
		return nil, err
	}

	deadline := start.Add(budget)
	tt, status := newSearchState(model, deadline).run(ctx)
	switch status {
	case statusFail:
		return &Solution{Outcome: models.OutcomeNoSolution, Elapsed: time.Since(start)}, nil
	case statusDeadline:
		return &Solution{Outcome: models.OutcomeTimeout, Elapsed: time.Since(start)}, nil
	}

	moves := 0
	if len(priorities) > 0 {
		tt, moves = Improve(ctx, config, teachers, tt, priorities, deadline)
	}

	return &Solution{
		Timetable: tt,
		Outcome:   models.OutcomeSolved,
		Score:     Score(config, tt, priorities),
		Moves:     moves,
		Elapsed:   time.Since(start),
	}, nil
}

// InvertToTeacherView produces the per-teacher week from a class timetable.
func InvertToTeacherView(tt models.Timetable) models.TeacherTimetable {
	view := make(models.TeacherTimetable)
	for key, val := range tt {
		week := view[val.TeacherID]
		if week == nil {
			week = make(models.TeacherWeek)
			view[val.TeacherID] = week
		}
		week[models.DayPeriod{Day: key.Day, Period: key.Period}] = models.TeacherSlot{
			ClassID: key.ClassID,
			Subject: val.Subject,
		}
	}
	return view
}
