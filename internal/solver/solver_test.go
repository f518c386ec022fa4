package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func weekConfig(days, periods int) models.SchoolConfig {
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	return models.SchoolConfig{
		Days:          names[:days],
		PeriodsPerDay: periods,
		Breaks:        map[int]string{},
	}
}

func stubTeacher(id string, subjects []string, maxDay, maxWeek int) models.Teacher {
	return models.Teacher{
		ID:                id,
		FullName:          "Teacher " + id,
		Subjects:          subjects,
		MaxPeriodsPerDay:  maxDay,
		MaxPeriodsPerWeek: maxWeek,
	}
}

func stubClass(id string, subjects ...models.ClassSubject) models.Class {
	return models.Class{ID: id, Name: "Class " + id, Subjects: subjects}
}

func subjectCounts(tt models.Timetable) map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for key, val := range tt {
		if counts[key.ClassID] == nil {
			counts[key.ClassID] = make(map[string]int)
		}
		counts[key.ClassID][val.Subject]++
	}
	return counts
}

func TestSolveTwoClassWeek(t *testing.T) {
	config := weekConfig(5, 6)
	teachers := []models.Teacher{
		stubTeacher("t1", []string{"Math", "Science"}, 6, 30),
		stubTeacher("t2", []string{"English", "Art"}, 6, 30),
	}
	classes := []models.Class{
		stubClass("10A",
			models.ClassSubject{Subject: "Math", WeeklyPeriods: 6, TeacherID: "t1"},
			models.ClassSubject{Subject: "English", WeeklyPeriods: 4, TeacherID: "t2"},
		),
		stubClass("10B",
			models.ClassSubject{Subject: "Science", WeeklyPeriods: 6, TeacherID: "t1"},
			models.ClassSubject{Subject: "Art", WeeklyPeriods: 4, TeacherID: "t2"},
		),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSolved, sol.Outcome)
	require.NotNil(t, sol.Timetable)

	counts := subjectCounts(sol.Timetable)
	assert.Equal(t, 6, counts["10A"]["Math"])
	assert.Equal(t, 4, counts["10A"]["English"])
	assert.Equal(t, 6, counts["10B"]["Science"])
	assert.Equal(t, 4, counts["10B"]["Art"])
	assert.Empty(t, Verify(config, teachers, classes, sol.Timetable))
}

func TestSolveWeeklyCapInfeasible(t *testing.T) {
	config := weekConfig(5, 6)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 6, 6)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 12, TeacherID: "t1"}),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoSolution, sol.Outcome)
	assert.Nil(t, sol.Timetable)
}

func TestSolveClassDemandExceedsCalendar(t *testing.T) {
	config := weekConfig(2, 3)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 0, 0)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 7, TeacherID: "t1"}),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoSolution, sol.Outcome)
}

func TestSolveUnknownTeacherYieldsNoSolution(t *testing.T) {
	config := weekConfig(5, 6)
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 2, TeacherID: "ghost"}),
	}

	sol, err := Solve(context.Background(), config, nil, classes, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoSolution, sol.Outcome)
}

func TestSolveSkipsBreakPeriods(t *testing.T) {
	config := weekConfig(5, 4)
	config.Breaks[1] = "recess"
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 4, 20)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 5, TeacherID: "t1"}),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSolved, sol.Outcome)

	for key := range sol.Timetable {
		assert.NotEqual(t, 1, key.Period, "break period must stay free")
	}
	assert.Empty(t, Verify(config, teachers, classes, sol.Timetable))
}

func TestSolveSpreadsLoadUnderDailyCap(t *testing.T) {
	config := weekConfig(5, 6)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 2, 10)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 6, TeacherID: "t1"}),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSolved, sol.Outcome)

	perDay := make(map[int]int)
	for key := range sol.Timetable {
		perDay[key.Day]++
	}
	for day, count := range perDay {
		assert.LessOrEqual(t, count, 2, "day %d exceeds the teacher's daily cap", day)
	}
}

func TestSolveNeverDoubleBooksTeacher(t *testing.T) {
	config := weekConfig(5, 6)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 6, 30)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 5, TeacherID: "t1"}),
		stubClass("10B", models.ClassSubject{Subject: "Math", WeeklyPeriods: 5, TeacherID: "t1"}),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSolved, sol.Outcome)

	seen := make(map[models.DayPeriod]string)
	for key, val := range sol.Timetable {
		cell := models.DayPeriod{Day: key.Day, Period: key.Period}
		if prev, ok := seen[cell]; ok {
			t.Fatalf("teacher %s booked at %s for both %s and %s", val.TeacherID, cell, prev, key.ClassID)
		}
		seen[cell] = key.ClassID
	}
}

func TestSolveTimesOutOnExpiredBudget(t *testing.T) {
	config := weekConfig(5, 6)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 6, 30)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Math", WeeklyPeriods: 5, TeacherID: "t1"}),
	}

	sol, err := Solve(context.Background(), config, teachers, classes, nil, time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeTimeout, sol.Outcome)
	assert.Nil(t, sol.Timetable)
}

func TestSolveMovesPrioritySubjectEarly(t *testing.T) {
	config := weekConfig(5, 4)
	teachers := []models.Teacher{
		stubTeacher("t1", []string{"Math"}, 4, 20),
		stubTeacher("t2", []string{"Art"}, 4, 20),
	}
	classes := []models.Class{
		stubClass("10A",
			models.ClassSubject{Subject: "Math", WeeklyPeriods: 2, TeacherID: "t1"},
			models.ClassSubject{Subject: "Art", WeeklyPeriods: 2, TeacherID: "t2"},
		),
	}
	priorities := []models.ClassPriorityConfig{
		{ClassID: "10A", PrioritySubjects: []string{"Math"}},
	}

	sol, err := Solve(context.Background(), config, teachers, classes, priorities, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSolved, sol.Outcome)

	for key, val := range sol.Timetable {
		if val.Subject == "Math" {
			assert.Equal(t, 0, key.Period, "priority subject should land in the first period")
		}
	}
	assert.Equal(t, 6.0, sol.Score)
	assert.Empty(t, Verify(config, teachers, classes, sol.Timetable))
}

func TestSolveSeparatesHeavySubjectPairs(t *testing.T) {
	config := weekConfig(5, 4)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Physics"}, 4, 20)}
	classes := []models.Class{
		stubClass("10A", models.ClassSubject{Subject: "Physics", WeeklyPeriods: 2, TeacherID: "t1"}),
	}
	priorities := []models.ClassPriorityConfig{
		{ClassID: "10A", HeavySubjects: []string{"Physics"}},
	}

	sol, err := Solve(context.Background(), config, teachers, classes, priorities, time.Second)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSolved, sol.Outcome)

	for key, val := range sol.Timetable {
		next := models.SlotKey{ClassID: key.ClassID, Day: key.Day, Period: key.Period + 1}
		if nv, ok := sol.Timetable[next]; ok {
			assert.NotEqual(t, val.Subject, nv.Subject, "heavy subject placed back to back")
		}
	}
	assert.Empty(t, Verify(config, teachers, classes, sol.Timetable))
}

func TestImproveNeverMutatesInput(t *testing.T) {
	config := weekConfig(5, 4)
	teachers := []models.Teacher{stubTeacher("t1", []string{"Math"}, 4, 20)}
	tt := models.Timetable{
		{ClassID: "10A", Day: 0, Period: 3}: {Subject: "Math", TeacherID: "t1"},
	}
	snapshot := tt.Clone()
	priorities := []models.ClassPriorityConfig{{ClassID: "10A", PrioritySubjects: []string{"Math"}}}

	improved, moves := Improve(context.Background(), config, teachers, tt, priorities, time.Now().Add(time.Second))
	assert.Equal(t, snapshot, tt)
	assert.Equal(t, 1, moves)
	assert.NotEqual(t, snapshot, improved)
}

func TestInvertToTeacherView(t *testing.T) {
	tt := models.Timetable{
		{ClassID: "10A", Day: 0, Period: 0}: {Subject: "Math", TeacherID: "t1"},
		{ClassID: "10B", Day: 0, Period: 1}: {Subject: "Math", TeacherID: "t1"},
		{ClassID: "10A", Day: 1, Period: 0}: {Subject: "Art", TeacherID: "t2"},
	}

	view := InvertToTeacherView(tt)
	require.Len(t, view, 2)
	require.Len(t, view["t1"], 2)
	assert.Equal(t, models.TeacherSlot{ClassID: "10A", Subject: "Math"}, view["t1"][models.DayPeriod{Day: 0, Period: 0}])
	assert.Equal(t, models.TeacherSlot{ClassID: "10B", Subject: "Math"}, view["t1"][models.DayPeriod{Day: 0, Period: 1}])
	assert.Equal(t, models.TeacherSlot{ClassID: "10A", Subject: "Art"}, view["t2"][models.DayPeriod{Day: 1, Period: 0}])
}
