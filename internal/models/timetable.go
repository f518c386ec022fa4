package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SlotKey addresses one assignable cell in the week grid.
type SlotKey struct {
	ClassID string
	Day     int
	Period  int
}

// String encodes the key as "classID|day|period" for use as a JSON map key.
func (k SlotKey) String() string {
	return fmt.Sprintf("%s|%d|%d", k.ClassID, k.Day, k.Period)
}

// ParseSlotKey decodes a key produced by String.
func ParseSlotKey(raw string) (SlotKey, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return SlotKey{}, fmt.Errorf("malformed slot key %q", raw)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return SlotKey{}, fmt.Errorf("malformed slot key %q: %w", raw, err)
	}
	period, err := strconv.Atoi(parts[2])
	if err != nil {
		return SlotKey{}, fmt.Errorf("malformed slot key %q: %w", raw, err)
	}
	return SlotKey{ClassID: parts[0], Day: day, Period: period}, nil
}

// SlotValue is the subject/teacher pair occupying a slot.
type SlotValue struct {
	Subject   string `json:"subject"`
	TeacherID string `json:"teacher_id"`
}

// Timetable maps every occupied slot to its subject and teacher. Slots absent
// from the map are free periods.
type Timetable map[SlotKey]SlotValue

// MarshalJSON encodes slot keys as strings so the structure survives storage
// round trips byte-for-byte in meaning.
func (t Timetable) MarshalJSON() ([]byte, error) {
	out := make(map[string]SlotValue, len(t))
	for k, v := range t {
		out[k.String()] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (t *Timetable) UnmarshalJSON(data []byte) error {
	var raw map[string]SlotValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := make(Timetable, len(raw))
	for k, v := range raw {
		key, err := ParseSlotKey(k)
		if err != nil {
			return err
		}
		parsed[key] = v
	}
	*t = parsed
	return nil
}

// Clone returns an independent copy of the timetable.
func (t Timetable) Clone() Timetable {
	out := make(Timetable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// ClassIDs returns the distinct class ids present, unordered.
func (t Timetable) ClassIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for k := range t {
		if _, ok := seen[k.ClassID]; !ok {
			seen[k.ClassID] = struct{}{}
			ids = append(ids, k.ClassID)
		}
	}
	return ids
}

// DayPeriod addresses a cell in a single teacher's week.
type DayPeriod struct {
	Day    int
	Period int
}

// String encodes the pair as "day|period" for JSON map keys.
func (p DayPeriod) String() string {
	return fmt.Sprintf("%d|%d", p.Day, p.Period)
}

// TeacherSlot is one taught period from the teacher's perspective.
type TeacherSlot struct {
	ClassID string `json:"class_id"`
	Subject string `json:"subject"`
}

// TeacherWeek is a single teacher's week keyed by day and period.
type TeacherWeek map[DayPeriod]TeacherSlot

// MarshalJSON encodes day/period keys as strings.
func (w TeacherWeek) MarshalJSON() ([]byte, error) {
	out := make(map[string]TeacherSlot, len(w))
	for k, v := range w {
		out[k.String()] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (w *TeacherWeek) UnmarshalJSON(data []byte) error {
	var raw map[string]TeacherSlot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := make(TeacherWeek, len(raw))
	for k, v := range raw {
		parts := strings.Split(k, "|")
		if len(parts) != 2 {
			return fmt.Errorf("malformed day/period key %q", k)
		}
		day, err := strconv.Atoi(parts[0])
		if err != nil {
			return err
		}
		period, err := strconv.Atoi(parts[1])
		if err != nil {
			return err
		}
		parsed[DayPeriod{Day: day, Period: period}] = v
	}
	*w = parsed
	return nil
}

// TeacherTimetable is the teacher-inverted view of a class timetable.
type TeacherTimetable map[string]TeacherWeek

// SolveOutcome distinguishes the three terminal solver results.
type SolveOutcome string

const (
	// OutcomeSolved means a feasible (possibly optimized) assignment was found.
	OutcomeSolved SolveOutcome = "solved"
	// OutcomeNoSolution means the search exhausted the space without a solution.
	OutcomeNoSolution SolveOutcome = "no_solution"
	// OutcomeTimeout means the budget expired before any solution was found.
	// Callers must not report certainty of impossibility for this outcome.
	OutcomeTimeout SolveOutcome = "timeout"
)

// ViolationKind classifies hard-constraint violations.
type ViolationKind string

const (
	ViolationTeacherDoubleBooked ViolationKind = "teacher_double_booked"
	ViolationDailyOverload       ViolationKind = "daily_overload"
	ViolationWeeklyOverload      ViolationKind = "weekly_overload"
	ViolationMissingPeriods      ViolationKind = "missing_periods"
	ViolationExcessPeriods       ViolationKind = "excess_periods"
	ViolationBreakAssigned       ViolationKind = "break_assigned"
	ViolationUnknownTeacher      ViolationKind = "unknown_teacher"
)

// Violation describes one broken hard constraint in a materialized timetable.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	TeacherID string        `json:"teacher_id,omitempty"`
	ClassID   string        `json:"class_id,omitempty"`
	Subject   string        `json:"subject,omitempty"`
	Day       int           `json:"day"`
	Period    int           `json:"period"`
	Detail    string        `json:"detail"`
}

// RepairReport summarizes one bounded repair run. Exhausted distinguishes
// hitting the iteration cap from reaching a fixed point.
type RepairReport struct {
	Repaired   bool        `json:"repaired"`
	Iterations int         `json:"iterations"`
	Exhausted  bool        `json:"exhausted"`
	Remaining  []Violation `json:"remaining,omitempty"`
}
