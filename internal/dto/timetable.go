package dto

import (
	"sort"
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TimetableSlot is one occupied cell of the weekly grid.
type TimetableSlot struct {
	ClassID   string `json:"classId"`
	Day       int    `json:"day"`
	Period    int    `json:"period"`
	Subject   string `json:"subject"`
	TeacherID string `json:"teacherId"`
}

// GenerateTimetableRequest tunes a single generation run. All fields are
// optional; the configured defaults apply when omitted.
type GenerateTimetableRequest struct {
	TimeBudgetSeconds int `json:"timeBudgetSeconds" validate:"omitempty,min=1,max=300"`
}

// GenerateTimetableResponse returns the terminal state of a generation run.
type GenerateTimetableResponse struct {
	Version     string          `json:"version,omitempty"`
	Outcome     string          `json:"outcome"`
	Score       float64         `json:"score"`
	ElapsedMs   int64           `json:"elapsedMs"`
	Slots       []TimetableSlot `json:"slots,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// TimetableResponse is the current base timetable.
type TimetableResponse struct {
	Version     string          `json:"version"`
	Outcome     string          `json:"outcome"`
	Score       float64         `json:"score"`
	Slots       []TimetableSlot `json:"slots"`
	GeneratedAt time.Time       `json:"generatedAt"`
}

// TeacherViewSlot is one cell of a teacher-centric week.
type TeacherViewSlot struct {
	Day     int    `json:"day"`
	Period  int    `json:"period"`
	ClassID string `json:"classId"`
	Subject string `json:"subject"`
}

// TeacherViewResponse lists each teacher's week.
type TeacherViewResponse struct {
	Version  string                       `json:"version"`
	Teachers map[string][]TeacherViewSlot `json:"teachers"`
}

// RotationsResponse lists derived weekly variants.
type RotationsResponse struct {
	Version  string            `json:"version"`
	Variants [][]TimetableSlot `json:"variants"`
}

// EditTimetableRequest applies one manual change to the base timetable.
// Clear removes the slot; otherwise Subject and TeacherID are required.
type EditTimetableRequest struct {
	ClassID   string `json:"classId" validate:"required"`
	Day       int    `json:"day" validate:"min=0,max=6"`
	Period    int    `json:"period" validate:"min=0,max=15"`
	Subject   string `json:"subject" validate:"required_without=Clear"`
	TeacherID string `json:"teacherId" validate:"required_without=Clear"`
	Clear     bool   `json:"clear"`
}

// ViolationDTO describes one broken hard constraint.
type ViolationDTO struct {
	Kind      string `json:"kind"`
	TeacherID string `json:"teacherId,omitempty"`
	ClassID   string `json:"classId,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Day       int    `json:"day"`
	Period    int    `json:"period"`
	Detail    string `json:"detail"`
}

// RepairReportDTO summarises the bounded repair loop run after an edit.
type RepairReportDTO struct {
	Repaired   bool           `json:"repaired"`
	Iterations int            `json:"iterations"`
	Exhausted  bool           `json:"exhausted"`
	Remaining  []ViolationDTO `json:"remaining,omitempty"`
}

// EditTimetableResponse returns the edited timetable and the repair outcome.
type EditTimetableResponse struct {
	Version string          `json:"version"`
	Slots   []TimetableSlot `json:"slots"`
	Repair  RepairReportDTO `json:"repair"`
}

// ScenarioStateRequest replaces the full what-if toggle set.
type ScenarioStateRequest struct {
	SelectedDay int `json:"selectedDay" validate:"min=0,max=6"`

	TeacherAbsent struct {
		Active    bool   `json:"active"`
		TeacherID string `json:"teacherId" validate:"required_if=Active true"`
	} `json:"teacherAbsent"`

	Substitute struct {
		Active            bool   `json:"active"`
		OriginalTeacher   string `json:"originalTeacher" validate:"required_if=Active true"`
		SubstituteTeacher string `json:"substituteTeacher" validate:"required_if=Active true"`
	} `json:"substitute"`

	LabUnavailable struct {
		Active   bool     `json:"active"`
		Subjects []string `json:"subjects" validate:"required_if=Active true"`
	} `json:"labUnavailable"`

	ShortenedDay struct {
		Active     bool `json:"active"`
		MaxPeriods int  `json:"maxPeriods" validate:"required_if=Active true,omitempty,min=1,max=15"`
	} `json:"shortenedDay"`

	EmergencyFree struct {
		Active  bool   `json:"active"`
		ClassID string `json:"classId" validate:"required_if=Active true"`
		Period  int    `json:"period" validate:"min=0,max=15"`
	} `json:"emergencyFree"`
}

// ToModel converts the request into the persisted scenario state.
func (r ScenarioStateRequest) ToModel() models.ScenarioState {
	return models.ScenarioState{
		SelectedDay: r.SelectedDay,
		TeacherAbsent: models.TeacherAbsentScenario{
			Active:    r.TeacherAbsent.Active,
			TeacherID: r.TeacherAbsent.TeacherID,
		},
		Substitute: models.SubstituteScenario{
			Active:            r.Substitute.Active,
			OriginalTeacher:   r.Substitute.OriginalTeacher,
			SubstituteTeacher: r.Substitute.SubstituteTeacher,
		},
		LabUnavailable: models.LabUnavailableScenario{
			Active:   r.LabUnavailable.Active,
			Subjects: r.LabUnavailable.Subjects,
		},
		ShortenedDay: models.ShortenedDayScenario{
			Active:     r.ShortenedDay.Active,
			MaxPeriods: r.ShortenedDay.MaxPeriods,
		},
		EmergencyFree: models.EmergencyFreeScenario{
			Active:  r.EmergencyFree.Active,
			ClassID: r.EmergencyFree.ClassID,
			Period:  r.EmergencyFree.Period,
		},
	}
}

// ResolvedTimetableResponse is the what-if view over the base schedule.
type ResolvedTimetableResponse struct {
	Version     string          `json:"version"`
	SelectedDay int             `json:"selectedDay"`
	AnyActive   bool            `json:"anyActive"`
	Slots       []TimetableSlot `json:"slots"`
}

// SlotsFromTimetable flattens a timetable into a deterministic slot list.
func SlotsFromTimetable(tt models.Timetable) []TimetableSlot {
	slots := make([]TimetableSlot, 0, len(tt))
	for key, val := range tt {
		slots = append(slots, TimetableSlot{
			ClassID:   key.ClassID,
			Day:       key.Day,
			Period:    key.Period,
			Subject:   val.Subject,
			TeacherID: val.TeacherID,
		})
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].ClassID != slots[j].ClassID {
			return slots[i].ClassID < slots[j].ClassID
		}
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].Period < slots[j].Period
	})
	return slots
}

// TeacherViewFromTimetable flattens the per-teacher inversion.
func TeacherViewFromTimetable(view models.TeacherTimetable) map[string][]TeacherViewSlot {
	out := make(map[string][]TeacherViewSlot, len(view))
	for teacherID, week := range view {
		slots := make([]TeacherViewSlot, 0, len(week))
		for cell, slot := range week {
			slots = append(slots, TeacherViewSlot{
				Day:     cell.Day,
				Period:  cell.Period,
				ClassID: slot.ClassID,
				Subject: slot.Subject,
			})
		}
		sort.Slice(slots, func(i, j int) bool {
			if slots[i].Day != slots[j].Day {
				return slots[i].Day < slots[j].Day
			}
			return slots[i].Period < slots[j].Period
		})
		out[teacherID] = slots
	}
	return out
}

// ViolationsToDTO converts verification output.
func ViolationsToDTO(violations []models.Violation) []ViolationDTO {
	if len(violations) == 0 {
		return nil
	}
	out := make([]ViolationDTO, 0, len(violations))
	for _, v := range violations {
		out = append(out, ViolationDTO{
			Kind:      string(v.Kind),
			TeacherID: v.TeacherID,
			ClassID:   v.ClassID,
			Subject:   v.Subject,
			Day:       v.Day,
			Period:    v.Period,
			Detail:    v.Detail,
		})
	}
	return out
}

// RepairReportToDTO converts a repair report.
func RepairReportToDTO(report models.RepairReport) RepairReportDTO {
	return RepairReportDTO{
		Repaired:   report.Repaired,
		Iterations: report.Iterations,
		Exhausted:  report.Exhausted,
		Remaining:  ViolationsToDTO(report.Remaining),
	}
}
