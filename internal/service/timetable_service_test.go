package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type mockTeacherSource struct {
	teachers []models.Teacher
	err      error
}

func (m *mockTeacherSource) ListAll(_ context.Context) ([]models.Teacher, error) {
	return m.teachers, m.err
}

type mockClassSource struct {
	classes []models.Class
	err     error
}

func (m *mockClassSource) ListAll(_ context.Context) ([]models.Class, error) {
	return m.classes, m.err
}

type mockPrioritySource struct {
	priorities []models.ClassPriorityConfig
	err        error
}

func (m *mockPrioritySource) ListAll(_ context.Context) ([]models.ClassPriorityConfig, error) {
	return m.priorities, m.err
}

type mockCalendarSource struct {
	config models.SchoolConfig
	err    error
}

func (m *mockCalendarSource) Get(_ context.Context) (models.SchoolConfig, error) {
	return m.config, m.err
}

type mockSessionStore struct {
	session   *repository.TimetableSession
	scenarios models.ScenarioState
	saveCalls int
	saveErr   error
}

func (m *mockSessionStore) GetSession(_ context.Context) (*repository.TimetableSession, error) {
	if m.session == nil {
		return nil, appErrors.ErrCacheMiss
	}
	return m.session, nil
}

func (m *mockSessionStore) SaveSession(_ context.Context, session *repository.TimetableSession) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.session = session
	return nil
}

func (m *mockSessionStore) GetScenarioState(_ context.Context) (models.ScenarioState, error) {
	return m.scenarios, nil
}

func (m *mockSessionStore) SaveScenarioState(_ context.Context, state models.ScenarioState) error {
	m.scenarios = state
	return nil
}

func (m *mockSessionStore) ClearScenarioState(_ context.Context) error {
	m.scenarios = models.ScenarioState{}
	return nil
}

type recordedAction struct {
	action  string
	target  string
	summary string
}

type mockHistory struct {
	records []recordedAction
}

func (m *mockHistory) Record(action, target, summary string, _ interface{}) {
	m.records = append(m.records, recordedAction{action: action, target: target, summary: summary})
}

func (m *mockHistory) actions() []string {
	out := make([]string, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r.action)
	}
	return out
}

func fiveDayConfig() models.SchoolConfig {
	return models.SchoolConfig{
		Days:          []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		PeriodsPerDay: 6,
		Breaks:        map[int]string{},
	}
}

func timetableFixture() (*mockTeacherSource, *mockClassSource, *mockPrioritySource, *mockCalendarSource) {
	teachers := &mockTeacherSource{teachers: []models.Teacher{
		{ID: "t1", FullName: "Ibu Sari", Subjects: []string{"Math"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 30},
		{ID: "t2", FullName: "Pak Budi", Subjects: []string{"English"}, MaxPeriodsPerDay: 6, MaxPeriodsPerWeek: 30},
	}}
	classes := &mockClassSource{classes: []models.Class{
		{ID: "10A", Name: "X-A", Subjects: []models.ClassSubject{
			{Subject: "Math", WeeklyPeriods: 2, TeacherID: "t1"},
			{Subject: "English", WeeklyPeriods: 1, TeacherID: "t2"},
		}},
		{ID: "10B", Name: "X-B", Subjects: []models.ClassSubject{
			{Subject: "Math", WeeklyPeriods: 1, TeacherID: "t1"},
			{Subject: "English", WeeklyPeriods: 1, TeacherID: "t2"},
		}},
	}}
	return teachers, classes, &mockPrioritySource{}, &mockCalendarSource{config: fiveDayConfig()}
}

func newTimetableService(
	teachers *mockTeacherSource,
	classes *mockClassSource,
	priorities *mockPrioritySource,
	calendar *mockCalendarSource,
	store *mockSessionStore,
	history *mockHistory,
) *TimetableService {
	return NewTimetableService(teachers, classes, priorities, calendar, store, history, nil, TimetableServiceConfig{}, nil, nil)
}

func validSession() *repository.TimetableSession {
	return &repository.TimetableSession{
		Version: "v1",
		Timetable: models.Timetable{
			{ClassID: "10A", Day: 0, Period: 0}: {Subject: "Math", TeacherID: "t1"},
			{ClassID: "10A", Day: 0, Period: 1}: {Subject: "Math", TeacherID: "t1"},
			{ClassID: "10A", Day: 1, Period: 1}: {Subject: "English", TeacherID: "t2"},
			{ClassID: "10B", Day: 0, Period: 2}: {Subject: "English", TeacherID: "t2"},
			{ClassID: "10B", Day: 1, Period: 0}: {Subject: "Math", TeacherID: "t1"},
		},
		Outcome:     models.OutcomeSolved,
		Score:       0,
		GeneratedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestGenerateStoresSessionAndRecordsHistory(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{}
	history := &mockHistory{}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, history)

	resp, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, string(models.OutcomeSolved), resp.Outcome)
	assert.NotEmpty(t, resp.Version)
	assert.Len(t, resp.Slots, 5)

	require.NotNil(t, store.session)
	assert.Equal(t, resp.Version, store.session.Version)
	assert.Len(t, store.session.Timetable, 5)
	assert.Contains(t, history.actions(), models.HistoryActionGenerate)
}

func TestGenerateRejectsConcurrentRuns(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	svc := newTimetableService(teachers, classes, priorities, calendar, &mockSessionStore{}, &mockHistory{})

	svc.solveMu.Lock()
	defer svc.solveMu.Unlock()

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSolveInProgress.Code, appErrors.FromError(err).Code)
}

func TestGenerateRequiresClasses(t *testing.T) {
	teachers, _, priorities, calendar := timetableFixture()
	svc := newTimetableService(teachers, &mockClassSource{}, priorities, calendar, &mockSessionStore{}, &mockHistory{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestGenerateReportsInfeasibleDomains(t *testing.T) {
	teachers, classes, priorities, _ := timetableFixture()
	calendar := &mockCalendarSource{config: models.SchoolConfig{
		Days:          []string{"Monday"},
		PeriodsPerDay: 2,
	}}
	store := &mockSessionStore{}
	history := &mockHistory{}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, history)

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoSolution.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.session)
	assert.Contains(t, history.actions(), models.HistoryActionGenerate)
}

func TestGenerateRejectsOversizedBudget(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	svc := newTimetableService(teachers, classes, priorities, calendar, &mockSessionStore{}, &mockHistory{})

	_, err := svc.Generate(context.Background(), dto.GenerateTimetableRequest{TimeBudgetSeconds: 301})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCurrentWithoutTimetable(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	svc := newTimetableService(teachers, classes, priorities, calendar, &mockSessionStore{}, &mockHistory{})

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoTimetable.Code, appErrors.FromError(err).Code)
}

func TestCurrentReturnsStoredTimetable(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	resp, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", resp.Version)
	assert.Len(t, resp.Slots, 5)
}

func TestTeacherViewGroupsByTeacher(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	resp, err := svc.TeacherView(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", resp.Version)
	require.Contains(t, resp.Teachers, "t1")
	require.Contains(t, resp.Teachers, "t2")
	assert.Len(t, resp.Teachers["t1"], 3)
	assert.Len(t, resp.Teachers["t2"], 2)
}

func TestRotationsUsesConfiguredDefaultCount(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	resp, err := svc.Rotations(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "v1", resp.Version)
	require.Len(t, resp.Variants, 3)
	assert.Equal(t, dto.SlotsFromTimetable(store.session.Timetable), resp.Variants[0])
}

func TestRotationsRejectsExcessiveCount(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	_, err := svc.Rotations(context.Background(), 11)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEditRelocatesDoubleBookedTeacher(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	// The stored week is missing 10A's English hour, as after a manual clear.
	store := &mockSessionStore{session: &repository.TimetableSession{
		Version: "v1",
		Timetable: models.Timetable{
			{ClassID: "10A", Day: 0, Period: 0}: {Subject: "Math", TeacherID: "t1"},
			{ClassID: "10A", Day: 0, Period: 1}: {Subject: "Math", TeacherID: "t1"},
			{ClassID: "10B", Day: 0, Period: 2}: {Subject: "English", TeacherID: "t2"},
			{ClassID: "10B", Day: 1, Period: 0}: {Subject: "Math", TeacherID: "t1"},
		},
		Outcome: models.OutcomeSolved,
	}}
	history := &mockHistory{}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, history)

	// Assigning English into period 2 double-books t2 with 10B; the repair
	// loop must move 10B's hour elsewhere and end with a clean week.
	resp, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID:   "10A",
		Day:       0,
		Period:    2,
		Subject:   "English",
		TeacherID: "t2",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "v1", resp.Version)
	assert.True(t, resp.Repair.Repaired)
	assert.Equal(t, 1, resp.Repair.Iterations)
	assert.False(t, resp.Repair.Exhausted)
	assert.Empty(t, resp.Repair.Remaining)
	assert.Len(t, resp.Slots, 5)

	assert.Contains(t, history.actions(), models.HistoryActionEdit)
	assert.Contains(t, history.actions(), models.HistoryActionRepair)
	assert.Equal(t, resp.Version, store.session.Version)
}

func TestEditClearReportsResidualViolations(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	history := &mockHistory{}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, history)

	resp, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID: "10B",
		Day:     0,
		Period:  2,
		Clear:   true,
	})
	require.NoError(t, err)

	assert.False(t, resp.Repair.Repaired)
	assert.Zero(t, resp.Repair.Iterations)
	assert.False(t, resp.Repair.Exhausted)
	require.Len(t, resp.Repair.Remaining, 1)
	assert.Equal(t, string(models.ViolationMissingPeriods), resp.Repair.Remaining[0].Kind)
	assert.Len(t, resp.Slots, 4)
	assert.Contains(t, history.actions(), models.HistoryActionEdit)
	assert.NotContains(t, history.actions(), models.HistoryActionRepair)
}

func TestEditClearOnFreeSlot(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	_, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID: "10A",
		Day:     4,
		Period:  5,
		Clear:   true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEditRejectsUnknownTeacher(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	_, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID:   "10A",
		Day:       1,
		Period:    1,
		Subject:   "Math",
		TeacherID: "ghost",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEditRejectsSubjectOutsideQualification(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	_, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID:   "10A",
		Day:       1,
		Period:    1,
		Subject:   "English",
		TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEditRejectsSlotOutsideWeek(t *testing.T) {
	teachers, classes, priorities, calendar := timetableFixture()
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	_, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID:   "10A",
		Day:       5,
		Period:    0,
		Subject:   "Math",
		TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEditRejectsBreakPeriod(t *testing.T) {
	teachers, classes, priorities, _ := timetableFixture()
	config := fiveDayConfig()
	config.Breaks = map[int]string{3: "Istirahat"}
	calendar := &mockCalendarSource{config: config}
	store := &mockSessionStore{session: validSession()}
	svc := newTimetableService(teachers, classes, priorities, calendar, store, &mockHistory{})

	_, err := svc.Edit(context.Background(), dto.EditTimetableRequest{
		ClassID:   "10A",
		Day:       1,
		Period:    3,
		Subject:   "Math",
		TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
