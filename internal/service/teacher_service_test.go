package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type mockTeacherRepo struct {
	teachers map[string]*models.Teacher
	listErr  error
	creates  int
	updates  int
	deletes  int
}

func newMockTeacherRepo(teachers ...models.Teacher) *mockTeacherRepo {
	m := &mockTeacherRepo{teachers: make(map[string]*models.Teacher)}
	for i := range teachers {
		t := teachers[i]
		m.teachers[t.ID] = &t
	}
	return m
}

func (m *mockTeacherRepo) List(_ context.Context, _ models.TeacherFilter) ([]models.Teacher, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := make([]models.Teacher, 0, len(m.teachers))
	for _, t := range m.teachers {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTeacherRepo) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	t, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *t
	return &copied, nil
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *models.Teacher) error {
	m.creates++
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *models.Teacher) error {
	if _, ok := m.teachers[teacher.ID]; !ok {
		return sql.ErrNoRows
	}
	m.updates++
	m.teachers[teacher.ID] = teacher
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	m.deletes++
	delete(m.teachers, id)
	return nil
}

func TestTeacherCreateNormalizesSubjects(t *testing.T) {
	repo := newMockTeacherRepo()
	history := &mockHistory{}
	svc := NewTeacherService(repo, history, nil, nil)

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{
		FullName:          "  Ibu Sari  ",
		Subjects:          []string{"Math", " Math ", "Physics"},
		MaxPeriodsPerDay:  6,
		MaxPeriodsPerWeek: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ibu Sari", teacher.FullName)
	assert.Equal(t, []string{"Math", "Physics"}, teacher.Subjects)
	assert.Equal(t, 1, repo.creates)
	assert.Contains(t, history.actions(), models.HistoryActionAdd)
}

func TestTeacherCreateRejectsEmptySubjects(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(), &mockHistory{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateTeacherRequest{FullName: "Pak Budi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherGetNotFound(t *testing.T) {
	svc := NewTeacherService(newMockTeacherRepo(), &mockHistory{}, nil, nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherUpdateReplacesFields(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{
		ID:                "t1",
		FullName:          "Ibu Sari",
		Subjects:          []string{"Math"},
		MaxPeriodsPerDay:  6,
		MaxPeriodsPerWeek: 30,
	})
	history := &mockHistory{}
	svc := NewTeacherService(repo, history, nil, nil)

	teacher, err := svc.Update(context.Background(), "t1", UpdateTeacherRequest{
		FullName:          "Ibu Sari Dewi",
		Subjects:          []string{"Math", "Physics"},
		MaxPeriodsPerDay:  5,
		MaxPeriodsPerWeek: 24,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ibu Sari Dewi", teacher.FullName)
	assert.Equal(t, []string{"Math", "Physics"}, teacher.Subjects)
	assert.Equal(t, 5, teacher.MaxPeriodsPerDay)
	assert.Equal(t, 1, repo.updates)
	assert.Contains(t, history.actions(), models.HistoryActionUpdate)
}

func TestTeacherDeleteRecordsHistory(t *testing.T) {
	repo := newMockTeacherRepo(models.Teacher{ID: "t1", FullName: "Ibu Sari", Subjects: []string{"Math"}})
	history := &mockHistory{}
	svc := NewTeacherService(repo, history, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "t1"))
	assert.Equal(t, 1, repo.deletes)
	assert.Contains(t, history.actions(), models.HistoryActionDelete)

	err := svc.Delete(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTeacherListPaginationDefaults(t *testing.T) {
	repo := newMockTeacherRepo(
		models.Teacher{ID: "t1", FullName: "Ibu Sari", Subjects: []string{"Math"}},
		models.Teacher{ID: "t2", FullName: "Pak Budi", Subjects: []string{"English"}},
	)
	svc := NewTeacherService(repo, &mockHistory{}, nil, nil)

	teachers, page, err := svc.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	assert.Len(t, teachers, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 2, page.TotalCount)
}
