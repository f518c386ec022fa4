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

type mockClassRepo struct {
	classes map[string]*models.Class
	creates int
	updates int
	deletes int
}

func newMockClassRepo(classes ...models.Class) *mockClassRepo {
	m := &mockClassRepo{classes: make(map[string]*models.Class)}
	for i := range classes {
		c := classes[i]
		m.classes[c.ID] = &c
	}
	return m
}

func (m *mockClassRepo) List(_ context.Context, _ models.ClassFilter) ([]models.Class, int, error) {
	out := make([]models.Class, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(_ context.Context, id string) (*models.Class, error) {
	c, ok := m.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (m *mockClassRepo) Create(_ context.Context, class *models.Class) error {
	m.creates++
	if class.ID == "" {
		class.ID = "generated"
	}
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) Update(_ context.Context, class *models.Class) error {
	if _, ok := m.classes[class.ID]; !ok {
		return sql.ErrNoRows
	}
	m.updates++
	m.classes[class.ID] = class
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.classes[id]; !ok {
		return sql.ErrNoRows
	}
	m.deletes++
	delete(m.classes, id)
	return nil
}

func classTeacherSource() *mockTeacherSource {
	return &mockTeacherSource{teachers: []models.Teacher{
		{ID: "t1", FullName: "Ibu Sari", Subjects: []string{"Math", "Physics"}},
		{ID: "t2", FullName: "Pak Budi", Subjects: []string{"English"}},
	}}
}

func TestClassCreateBindsSubjectsToTeachers(t *testing.T) {
	repo := newMockClassRepo()
	history := &mockHistory{}
	svc := NewClassService(repo, classTeacherSource(), history, nil, nil)

	class, err := svc.Create(context.Background(), CreateClassRequest{
		Name: "X-A",
		Subjects: []ClassSubjectRequest{
			{Subject: "Math", WeeklyPeriods: 4, TeacherID: "t1"},
			{Subject: "English", WeeklyPeriods: 3, TeacherID: "t2"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "X-A", class.Name)
	require.Len(t, class.Subjects, 2)
	assert.Equal(t, 7, class.WeeklyDemand())
	assert.Equal(t, 1, repo.creates)
	assert.Contains(t, history.actions(), models.HistoryActionAdd)
}

func TestClassCreateRejectsDuplicateSubject(t *testing.T) {
	svc := NewClassService(newMockClassRepo(), classTeacherSource(), &mockHistory{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name: "X-A",
		Subjects: []ClassSubjectRequest{
			{Subject: "Math", WeeklyPeriods: 4, TeacherID: "t1"},
			{Subject: "Math", WeeklyPeriods: 2, TeacherID: "t1"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassCreateRejectsUnknownTeacher(t *testing.T) {
	svc := NewClassService(newMockClassRepo(), classTeacherSource(), &mockHistory{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name: "X-A",
		Subjects: []ClassSubjectRequest{
			{Subject: "Math", WeeklyPeriods: 4, TeacherID: "ghost"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassCreateRejectsUnqualifiedTeacher(t *testing.T) {
	svc := NewClassService(newMockClassRepo(), classTeacherSource(), &mockHistory{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateClassRequest{
		Name: "X-A",
		Subjects: []ClassSubjectRequest{
			{Subject: "English", WeeklyPeriods: 3, TeacherID: "t1"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassUpdateReplacesSubjectPlan(t *testing.T) {
	repo := newMockClassRepo(models.Class{
		ID:   "10A",
		Name: "X-A",
		Subjects: []models.ClassSubject{
			{Subject: "Math", WeeklyPeriods: 4, TeacherID: "t1"},
		},
	})
	history := &mockHistory{}
	svc := NewClassService(repo, classTeacherSource(), history, nil, nil)

	class, err := svc.Update(context.Background(), "10A", UpdateClassRequest{
		Name: "X-A Science",
		Subjects: []ClassSubjectRequest{
			{Subject: "Physics", WeeklyPeriods: 5, TeacherID: "t1"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "X-A Science", class.Name)
	require.Len(t, class.Subjects, 1)
	assert.Equal(t, "Physics", class.Subjects[0].Subject)
	assert.Equal(t, 1, repo.updates)
	assert.Contains(t, history.actions(), models.HistoryActionUpdate)
}

func TestClassDelete(t *testing.T) {
	repo := newMockClassRepo(models.Class{ID: "10A", Name: "X-A"})
	history := &mockHistory{}
	svc := NewClassService(repo, classTeacherSource(), history, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "10A"))
	assert.Equal(t, 1, repo.deletes)
	assert.Contains(t, history.actions(), models.HistoryActionDelete)

	err := svc.Delete(context.Background(), "10A")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
