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

type mockPriorityRepo struct {
	configs map[string]*models.ClassPriorityConfig
	upserts int
}

func newMockPriorityRepo() *mockPriorityRepo {
	return &mockPriorityRepo{configs: make(map[string]*models.ClassPriorityConfig)}
}

func (m *mockPriorityRepo) ListAll(_ context.Context) ([]models.ClassPriorityConfig, error) {
	out := make([]models.ClassPriorityConfig, 0, len(m.configs))
	for _, c := range m.configs {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockPriorityRepo) GetByClass(_ context.Context, classID string) (*models.ClassPriorityConfig, error) {
	c, ok := m.configs[classID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (m *mockPriorityRepo) Upsert(_ context.Context, config *models.ClassPriorityConfig) error {
	m.upserts++
	m.configs[config.ClassID] = config
	return nil
}

func (m *mockPriorityRepo) Delete(_ context.Context, classID string) error {
	delete(m.configs, classID)
	return nil
}

func priorityClassSource() *mockClassSource {
	return &mockClassSource{classes: []models.Class{{ID: "10A", Name: "X-A"}}}
}

func TestPriorityUpsertStoresNormalizedLists(t *testing.T) {
	repo := newMockPriorityRepo()
	history := &mockHistory{}
	svc := NewPriorityService(repo, priorityClassSource(), history, nil, nil)

	config, err := svc.Upsert(context.Background(), "10A", UpsertPriorityRequest{
		PrioritySubjects: []string{"Math", " Math ", "English"},
		HeavySubjects:    []string{"Physics"},
	})
	require.NoError(t, err)

	assert.Equal(t, "10A", config.ClassID)
	assert.Equal(t, []string{"Math", "English"}, config.PrioritySubjects)
	assert.True(t, config.IsHeavy("Physics"))
	assert.Equal(t, 1, repo.upserts)
	assert.Contains(t, history.actions(), models.HistoryActionUpdate)
}

func TestPriorityUpsertUnknownClass(t *testing.T) {
	svc := NewPriorityService(newMockPriorityRepo(), priorityClassSource(), &mockHistory{}, nil, nil)

	_, err := svc.Upsert(context.Background(), "ghost", UpsertPriorityRequest{
		PrioritySubjects: []string{"Math"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPriorityGetByClassNotFound(t *testing.T) {
	svc := NewPriorityService(newMockPriorityRepo(), priorityClassSource(), &mockHistory{}, nil, nil)

	_, err := svc.GetByClass(context.Background(), "10A")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPriorityDeleteRecordsHistory(t *testing.T) {
	repo := newMockPriorityRepo()
	repo.configs["10A"] = &models.ClassPriorityConfig{ClassID: "10A", WeakSubjects: []string{"Art"}}
	history := &mockHistory{}
	svc := NewPriorityService(repo, priorityClassSource(), history, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "10A"))
	assert.Empty(t, repo.configs)
	assert.Contains(t, history.actions(), models.HistoryActionDelete)
}
