package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type mockSchoolConfigRepo struct {
	config  *models.SchoolConfig
	upserts int
}

func (m *mockSchoolConfigRepo) Get(_ context.Context) (models.SchoolConfig, error) {
	if m.config == nil {
		return models.DefaultSchoolConfig(), nil
	}
	return *m.config, nil
}

func (m *mockSchoolConfigRepo) Upsert(_ context.Context, config models.SchoolConfig) error {
	m.upserts++
	m.config = &config
	return nil
}

func TestSchoolConfigGetFallsBackToDefault(t *testing.T) {
	svc := NewSchoolConfigService(&mockSchoolConfigRepo{}, &mockHistory{}, nil, nil)

	config, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSchoolConfig(), config)
}

func TestSchoolConfigUpdateStoresCalendar(t *testing.T) {
	repo := &mockSchoolConfigRepo{}
	history := &mockHistory{}
	svc := NewSchoolConfigService(repo, history, nil, nil)

	config, err := svc.Update(context.Background(), UpdateSchoolConfigRequest{
		Days:          []string{"Monday", "Tuesday", "Wednesday"},
		PeriodsPerDay: 8,
		Breaks:        map[int]string{4: "Istirahat"},
	})
	require.NoError(t, err)

	assert.Len(t, config.Days, 3)
	assert.Equal(t, 8, config.PeriodsPerDay)
	assert.Equal(t, 7, config.AssignablePeriodsPerDay())
	assert.Equal(t, 1, repo.upserts)
	assert.Contains(t, history.actions(), models.HistoryActionUpdate)
}

func TestSchoolConfigUpdateRejectsBreakOutsideDay(t *testing.T) {
	svc := NewSchoolConfigService(&mockSchoolConfigRepo{}, &mockHistory{}, nil, nil)

	_, err := svc.Update(context.Background(), UpdateSchoolConfigRequest{
		Days:          []string{"Monday"},
		PeriodsPerDay: 4,
		Breaks:        map[int]string{4: "Istirahat"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchoolConfigUpdateRejectsAllBreakDay(t *testing.T) {
	svc := NewSchoolConfigService(&mockSchoolConfigRepo{}, &mockHistory{}, nil, nil)

	_, err := svc.Update(context.Background(), UpdateSchoolConfigRequest{
		Days:          []string{"Monday"},
		PeriodsPerDay: 2,
		Breaks:        map[int]string{0: "Pagi", 1: "Siang"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchoolConfigUpdateRejectsTooManyDays(t *testing.T) {
	svc := NewSchoolConfigService(&mockSchoolConfigRepo{}, &mockHistory{}, nil, nil)

	_, err := svc.Update(context.Background(), UpdateSchoolConfigRequest{
		Days:          []string{"1", "2", "3", "4", "5", "6", "7", "8"},
		PeriodsPerDay: 6,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
