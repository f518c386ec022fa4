package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type schoolConfigRepository interface {
	Get(ctx context.Context) (models.SchoolConfig, error)
	Upsert(ctx context.Context, config models.SchoolConfig) error
}

// UpdateSchoolConfigRequest replaces the school calendar.
type UpdateSchoolConfigRequest struct {
	Days          []string       `json:"days" validate:"required,min=1,max=7,dive,required"`
	PeriodsPerDay int            `json:"periods_per_day" validate:"required,min=1,max=16"`
	Breaks        map[int]string `json:"breaks"`
}

// SchoolConfigService manages the calendar the timetable is built on.
type SchoolConfigService struct {
	repo      schoolConfigRepository
	history   historyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolConfigService constructs the service.
func NewSchoolConfigService(repo schoolConfigRepository, history historyNotifier, validate *validator.Validate, logger *zap.Logger) *SchoolConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolConfigService{repo: repo, history: history, validator: validate, logger: logger}
}

// Get returns the active calendar.
func (s *SchoolConfigService) Get(ctx context.Context) (models.SchoolConfig, error) {
	config, err := s.repo.Get(ctx)
	if err != nil {
		return models.SchoolConfig{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school config")
	}
	return config, nil
}

// Update replaces the active calendar.
func (s *SchoolConfigService) Update(ctx context.Context, req UpdateSchoolConfigRequest) (models.SchoolConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.SchoolConfig{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school config payload")
	}
	for period := range req.Breaks {
		if period < 0 || period >= req.PeriodsPerDay {
			return models.SchoolConfig{}, appErrors.Clone(appErrors.ErrValidation, "break period outside the school day")
		}
	}

	config := models.SchoolConfig{
		Days:          req.Days,
		PeriodsPerDay: req.PeriodsPerDay,
		Breaks:        req.Breaks,
	}
	if config.Breaks == nil {
		config.Breaks = map[int]string{}
	}
	if config.AssignablePeriodsPerDay() == 0 {
		return models.SchoolConfig{}, appErrors.Clone(appErrors.ErrValidation, "every period of the day is a break")
	}

	if err := s.repo.Upsert(ctx, config); err != nil {
		return models.SchoolConfig{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store school config")
	}
	s.history.Record(models.HistoryActionUpdate, "school-config", "school calendar updated", config)
	return config, nil
}
