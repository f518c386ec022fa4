package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type priorityRepository interface {
	ListAll(ctx context.Context) ([]models.ClassPriorityConfig, error)
	GetByClass(ctx context.Context, classID string) (*models.ClassPriorityConfig, error)
	Upsert(ctx context.Context, config *models.ClassPriorityConfig) error
	Delete(ctx context.Context, classID string) error
}

// UpsertPriorityRequest replaces the soft preferences for one class.
type UpsertPriorityRequest struct {
	PrioritySubjects []string `json:"priority_subjects" validate:"omitempty,dive,required"`
	WeakSubjects     []string `json:"weak_subjects" validate:"omitempty,dive,required"`
	HeavySubjects    []string `json:"heavy_subjects" validate:"omitempty,dive,required"`
}

// PriorityService manages per-class scheduling preferences.
type PriorityService struct {
	repo      priorityRepository
	classes   classSource
	history   historyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPriorityService constructs the service.
func NewPriorityService(repo priorityRepository, classes classSource, history historyNotifier, validate *validator.Validate, logger *zap.Logger) *PriorityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriorityService{repo: repo, classes: classes, history: history, validator: validate, logger: logger}
}

// List returns the preferences of every configured class.
func (s *PriorityService) List(ctx context.Context) ([]models.ClassPriorityConfig, error) {
	configs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class priorities")
	}
	return configs, nil
}

// GetByClass returns the preferences of one class.
func (s *PriorityService) GetByClass(ctx context.Context, classID string) (*models.ClassPriorityConfig, error) {
	config, err := s.repo.GetByClass(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no priorities configured for this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class priorities")
	}
	return config, nil
}

// Upsert stores the preferences for a class, replacing any previous entry.
func (s *PriorityService) Upsert(ctx context.Context, classID string, req UpsertPriorityRequest) (*models.ClassPriorityConfig, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid priority payload")
	}
	if err := s.ensureClassExists(ctx, classID); err != nil {
		return nil, err
	}

	config := &models.ClassPriorityConfig{
		ClassID:          classID,
		PrioritySubjects: normalizeList(req.PrioritySubjects),
		WeakSubjects:     normalizeList(req.WeakSubjects),
		HeavySubjects:    normalizeList(req.HeavySubjects),
	}
	if err := s.repo.Upsert(ctx, config); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store class priorities")
	}
	s.history.Record(models.HistoryActionUpdate, classID, fmt.Sprintf("priorities updated for class %s", classID), config)
	return config, nil
}

// Delete removes the preferences for a class.
func (s *PriorityService) Delete(ctx context.Context, classID string) error {
	if err := s.repo.Delete(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "no priorities configured for this class")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class priorities")
	}
	s.history.Record(models.HistoryActionDelete, classID, fmt.Sprintf("priorities cleared for class %s", classID), nil)
	return nil
}

func (s *PriorityService) ensureClassExists(ctx context.Context, classID string) error {
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify class")
	}
	for _, c := range classes {
		if c.ID == classID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, "class not found")
}
