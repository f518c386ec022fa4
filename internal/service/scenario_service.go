package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type scenarioStore interface {
	GetSession(ctx context.Context) (*repository.TimetableSession, error)
	GetScenarioState(ctx context.Context) (models.ScenarioState, error)
	SaveScenarioState(ctx context.Context, state models.ScenarioState) error
	ClearScenarioState(ctx context.Context) error
}

// ScenarioService manages the what-if toggles and computes the resolved
// view. The base timetable is read-only here; only the overlay changes.
type ScenarioService struct {
	store     scenarioStore
	teachers  teacherSource
	classes   classSource
	calendar  calendarSource
	history   historyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScenarioService constructs the service.
func NewScenarioService(
	store scenarioStore,
	teachers teacherSource,
	classes classSource,
	calendar calendarSource,
	history historyNotifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScenarioService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioService{
		store:     store,
		teachers:  teachers,
		classes:   classes,
		calendar:  calendar,
		history:   history,
		validator: validate,
		logger:    logger,
	}
}

// State returns the stored toggle set.
func (s *ScenarioService) State(ctx context.Context) (models.ScenarioState, error) {
	state, err := s.store.GetScenarioState(ctx)
	if err != nil {
		return models.ScenarioState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scenario state")
	}
	return state, nil
}

// Update replaces the toggle set.
func (s *ScenarioService) Update(ctx context.Context, req dto.ScenarioStateRequest) (models.ScenarioState, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ScenarioState{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scenario payload")
	}
	config, err := s.calendar.Get(ctx)
	if err != nil {
		return models.ScenarioState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school config")
	}
	if req.SelectedDay >= len(config.Days) {
		return models.ScenarioState{}, appErrors.Clone(appErrors.ErrValidation, "selected day outside the configured week")
	}

	state := req.ToModel()
	if err := s.store.SaveScenarioState(ctx, state); err != nil {
		return models.ScenarioState{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scenario state")
	}
	s.history.Record(models.HistoryActionScenario, "scenarios", "scenario state updated", state)
	return state, nil
}

// Clear switches every toggle off.
func (s *ScenarioService) Clear(ctx context.Context) error {
	if err := s.store.ClearScenarioState(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear scenario state")
	}
	s.history.Record(models.HistoryActionScenario, "scenarios", "scenario state cleared", nil)
	return nil
}

// Resolved computes the what-if view of the base timetable under the stored
// toggles.
func (s *ScenarioService) Resolved(ctx context.Context) (*dto.ResolvedTimetableResponse, error) {
	session, err := s.store.GetSession(ctx)
	if err != nil {
		if err == appErrors.ErrCacheMiss {
			return nil, appErrors.ErrNoTimetable
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	state, err := s.store.GetScenarioState(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scenario state")
	}
	config, err := s.calendar.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school config")
	}
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classes, err := s.classes.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	view := solver.ResolveScenarios(session.Timetable, config, teachers, classes, state)
	return &dto.ResolvedTimetableResponse{
		Version:     session.Version,
		SelectedDay: state.SelectedDay,
		AnyActive:   state.AnyActive(),
		Slots:       dto.SlotsFromTimetable(view),
	}, nil
}
