package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/solver"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type teacherSource interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
}

type classSource interface {
	ListAll(ctx context.Context) ([]models.Class, error)
}

type prioritySource interface {
	ListAll(ctx context.Context) ([]models.ClassPriorityConfig, error)
}

type calendarSource interface {
	Get(ctx context.Context) (models.SchoolConfig, error)
}

type sessionStore interface {
	GetSession(ctx context.Context) (*repository.TimetableSession, error)
	SaveSession(ctx context.Context, session *repository.TimetableSession) error
}

type historyNotifier interface {
	Record(action, target, summary string, details interface{})
}

// TimetableServiceConfig bounds generation and repair.
type TimetableServiceConfig struct {
	TimeBudget       time.Duration
	RepairIterations int
	RotationCount    int
}

// TimetableService orchestrates generation, views, edits and rotations of
// the weekly timetable. At most one generation run is admitted at a time.
type TimetableService struct {
	teachers   teacherSource
	classes    classSource
	priorities prioritySource
	calendar   calendarSource
	sessions   sessionStore
	history    historyNotifier
	metrics    *MetricsService
	cfg        TimetableServiceConfig
	validator  *validator.Validate
	logger     *zap.Logger

	solveMu sync.Mutex
}

// NewTimetableService constructs the orchestrator.
func NewTimetableService(
	teachers teacherSource,
	classes classSource,
	priorities prioritySource,
	calendar calendarSource,
	sessions sessionStore,
	history historyNotifier,
	metrics *MetricsService,
	cfg TimetableServiceConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimetableService {
	if cfg.TimeBudget <= 0 {
		cfg.TimeBudget = solver.DefaultTimeBudget
	}
	if cfg.RepairIterations <= 0 {
		cfg.RepairIterations = 10
	}
	if cfg.RotationCount <= 0 {
		cfg.RotationCount = 3
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		teachers:   teachers,
		classes:    classes,
		priorities: priorities,
		calendar:   calendar,
		sessions:   sessions,
		history:    history,
		metrics:    metrics,
		cfg:        cfg,
		validator:  validate,
		logger:     logger,
	}
}

type solveDomain struct {
	config     models.SchoolConfig
	teachers   []models.Teacher
	classes    []models.Class
	priorities []models.ClassPriorityConfig
}

func (s *TimetableService) loadDomain(ctx context.Context) (*solveDomain, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveDBQuery("load_solve_domain", time.Since(start))
	}()

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
	priorities, err := s.priorities.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load priorities")
	}
	return &solveDomain{config: config, teachers: teachers, classes: classes, priorities: priorities}, nil
}

// Generate runs one full solve over the stored domain model and, on success,
// replaces the current timetable session. Concurrent calls are rejected.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if !s.solveMu.TryLock() {
		return nil, appErrors.ErrSolveInProgress
	}
	defer s.solveMu.Unlock()

	domain, err := s.loadDomain(ctx)
	if err != nil {
		return nil, err
	}
	if len(domain.classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no classes configured")
	}

	budget := s.cfg.TimeBudget
	if req.TimeBudgetSeconds > 0 {
		budget = time.Duration(req.TimeBudgetSeconds) * time.Second
	}

	solution, err := solver.Solve(ctx, domain.config, domain.teachers, domain.classes, domain.priorities, budget)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "generation failed")
	}
	s.metrics.ObserveSolve(solution.Outcome, solution.Score, solution.Elapsed)

	switch solution.Outcome {
	case models.OutcomeNoSolution:
		s.history.Record(models.HistoryActionGenerate, "timetable", "generation found no feasible timetable", nil)
		return nil, appErrors.ErrNoSolution
	case models.OutcomeTimeout:
		s.history.Record(models.HistoryActionGenerate, "timetable", "generation ran out of time", nil)
		return nil, appErrors.ErrSolveTimeout
	}

	session := &repository.TimetableSession{
		Version:     uuid.NewString(),
		Timetable:   solution.Timetable,
		Outcome:     solution.Outcome,
		Score:       solution.Score,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}

	s.logger.Info("timetable generated",
		zap.String("version", session.Version),
		zap.Float64("score", solution.Score),
		zap.Int("slots", len(solution.Timetable)),
		zap.Duration("elapsed", solution.Elapsed),
	)
	s.history.Record(models.HistoryActionGenerate, "timetable", "timetable generated", map[string]interface{}{
		"version": session.Version,
		"score":   solution.Score,
		"slots":   len(solution.Timetable),
	})

	return &dto.GenerateTimetableResponse{
		Version:     session.Version,
		Outcome:     string(solution.Outcome),
		Score:       solution.Score,
		ElapsedMs:   solution.Elapsed.Milliseconds(),
		Slots:       dto.SlotsFromTimetable(solution.Timetable),
		GeneratedAt: session.GeneratedAt,
	}, nil
}

func (s *TimetableService) currentSession(ctx context.Context) (*repository.TimetableSession, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if err == appErrors.ErrCacheMiss {
			return nil, appErrors.ErrNoTimetable
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return session, nil
}

// Current returns the stored base timetable.
func (s *TimetableService) Current(ctx context.Context) (*dto.TimetableResponse, error) {
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TimetableResponse{
		Version:     session.Version,
		Outcome:     string(session.Outcome),
		Score:       session.Score,
		Slots:       dto.SlotsFromTimetable(session.Timetable),
		GeneratedAt: session.GeneratedAt,
	}, nil
}

// TeacherView returns the per-teacher inversion of the base timetable.
func (s *TimetableService) TeacherView(ctx context.Context) (*dto.TeacherViewResponse, error) {
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.TeacherViewResponse{
		Version:  session.Version,
		Teachers: dto.TeacherViewFromTimetable(solver.InvertToTeacherView(session.Timetable)),
	}, nil
}

// Rotations derives weekly variants of the base timetable.
func (s *TimetableService) Rotations(ctx context.Context, count int) (*dto.RotationsResponse, error) {
	if count <= 0 {
		count = s.cfg.RotationCount
	}
	if count > 10 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at most 10 rotations may be requested")
	}
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	domain, err := s.loadDomain(ctx)
	if err != nil {
		return nil, err
	}

	variants := solver.Rotations(domain.config, domain.teachers, domain.classes, session.Timetable, count)
	out := make([][]dto.TimetableSlot, 0, len(variants))
	for _, variant := range variants {
		out = append(out, dto.SlotsFromTimetable(variant))
	}
	return &dto.RotationsResponse{Version: session.Version, Variants: out}, nil
}

// Edit applies one manual slot change, then runs the bounded repair loop.
// The change is rolled back when the schedule cannot be brought back to a
// consistent state; residual violations are always reported, never hidden.
func (s *TimetableService) Edit(ctx context.Context, req dto.EditTimetableRequest) (*dto.EditTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid edit payload")
	}
	session, err := s.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	domain, err := s.loadDomain(ctx)
	if err != nil {
		return nil, err
	}
	if req.Day >= len(domain.config.Days) || req.Period >= domain.config.PeriodsPerDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot outside the configured week")
	}
	if domain.config.IsBreak(req.Period) && !req.Clear {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot assign into a break period")
	}

	edited := session.Timetable.Clone()
	key := models.SlotKey{ClassID: req.ClassID, Day: req.Day, Period: req.Period}
	if req.Clear {
		if _, ok := edited[key]; !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot is already free")
		}
		delete(edited, key)
	} else {
		if err := s.checkEditTarget(domain, req); err != nil {
			return nil, err
		}
		edited[key] = models.SlotValue{Subject: req.Subject, TeacherID: req.TeacherID}
	}

	repaired, report, err := s.repairLoop(domain, edited)
	if err != nil {
		// The edit produced an unrecoverable inconsistency; keep the
		// stored timetable as it was.
		s.logger.Warn("edit rolled back", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "edit could not be reconciled")
	}
	s.metrics.ObserveRepair(report.Iterations)

	session.Version = uuid.NewString()
	session.Timetable = repaired
	session.Score = solver.Score(domain.config, repaired, domain.priorities)
	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable")
	}

	s.history.Record(models.HistoryActionEdit, "timetable", "manual edit applied", map[string]interface{}{
		"version": session.Version,
		"slot":    key.String(),
		"cleared": req.Clear,
	})
	if report.Iterations > 0 {
		s.history.Record(models.HistoryActionRepair, "timetable", "repair loop ran after edit", report)
	}

	return &dto.EditTimetableResponse{
		Version: session.Version,
		Slots:   dto.SlotsFromTimetable(repaired),
		Repair:  dto.RepairReportToDTO(report),
	}, nil
}

func (s *TimetableService) checkEditTarget(domain *solveDomain, req dto.EditTimetableRequest) error {
	var teacher *models.Teacher
	for i := range domain.teachers {
		if domain.teachers[i].ID == req.TeacherID {
			teacher = &domain.teachers[i]
			break
		}
	}
	if teacher == nil {
		return appErrors.Clone(appErrors.ErrValidation, "unknown teacher")
	}
	if !teacher.Teaches(req.Subject) {
		return appErrors.Clone(appErrors.ErrValidation, "teacher does not teach this subject")
	}
	for _, class := range domain.classes {
		if class.ID == req.ClassID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, "unknown class")
}

// repairLoop drives solver.RepairStep to a fixed point or the iteration cap.
func (s *TimetableService) repairLoop(domain *solveDomain, tt models.Timetable) (models.Timetable, models.RepairReport, error) {
	current := tt
	iterations := 0
	for iterations < s.cfg.RepairIterations {
		violations := solver.Verify(domain.config, domain.teachers, domain.classes, current)
		if len(violations) == 0 {
			break
		}
		next, changed, err := solver.RepairStep(domain.config, domain.teachers, domain.classes, current, violations)
		if err != nil {
			return nil, models.RepairReport{}, err
		}
		if !changed {
			break
		}
		current = next
		iterations++
	}

	remaining := solver.Verify(domain.config, domain.teachers, domain.classes, current)
	report := models.RepairReport{
		Repaired:   len(remaining) == 0,
		Iterations: iterations,
		Exhausted:  iterations >= s.cfg.RepairIterations && len(remaining) > 0,
		Remaining:  remaining,
	}
	return current, report, nil
}
