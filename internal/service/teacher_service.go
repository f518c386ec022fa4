package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// CreateTeacherRequest represents payload for creating teachers.
type CreateTeacherRequest struct {
	FullName          string   `json:"full_name" validate:"required,max=200"`
	Subjects          []string `json:"subjects" validate:"required,min=1,dive,required"`
	Sections          []string `json:"sections" validate:"omitempty,dive,required"`
	MaxPeriodsPerDay  int      `json:"max_periods_per_day" validate:"min=0,max=16"`
	MaxPeriodsPerWeek int      `json:"max_periods_per_week" validate:"min=0,max=80"`
}

// UpdateTeacherRequest represents payload for updating teachers.
type UpdateTeacherRequest struct {
	FullName          string   `json:"full_name" validate:"required,max=200"`
	Subjects          []string `json:"subjects" validate:"required,min=1,dive,required"`
	Sections          []string `json:"sections" validate:"omitempty,dive,required"`
	MaxPeriodsPerDay  int      `json:"max_periods_per_day" validate:"min=0,max=16"`
	MaxPeriodsPerWeek int      `json:"max_periods_per_week" validate:"min=0,max=80"`
}

// TeacherService orchestrates teacher operations.
type TeacherService struct {
	repo      teacherRepository
	history   historyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, history historyNotifier, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, history: history, validator: validate, logger: logger}
}

// List returns teachers plus pagination data.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return teachers, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new teacher record.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{
		FullName:          strings.TrimSpace(req.FullName),
		Subjects:          normalizeList(req.Subjects),
		Sections:          normalizeList(req.Sections),
		MaxPeriodsPerDay:  req.MaxPeriodsPerDay,
		MaxPeriodsPerWeek: req.MaxPeriodsPerWeek,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.history.Record(models.HistoryActionAdd, "teacher", "teacher "+teacher.FullName+" added", map[string]string{"id": teacher.ID})
	return teacher, nil
}

// Update modifies an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher.FullName = strings.TrimSpace(req.FullName)
	teacher.Subjects = normalizeList(req.Subjects)
	teacher.Sections = normalizeList(req.Sections)
	teacher.MaxPeriodsPerDay = req.MaxPeriodsPerDay
	teacher.MaxPeriodsPerWeek = req.MaxPeriodsPerWeek

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	s.history.Record(models.HistoryActionUpdate, "teacher", "teacher "+teacher.FullName+" updated", map[string]string{"id": teacher.ID})
	return teacher, nil
}

// Delete removes a teacher.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	s.history.Record(models.HistoryActionDelete, "teacher", "teacher "+teacher.FullName+" removed", map[string]string{"id": id})
	return nil
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
