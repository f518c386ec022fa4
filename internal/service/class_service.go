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

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// ClassSubjectRequest binds a subject to its weekly quota and teacher.
type ClassSubjectRequest struct {
	Subject       string `json:"subject" validate:"required,max=100"`
	WeeklyPeriods int    `json:"weekly_periods" validate:"required,min=1,max=40"`
	TeacherID     string `json:"teacher_id" validate:"required"`
}

// CreateClassRequest represents payload for creating classes.
type CreateClassRequest struct {
	Name     string                `json:"name" validate:"required,max=100"`
	Subjects []ClassSubjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

// UpdateClassRequest represents payload for updating classes.
type UpdateClassRequest struct {
	Name     string                `json:"name" validate:"required,max=100"`
	Subjects []ClassSubjectRequest `json:"subjects" validate:"required,min=1,dive"`
}

// ClassService orchestrates class operations.
type ClassService struct {
	repo      classRepository
	teachers  teacherSource
	history   historyNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, teachers teacherSource, history historyNotifier, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, teachers: teachers, history: history, validator: validate, logger: logger}
}

// List returns classes plus pagination data.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new class together with its subject plan.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	subjects, err := s.buildSubjects(ctx, req.Subjects)
	if err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:     strings.TrimSpace(req.Name),
		Subjects: subjects,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.history.Record(models.HistoryActionAdd, "class", "class "+class.Name+" added", map[string]string{"id": class.ID})
	return class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.buildSubjects(ctx, req.Subjects)
	if err != nil {
		return nil, err
	}

	class.Name = strings.TrimSpace(req.Name)
	class.Subjects = subjects
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.history.Record(models.HistoryActionUpdate, "class", "class "+class.Name+" updated", map[string]string{"id": class.ID})
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	class, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.history.Record(models.HistoryActionDelete, "class", "class "+class.Name+" removed", map[string]string{"id": id})
	return nil
}

// buildSubjects validates teacher references and subject uniqueness.
func (s *ClassService) buildSubjects(ctx context.Context, reqs []ClassSubjectRequest) ([]models.ClassSubject, error) {
	teachers, err := s.teachers.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	byID := make(map[string]models.Teacher, len(teachers))
	for _, t := range teachers {
		byID[t.ID] = t
	}

	subjects := make([]models.ClassSubject, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		subject := strings.TrimSpace(req.Subject)
		if _, dup := seen[subject]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject "+subject+" listed twice")
		}
		seen[subject] = struct{}{}

		teacher, ok := byID[req.TeacherID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown teacher for subject "+subject)
		}
		if !teacher.Teaches(subject) {
			return nil, appErrors.Clone(appErrors.ErrValidation, teacher.FullName+" does not teach "+subject)
		}
		subjects = append(subjects, models.ClassSubject{
			Subject:       subject,
			WeeklyPeriods: req.WeeklyPeriods,
			TeacherID:     req.TeacherID,
		})
	}
	return subjects, nil
}
