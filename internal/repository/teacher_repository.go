package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

type teacherRow struct {
	ID                string         `db:"id"`
	FullName          string         `db:"full_name"`
	Subjects          types.JSONText `db:"subjects"`
	Sections          types.JSONText `db:"sections"`
	MaxPeriodsPerDay  int            `db:"max_periods_per_day"`
	MaxPeriodsPerWeek int            `db:"max_periods_per_week"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (row teacherRow) toModel() (models.Teacher, error) {
	teacher := models.Teacher{
		ID:                row.ID,
		FullName:          row.FullName,
		MaxPeriodsPerDay:  row.MaxPeriodsPerDay,
		MaxPeriodsPerWeek: row.MaxPeriodsPerWeek,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
	if len(row.Subjects) > 0 {
		if err := json.Unmarshal(row.Subjects, &teacher.Subjects); err != nil {
			return models.Teacher{}, fmt.Errorf("decode teacher %s subjects: %w", row.ID, err)
		}
	}
	if len(row.Sections) > 0 {
		if err := json.Unmarshal(row.Sections, &teacher.Sections); err != nil {
			return models.Teacher{}, fmt.Errorf("decode teacher %s sections: %w", row.ID, err)
		}
	}
	return teacher, nil
}

func teacherToRow(teacher *models.Teacher) (teacherRow, error) {
	subjects, err := json.Marshal(teacher.Subjects)
	if err != nil {
		return teacherRow{}, fmt.Errorf("encode teacher subjects: %w", err)
	}
	sections, err := json.Marshal(teacher.Sections)
	if err != nil {
		return teacherRow{}, fmt.Errorf("encode teacher sections: %w", err)
	}
	return teacherRow{
		ID:                teacher.ID,
		FullName:          teacher.FullName,
		Subjects:          types.JSONText(subjects),
		Sections:          types.JSONText(sections),
		MaxPeriodsPerDay:  teacher.MaxPeriodsPerDay,
		MaxPeriodsPerWeek: teacher.MaxPeriodsPerWeek,
		CreatedAt:         teacher.CreatedAt,
		UpdatedAt:         teacher.UpdatedAt,
	}, nil
}

const teacherColumns = "id, full_name, subjects, sections, max_periods_per_day, max_periods_per_week, created_at, updated_at"

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(full_name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherColumns, base, column, order, size, offset)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teacher, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		teachers = append(teachers, teacher)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	return teachers, total, nil
}

// ListAll returns every teacher, for solve runs.
func (r *TeacherRepository) ListAll(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY id ASC", teacherColumns)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all teachers: %w", err)
	}
	teachers := make([]models.Teacher, 0, len(rows))
	for _, row := range rows {
		teacher, err := row.toModel()
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, teacher)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	teacher, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	row, err := teacherToRow(teacher)
	if err != nil {
		return err
	}
	const query = `INSERT INTO teachers (id, full_name, subjects, sections, max_periods_per_day, max_periods_per_week, created_at, updated_at)
		VALUES (:id, :full_name, :subjects, :sections, :max_periods_per_day, :max_periods_per_week, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update persists changes to an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	row, err := teacherToRow(teacher)
	if err != nil {
		return err
	}
	const query = `UPDATE teachers
		SET full_name = :full_name, subjects = :subjects, sections = :sections,
		    max_periods_per_day = :max_periods_per_day, max_periods_per_week = :max_periods_per_week,
		    updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update teacher rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("teacher %s not found", teacher.ID)
	}
	return nil
}

// Delete removes a teacher by ID.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM teachers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete teacher rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("teacher %s not found", id)
	}
	return nil
}
