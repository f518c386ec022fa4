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

// ClassRepository manages persistence for classes and their subject plans.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

type classRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	Subjects  types.JSONText `db:"subjects"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (row classRow) toModel() (models.Class, error) {
	class := models.Class{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Subjects) > 0 {
		if err := json.Unmarshal(row.Subjects, &class.Subjects); err != nil {
			return models.Class{}, fmt.Errorf("decode class %s subjects: %w", row.ID, err)
		}
	}
	return class, nil
}

func classToRow(class *models.Class) (classRow, error) {
	subjects, err := json.Marshal(class.Subjects)
	if err != nil {
		return classRow{}, fmt.Errorf("encode class subjects: %w", err)
	}
	return classRow{
		ID:        class.ID,
		Name:      class.Name,
		Subjects:  types.JSONText(subjects),
		CreatedAt: class.CreatedAt,
		UpdatedAt: class.UpdatedAt,
	}, nil
}

const classColumns = "id, name, subjects, created_at, updated_at"

// List returns classes matching filters along with total count.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	column := "name"
	if filter.SortBy == "created_at" || filter.SortBy == "updated_at" {
		column = filter.SortBy
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classColumns, base, column, order, size, offset)
	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	classes := make([]models.Class, 0, len(rows))
	for _, row := range rows {
		class, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		classes = append(classes, class)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	return classes, total, nil
}

// ListAll returns every class, for solve runs.
func (r *ClassRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes ORDER BY id ASC", classColumns)
	var rows []classRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list all classes: %w", err)
	}
	classes := make([]models.Class, 0, len(rows))
	for _, row := range rows {
		class, err := row.toModel()
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, nil
}

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var row classRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	class, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	row, err := classToRow(class)
	if err != nil {
		return err
	}
	const query = `INSERT INTO classes (id, name, subjects, created_at, updated_at)
		VALUES (:id, :name, :subjects, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update persists changes to an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	row, err := classToRow(class)
	if err != nil {
		return err
	}
	const query = `UPDATE classes
		SET name = :name, subjects = :subjects, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update class rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("class %s not found", class.ID)
	}
	return nil
}

// Delete removes a class by ID.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete class rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("class %s not found", id)
	}
	return nil
}
