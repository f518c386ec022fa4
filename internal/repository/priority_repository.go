package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// PriorityRepository persists per-class soft preference configuration.
type PriorityRepository struct {
	db *sqlx.DB
}

// NewPriorityRepository constructs the repository.
func NewPriorityRepository(db *sqlx.DB) *PriorityRepository {
	return &PriorityRepository{db: db}
}

type priorityRow struct {
	ClassID          string         `db:"class_id"`
	PrioritySubjects types.JSONText `db:"priority_subjects"`
	WeakSubjects     types.JSONText `db:"weak_subjects"`
	HeavySubjects    types.JSONText `db:"heavy_subjects"`
}

func (row priorityRow) toModel() (models.ClassPriorityConfig, error) {
	config := models.ClassPriorityConfig{ClassID: row.ClassID}
	for _, field := range []struct {
		raw  types.JSONText
		dest *[]string
	}{
		{row.PrioritySubjects, &config.PrioritySubjects},
		{row.WeakSubjects, &config.WeakSubjects},
		{row.HeavySubjects, &config.HeavySubjects},
	} {
		if len(field.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(field.raw, field.dest); err != nil {
			return models.ClassPriorityConfig{}, fmt.Errorf("decode priorities for class %s: %w", row.ClassID, err)
		}
	}
	return config, nil
}

func priorityToRow(config *models.ClassPriorityConfig) (priorityRow, error) {
	row := priorityRow{ClassID: config.ClassID}
	for _, field := range []struct {
		src  []string
		dest *types.JSONText
	}{
		{config.PrioritySubjects, &row.PrioritySubjects},
		{config.WeakSubjects, &row.WeakSubjects},
		{config.HeavySubjects, &row.HeavySubjects},
	} {
		raw, err := json.Marshal(field.src)
		if err != nil {
			return priorityRow{}, fmt.Errorf("encode priorities for class %s: %w", config.ClassID, err)
		}
		*field.dest = types.JSONText(raw)
	}
	return row, nil
}

// ListAll returns every stored priority configuration.
func (r *PriorityRepository) ListAll(ctx context.Context) ([]models.ClassPriorityConfig, error) {
	const query = `SELECT class_id, priority_subjects, weak_subjects, heavy_subjects FROM class_priorities ORDER BY class_id ASC`
	var rows []priorityRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list priorities: %w", err)
	}
	configs := make([]models.ClassPriorityConfig, 0, len(rows))
	for _, row := range rows {
		config, err := row.toModel()
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	return configs, nil
}

// GetByClass fetches the priority configuration of one class.
func (r *PriorityRepository) GetByClass(ctx context.Context, classID string) (*models.ClassPriorityConfig, error) {
	const query = `SELECT class_id, priority_subjects, weak_subjects, heavy_subjects FROM class_priorities WHERE class_id = $1`
	var row priorityRow
	if err := r.db.GetContext(ctx, &row, query, classID); err != nil {
		return nil, err
	}
	config, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Upsert creates or replaces the priority configuration of a class.
func (r *PriorityRepository) Upsert(ctx context.Context, config *models.ClassPriorityConfig) error {
	row, err := priorityToRow(config)
	if err != nil {
		return err
	}
	const query = `INSERT INTO class_priorities (class_id, priority_subjects, weak_subjects, heavy_subjects)
		VALUES (:class_id, :priority_subjects, :weak_subjects, :heavy_subjects)
		ON CONFLICT (class_id) DO UPDATE
		SET priority_subjects = EXCLUDED.priority_subjects,
		    weak_subjects = EXCLUDED.weak_subjects,
		    heavy_subjects = EXCLUDED.heavy_subjects`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert priorities: %w", err)
	}
	return nil
}

// Delete removes the priority configuration of a class.
func (r *PriorityRepository) Delete(ctx context.Context, classID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM class_priorities WHERE class_id = $1", classID); err != nil {
		return fmt.Errorf("delete priorities: %w", err)
	}
	return nil
}
