package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// schoolConfigKey is the single row the calendar lives under.
const schoolConfigKey = "school"

// SchoolConfigRepository persists the school calendar configuration.
type SchoolConfigRepository struct {
	db *sqlx.DB
}

// NewSchoolConfigRepository constructs the repository.
func NewSchoolConfigRepository(db *sqlx.DB) *SchoolConfigRepository {
	return &SchoolConfigRepository{db: db}
}

type schoolConfigRow struct {
	Key       string         `db:"key"`
	Value     types.JSONText `db:"value"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Get returns the stored calendar, or the default week when none was saved.
func (r *SchoolConfigRepository) Get(ctx context.Context) (models.SchoolConfig, error) {
	const query = `SELECT key, value, updated_at FROM school_configs WHERE key = $1`
	var row schoolConfigRow
	if err := r.db.GetContext(ctx, &row, query, schoolConfigKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSchoolConfig(), nil
		}
		return models.SchoolConfig{}, fmt.Errorf("get school config: %w", err)
	}

	var config models.SchoolConfig
	if err := json.Unmarshal(row.Value, &config); err != nil {
		return models.SchoolConfig{}, fmt.Errorf("decode school config: %w", err)
	}
	return config, nil
}

// Upsert stores the calendar, replacing any previous one.
func (r *SchoolConfigRepository) Upsert(ctx context.Context, config models.SchoolConfig) error {
	value, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode school config: %w", err)
	}
	row := schoolConfigRow{
		Key:       schoolConfigKey,
		Value:     types.JSONText(value),
		UpdatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO school_configs (key, value, updated_at)
		VALUES (:key, :value, :updated_at)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert school config: %w", err)
	}
	return nil
}
