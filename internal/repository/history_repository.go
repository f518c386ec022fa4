package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// HistoryRepository persists the activity log.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert records one history entry.
func (r *HistoryRepository) Insert(ctx context.Context, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO history_entries (id, action, target, summary, details, created_at)
		VALUES (:id, :action, :target, :summary, :details, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally filtered by action.
func (r *HistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, int, error) {
	base := "FROM history_entries WHERE 1=1"
	var args []interface{}
	if filter.Action != "" {
		base += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, action, target, summary, details, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}
	return entries, total, nil
}

// Clear removes every history entry.
func (r *HistoryRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM history_entries"); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// DeleteOlderThan prunes entries recorded before the cutoff.
func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM history_entries WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history rows affected: %w", err)
	}
	return affected, nil
}
