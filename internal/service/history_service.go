package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

type historyRepository interface {
	Insert(ctx context.Context, entry *models.HistoryEntry) error
	List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, int, error)
	Clear(ctx context.Context) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryServiceConfig tunes the async activity log.
type HistoryServiceConfig struct {
	Enabled   bool
	QueueSize int
	Retention time.Duration
}

// HistoryService records activity entries asynchronously so terminal events
// never block or fail the operation that produced them.
type HistoryService struct {
	repo   historyRepository
	queue  *jobs.Queue
	cfg    HistoryServiceConfig
	logger *zap.Logger
}

// NewHistoryService constructs the service. Call Start before recording.
func NewHistoryService(repo historyRepository, cfg HistoryServiceConfig, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HistoryService{repo: repo, cfg: cfg, logger: logger}
	s.queue = jobs.NewQueue("history", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		BufferSize: cfg.QueueSize,
		Logger:     logger,
	})
	return s
}

// Start launches the queue worker and the retention pruner.
func (s *HistoryService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	s.queue.Start(ctx)
	if s.cfg.Retention > 0 {
		go s.pruneLoop(ctx)
	}
}

// Stop drains the worker.
func (s *HistoryService) Stop() {
	if !s.cfg.Enabled {
		return
	}
	s.queue.Stop()
}

// Record enqueues one activity entry. Details may be any JSON-encodable
// value; failures are logged, never returned.
func (s *HistoryService) Record(action, target, summary string, details interface{}) {
	if s == nil || !s.cfg.Enabled {
		return
	}
	entry := models.HistoryEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Target:    target,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("history details not encodable", zap.String("action", action), zap.Error(err))
		} else {
			entry.Details = string(raw)
		}
	}
	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: action, Payload: entry}); err != nil {
		s.logger.Warn("history entry dropped", zap.String("action", action), zap.Error(err))
	}
}

// List returns recorded entries, newest first.
func (s *HistoryService) List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryEntry, *models.Pagination, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Clear wipes the activity log.
func (s *HistoryService) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear history")
	}
	return nil
}

func (s *HistoryService) handleJob(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.HistoryEntry)
	if !ok {
		return fmt.Errorf("unexpected history payload %T", job.Payload)
	}
	return s.repo.Insert(ctx, &entry)
}

func (s *HistoryService) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-s.cfg.Retention)
			pruned, err := s.repo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				s.logger.Warn("history prune failed", zap.Error(err))
				continue
			}
			if pruned > 0 {
				s.logger.Info("history pruned", zap.Int64("entries", pruned))
			}
		}
	}
}
