package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const (
	timetableKey = "timetable:current"
	scenarioKey  = "timetable:scenarios"
)

// TimetableSession is the frozen result of the last successful generation
// together with its provenance. The scenario state is stored separately so
// toggling what-if views never touches the base schedule.
type TimetableSession struct {
	Version     string              `json:"version"`
	Timetable   models.Timetable    `json:"timetable"`
	Outcome     models.SolveOutcome `json:"outcome"`
	Score       float64             `json:"score"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// SessionRepository stores the active timetable session in Redis.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewSessionRepository constructs a session repository. A zero TTL means
// sessions never expire.
func NewSessionRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger, ttl: ttl}
}

// GetSession loads the current base timetable session.
func (r *SessionRepository) GetSession(ctx context.Context) (*TimetableSession, error) {
	var session TimetableSession
	if err := r.get(ctx, timetableKey, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveSession replaces the current base timetable session.
func (r *SessionRepository) SaveSession(ctx context.Context, session *TimetableSession) error {
	return r.set(ctx, timetableKey, session)
}

// GetScenarioState loads the stored what-if toggles; missing state is the
// zero value with everything off.
func (r *SessionRepository) GetScenarioState(ctx context.Context) (models.ScenarioState, error) {
	var state models.ScenarioState
	if err := r.get(ctx, scenarioKey, &state); err != nil {
		if err == appErrors.ErrCacheMiss {
			return models.ScenarioState{}, nil
		}
		return models.ScenarioState{}, err
	}
	return state, nil
}

// SaveScenarioState replaces the stored what-if toggles.
func (r *SessionRepository) SaveScenarioState(ctx context.Context, state models.ScenarioState) error {
	return r.set(ctx, scenarioKey, state)
}

// ClearScenarioState removes the stored toggles.
func (r *SessionRepository) ClearScenarioState(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, scenarioKey).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", scenarioKey, err)
	}
	return nil
}

func (r *SessionRepository) get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *SessionRepository) set(ctx context.Context, key string, value interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis not configured")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *SessionRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
