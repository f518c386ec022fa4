package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot for the ops endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SolvesTotal              uint64    `json:"solves_total"`
	LastSolveOutcome         string    `json:"last_solve_outcome,omitempty"`
	LastSolveScore           float64   `json:"last_solve_score"`
	LastSolveDurationMs      float64   `json:"last_solve_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
