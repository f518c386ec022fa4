package service

import (
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveTotal      *prometheus.CounterVec
	solveScore      prometheus.Gauge
	repairPasses    prometheus.Histogram
	dbQueryDuration *prometheus.HistogramVec

	requestCount         uint64
	requestDurationTotal uint64
	solveCount           uint64

	mu            sync.Mutex
	lastOutcome   models.SolveOutcome
	lastScore     float64
	lastSolveTime time.Duration
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Duration of timetable generation runs",
		Buckets: []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"outcome"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solves_total",
		Help: "Total timetable generation runs by outcome",
	}, []string{"outcome"})

	solveScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_last_score",
		Help: "Preference score of the most recent solved timetable",
	})

	repairPasses := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_repair_iterations",
		Help:    "Iterations spent in the repair loop after manual edits",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveTotal, solveScore, repairPasses, dbQueryDuration, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		solveScore:      solveScore,
		repairPasses:    repairPasses,
		dbQueryDuration: dbQueryDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveSolve records the terminal state of one generation run.
func (m *MetricsService) ObserveSolve(outcome models.SolveOutcome, score float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(string(outcome)).Observe(duration.Seconds())
	m.solveTotal.WithLabelValues(string(outcome)).Inc()
	if outcome == models.OutcomeSolved {
		m.solveScore.Set(score)
	}
	atomic.AddUint64(&m.solveCount, 1)

	m.mu.Lock()
	m.lastOutcome = outcome
	m.lastScore = score
	m.lastSolveTime = duration
	m.mu.Unlock()
}

// ObserveRepair records how many passes a repair loop consumed.
func (m *MetricsService) ObserveRepair(iterations int) {
	if m == nil || m.repairPasses == nil {
		return
	}
	m.repairPasses.Observe(float64(iterations))
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics suitable for the ops endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	solves := atomic.LoadUint64(&m.solveCount)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.mu.Lock()
	outcome := m.lastOutcome
	score := m.lastScore
	solveTime := m.lastSolveTime
	m.mu.Unlock()

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: math.Round(avgRequestMs*1000) / 1000,
		SolvesTotal:              solves,
		LastSolveOutcome:         string(outcome),
		LastSolveScore:           score,
		LastSolveDurationMs:      float64(solveTime) / float64(time.Millisecond),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
