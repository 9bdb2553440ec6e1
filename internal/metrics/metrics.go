// Package metrics exposes Prometheus instruments for a backtest run and an
// optional HTTP listener serving /metrics and /healthz.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the backtest engine.
type Metrics struct {
	TasksTotal   prometheus.Counter
	TaskFailures prometheus.Counter
	TradesTotal  prometheus.Counter
	BarsLoaded   prometheus.Counter
	TaskDur      prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		TasksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_tasks_total",
			Help: "Completed (ticker, parameter-set) backtest tasks",
		}),
		TaskFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_task_failures_total",
			Help: "Backtest tasks that failed and were excluded from aggregation",
		}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Closed trades produced across all tasks",
		}),
		BarsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_bars_loaded_total",
			Help: "Daily bars loaded from the price store",
		}),
		TaskDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_task_duration_seconds",
			Help:    "Wall time per backtest task",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
	}

	prometheus.MustRegister(
		m.TasksTotal,
		m.TaskFailures,
		m.TradesTotal,
		m.BarsLoaded,
		m.TaskDur,
	)

	return m
}

// RunStatus tracks run progress for the /healthz endpoint.
type RunStatus struct {
	mu sync.RWMutex

	StartedAt     time.Time `json:"started_at"`
	TasksQueued   int       `json:"tasks_queued"`
	TasksFinished int       `json:"tasks_finished"`
	Done          bool      `json:"done"`
}

// NewRunStatus returns a run status anchored at now.
func NewRunStatus() *RunStatus {
	return &RunStatus{StartedAt: time.Now()}
}

func (s *RunStatus) SetQueued(n int) {
	s.mu.Lock()
	s.TasksQueued = n
	s.mu.Unlock()
}

func (s *RunStatus) TaskFinished() {
	s.mu.Lock()
	s.TasksFinished++
	s.mu.Unlock()
}

func (s *RunStatus) SetDone() {
	s.mu.Lock()
	s.Done = true
	s.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (s *RunStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := struct {
		Status        string `json:"status"`
		Uptime        string `json:"uptime"`
		TasksQueued   int    `json:"tasks_queued"`
		TasksFinished int    `json:"tasks_finished"`
	}{
		Status:        "running",
		Uptime:        time.Since(s.StartedAt).Round(time.Second).String(),
		TasksQueued:   s.TasksQueued,
		TasksFinished: s.TasksFinished,
	}
	if s.Done {
		status.Status = "done"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, status *RunStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", status.ServeHTTP)

	return &Server{
		addr: addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
