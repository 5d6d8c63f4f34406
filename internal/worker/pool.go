// Package worker implements the cooperative job-queue poller of §4.11: a
// pool of goroutines each repeatedly claiming due jobs and dispatching them
// to a (job_type -> handler) map, generalizing pkg/queue/pool.go +
// worker.go's session-specific worker pool to arbitrary job types.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carlosapgomes/eda-triage/internal/queue"
)

// Handler processes one claimed job's payload. A returned error is treated
// as retriable up to the job's max_attempts; Handler implementations should
// not themselves call queue methods on the job — the Worker does that based
// on the returned error.
type Handler func(ctx context.Context, job JobView) error

// JobView is the subset of ent.Job a Handler needs, so package worker does
// not require handlers to import ent directly.
type JobView struct {
	ID       string
	CaseID   *string
	JobType  string
	Attempts int
	Payload  map[string]any
}

// Config holds pool sizing and polling parameters, mirroring
// pkg/config/queue.go's QueueConfig fields relevant to a cooperative poller.
type Config struct {
	WorkerCount        int
	BatchSize          int
	PollInterval       time.Duration
	PollIntervalJitter time.Duration
}

// DefaultConfig returns built-in pool defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount:        3,
		BatchSize:          5,
		PollInterval:       1 * time.Second,
		PollIntervalJitter: 250 * time.Millisecond,
	}
}

// Pool manages a set of Worker goroutines sharing one handler map and queue.
type Pool struct {
	config   Config
	queue    *queue.Queue
	finalize *Finalizer

	handlers map[string]Handler

	workers  []*worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

// NewPool creates a Pool. handlers maps job_type to its Handler; an
// unregistered job_type is treated as a retriable error per §4.11.
func NewPool(config Config, q *queue.Queue, finalize *Finalizer, handlers map[string]Handler) *Pool {
	return &Pool{
		config:   config,
		queue:    q,
		finalize: finalize,
		handlers: handlers,
		stopCh:   make(chan struct{}),
	}
}

// Start spawns the configured number of worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call")
		return
	}
	p.started = true

	slog.Info("starting worker pool", "worker_count", p.config.WorkerCount)

	for i := 0; i < p.config.WorkerCount; i++ {
		w := newWorker(fmt.Sprintf("worker-%d", i), p.config, p.queue, p.finalize, p.handlers, p.stopCh)
		p.workers = append(p.workers, w)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(ctx)
		}()
	}
}

// Stop signals every worker to finish its current batch and exit, then
// waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("worker pool stopped")
}

// PoolHealth summarizes pool-wide liveness for a health endpoint.
type PoolHealth struct {
	TotalWorkers  int            `json:"total_workers"`
	ActiveWorkers int            `json:"active_workers"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}

// Health returns the current health of every worker in the pool.
func (p *Pool) Health() PoolHealth {
	stats := make([]WorkerHealth, len(p.workers))
	active := 0
	for i, w := range p.workers {
		stats[i] = w.Health()
		if stats[i].Status == WorkerStatusWorking {
			active++
		}
	}
	return PoolHealth{
		TotalWorkers:  len(p.workers),
		ActiveWorkers: active,
		WorkerStats:   stats,
	}
}
