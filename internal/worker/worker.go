package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/internal/queue"
)

// WorkerStatus is a worker's current health-reported state.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// WorkerHealth is a point-in-time snapshot of one worker's activity.
type WorkerHealth struct {
	ID            string       `json:"id"`
	Status        WorkerStatus `json:"status"`
	JobsProcessed int          `json:"jobs_processed"`
	LastActivity  time.Time    `json:"last_activity"`
}

type worker struct {
	id       string
	config   Config
	queue    *queue.Queue
	finalize *Finalizer
	handlers map[string]Handler
	stopCh   chan struct{}

	mu            sync.RWMutex
	status        WorkerStatus
	jobsProcessed int
	lastActivity  time.Time
}

func newWorker(id string, config Config, q *queue.Queue, finalize *Finalizer, handlers map[string]Handler, stopCh chan struct{}) *worker {
	return &worker{
		id:           id,
		config:       config,
		queue:        q,
		finalize:     finalize,
		handlers:     handlers,
		stopCh:       stopCh,
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

func (w *worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:            w.id,
		Status:        w.status,
		JobsProcessed: w.jobsProcessed,
		LastActivity:  w.lastActivity,
	}
}

// run is the cooperative poll loop: repeatedly claim due jobs and process
// them, sleeping between empty batches. It exits cleanly on stop signal or
// context cancellation, letting the current batch finish first.
func (w *worker) run(ctx context.Context) {
	log := slog.With("worker_id", w.id)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
		}

		jobs, err := w.queue.ClaimDue(ctx, w.config.BatchSize)
		if err != nil {
			log.Error("failed to claim due jobs", "error", err)
			w.sleep(time.Second)
			continue
		}
		if len(jobs) == 0 {
			w.sleep(w.pollInterval())
			continue
		}

		for _, j := range jobs {
			w.processOne(ctx, j)
		}
	}
}

func (w *worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *worker) pollInterval() time.Duration {
	base := w.config.PollInterval
	jitter := w.config.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func toJobView(j *ent.Job) JobView {
	return JobView{
		ID:       j.ID,
		CaseID:   j.CaseID,
		JobType:  j.JobType,
		Attempts: j.Attempts,
		Payload:  j.Payload,
	}
}

func (w *worker) processOne(ctx context.Context, j *ent.Job) {
	w.setStatus(WorkerStatusWorking)
	defer w.setStatus(WorkerStatusIdle)

	view := toJobView(j)
	log := slog.With("worker_id", w.id, "job_id", view.ID, "job_type", view.JobType)

	handler, ok := w.handlers[view.JobType]
	var handlerErr error
	if !ok {
		handlerErr = fmt.Errorf("Unknown job type: %s", view.JobType)
	} else {
		handlerErr = handler(ctx, view)
	}

	if handlerErr == nil {
		if err := w.queue.MarkDone(ctx, view.ID); err != nil {
			log.Error("failed to mark job done", "error", err)
		}
		w.mu.Lock()
		w.jobsProcessed++
		w.mu.Unlock()
		log.Info("job completed")
		return
	}

	nextAttempt := view.Attempts + 1
	if nextAttempt < j.MaxAttempts {
		runAfter := w.queue.NextRunAfter(nextAttempt)
		if err := w.queue.ScheduleRetry(ctx, view.ID, runAfter, handlerErr); err != nil {
			log.Error("failed to schedule retry", "error", err)
		}
		log.Warn("job failed, scheduled retry", "attempt", nextAttempt, "run_after", runAfter, "error", handlerErr)
		return
	}

	if err := w.queue.MarkDead(ctx, view.ID, handlerErr); err != nil {
		log.Error("failed to mark job dead", "error", err)
	}
	log.Error("job dead-lettered", "attempts", nextAttempt, "error", handlerErr)

	if w.finalize != nil {
		if err := w.finalize.Finalize(ctx, view, handlerErr); err != nil {
			log.Error("job failure finalizer failed", "error", err)
		}
	}
}

func (w *worker) setStatus(status WorkerStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.lastActivity = time.Now()
}
