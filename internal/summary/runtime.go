package summary

import (
	"context"
	"log/slog"
	"time"
)

// Runtime wraps a Scheduler in a ticker-driven loop, for deployments that
// run the scheduler in-process rather than as an externally cron-triggered
// one-shot invocation. Structurally grounded on pkg/cleanup/service.go's
// Start/Stop/run shape.
type Runtime struct {
	scheduler *Scheduler
	interval  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRuntime creates a Runtime that attempts a scheduling pass every
// interval.
func NewRuntime(scheduler *Scheduler, interval time.Duration) *Runtime {
	return &Runtime{scheduler: scheduler, interval: interval}
}

// Start launches the background scheduling loop.
func (r *Runtime) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go r.run(ctx)

	slog.Info("summary scheduler runtime started", "interval", r.interval)
}

// Stop signals the loop to exit and waits for it to finish.
func (r *Runtime) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	slog.Info("summary scheduler runtime stopped")
}

func (r *Runtime) run(ctx context.Context) {
	defer close(r.done)

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runtime) tick(ctx context.Context) {
	result, err := r.scheduler.EnqueuePreviousWindowSummary(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("summary scheduler pass failed", "error", err)
		return
	}
	if result.Claimed {
		slog.Info("summary scheduler claimed window", "job_id", result.JobID, "window_start", result.Window.StartUTC, "window_end", result.Window.EndUTC)
	}
}
