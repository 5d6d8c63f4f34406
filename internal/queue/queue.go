// Package queue implements the durable job queue (spec §4.2): claim/retry/
// dead-letter semantics on top of the Job entity, directly generalizing
// pkg/queue/worker.go's claimNextSession (Tx + FOR UPDATE SKIP LOCKED +
// commit) from claiming a single AlertSession row to claiming arbitrary
// job_type rows.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/job"
	"github.com/carlosapgomes/eda-triage/internal/backoff"
	"github.com/carlosapgomes/eda-triage/internal/clock"
	"github.com/google/uuid"
)

// Sentinel errors for queue operations, matching the teacher's
// queue.ErrNoSessionsAvailable / queue.ErrAtCapacity style.
var (
	// ErrNotFound indicates the job id does not exist.
	ErrNotFound = errors.New("job not found")
)

// Queue is the durable job queue backed by the ent client.
type Queue struct {
	client *ent.Client
	clock  clock.Clock
}

// New creates a Queue bound to client, using clk as its time source.
func New(client *ent.Client, clk clock.Clock) *Queue {
	return &Queue{client: client, clock: clk}
}

// Enqueue inserts a new queued job. runAfter defaults to now when zero.
// maxAttempts defaults to 5 when zero, matching spec §4.2's contract.
func (q *Queue) Enqueue(ctx context.Context, jobType string, caseID *string, payload map[string]any, runAfter time.Time, maxAttempts int) (*ent.Job, error) {
	if runAfter.IsZero() {
		runAfter = q.clock.Now()
	}
	if maxAttempts == 0 {
		maxAttempts = 5
	}

	builder := q.client.Job.Create().
		SetID(uuid.New().String()).
		SetJobType(jobType).
		SetStatus(job.StatusQueued).
		SetRunAfter(runAfter).
		SetMaxAttempts(maxAttempts).
		SetPayload(payload)
	if caseID != nil {
		builder = builder.SetCaseID(*caseID)
	}

	j, err := builder.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}
	return j, nil
}

// HasActiveJob reports whether any queued|running job exists for
// (case_id, job_type), the check callers must make before Enqueue to honor
// Invariant 3.
func (q *Queue) HasActiveJob(ctx context.Context, caseID, jobType string) (bool, error) {
	count, err := q.client.Job.Query().
		Where(
			job.CaseIDEQ(caseID),
			job.JobTypeEQ(jobType),
			job.StatusIn(job.StatusQueued, job.StatusRunning),
		).
		Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check active job: %w", err)
	}
	return count > 0, nil
}

// ClaimDue atomically claims up to limit queued jobs whose run_after has
// passed, transitions them to running, and returns them. Concurrent callers
// receive disjoint sets because the row-level lock uses SKIP LOCKED.
func (q *Queue) ClaimDue(ctx context.Context, limit int) ([]*ent.Job, error) {
	tx, err := q.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := q.clock.Now()
	due, err := tx.Job.Query().
		Where(
			job.StatusEQ(job.StatusQueued),
			job.RunAfterLTE(now),
		).
		Order(ent.Asc(job.FieldRunAfter), ent.Asc(job.FieldID)).
		Limit(limit).
		ForUpdate(sql.WithLockAction(sql.SkipLocked)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query due jobs: %w", err)
	}
	if len(due) == 0 {
		return nil, tx.Commit()
	}

	ids := make([]string, len(due))
	for i, j := range due {
		ids[i] = j.ID
	}

	if _, err := tx.Job.Update().
		Where(job.IDIn(ids...)).
		SetStatus(job.StatusRunning).
		Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to claim jobs: %w", err)
	}

	claimed, err := tx.Job.Query().Where(job.IDIn(ids...)).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refetch claimed jobs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return claimed, nil
}

// MarkDone transitions a job to its terminal success state. Per the
// Testable Properties, a job never transitions from done/dead again, so
// callers must not call any other queue method on this job id afterward.
func (q *Queue) MarkDone(ctx context.Context, jobID string) error {
	err := q.client.Job.UpdateOneID(jobID).
		SetStatus(job.StatusDone).
		Exec(ctx)
	return wrapNotFound(err)
}

// MarkFailed records a terminal, non-retried failure without advancing
// attempts — used when a caller decides up front that no retry should be
// attempted for this job.
func (q *Queue) MarkFailed(ctx context.Context, jobID string, cause error) error {
	err := q.client.Job.UpdateOneID(jobID).
		SetStatus(job.StatusFailed).
		SetLastError(cause.Error()).
		Exec(ctx)
	return wrapNotFound(err)
}

// ScheduleRetry increments attempts, sets the next run_after using the
// caller-supplied time (normally clock.Now().Add(backoff.Delay(attempts+1))),
// and moves the job back to queued.
func (q *Queue) ScheduleRetry(ctx context.Context, jobID string, runAfter time.Time, cause error) error {
	err := q.client.Job.UpdateOneID(jobID).
		SetStatus(job.StatusQueued).
		SetRunAfter(runAfter).
		SetLastError(cause.Error()).
		AddAttempts(1).
		Exec(ctx)
	return wrapNotFound(err)
}

// NextRunAfter is a convenience wrapper computing the next retry time from
// the queue's clock and the backoff table for the given next attempt number.
func (q *Queue) NextRunAfter(nextAttempt int) time.Time {
	return q.clock.Now().Add(backoff.Delay(nextAttempt))
}

// MarkDead is the final terminal failure after exceeding max_attempts.
func (q *Queue) MarkDead(ctx context.Context, jobID string, cause error) error {
	err := q.client.Job.UpdateOneID(jobID).
		SetStatus(job.StatusDead).
		SetLastError(cause.Error()).
		AddAttempts(1).
		Exec(ctx)
	return wrapNotFound(err)
}

func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if ent.IsNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("queue operation failed: %w", err)
}
