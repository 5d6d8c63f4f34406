package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/supervisorsummarydispatch"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/google/uuid"
)

// Config holds the fixed per-room scheduling parameters.
type Config struct {
	Room4ID      string
	Location     *time.Location
	MorningHour  int
	EveningHour  int
	TimezoneName string
}

// Result is the outcome of one scheduling attempt.
type Result struct {
	Claimed  bool
	Window   Window
	JobID    string
}

// Scheduler resolves the previous reporting window and dispatches (at most
// once) a post_room4_summary job for it.
type Scheduler struct {
	client *ent.Client
	queue  *queue.Queue
	config Config
}

// New creates a Scheduler.
func New(client *ent.Client, q *queue.Queue, config Config) *Scheduler {
	return &Scheduler{client: client, queue: q, config: config}
}

// EnqueuePreviousWindowSummary resolves the latest completed window as of
// runAtUTC and, if this (room, window) has not already been claimed,
// inserts a dispatch row and enqueues its post_room4_summary job.
func (s *Scheduler) EnqueuePreviousWindowSummary(ctx context.Context, runAtUTC time.Time) (Result, error) {
	window, err := ResolvePreviousWindow(runAtUTC, s.config.Location, s.config.MorningHour, s.config.EveningHour)
	if err != nil {
		return Result{}, err
	}

	claimed, err := s.claimWindow(ctx, window)
	if err != nil {
		return Result{}, err
	}
	if !claimed {
		return Result{Claimed: false, Window: window}, nil
	}

	payload := map[string]any{
		"room_id":      s.config.Room4ID,
		"window_start": window.StartUTC.Format(time.RFC3339),
		"window_end":   window.EndUTC.Format(time.RFC3339),
		"timezone":     s.config.TimezoneName,
	}
	j, err := s.queue.Enqueue(ctx, "post_room4_summary", nil, payload, time.Time{}, 0)
	if err != nil {
		return Result{}, fmt.Errorf("failed to enqueue summary job: %w", err)
	}

	return Result{Claimed: true, Window: window, JobID: j.ID}, nil
}

// claimWindow attempts to insert a fresh pending dispatch row for (room,
// window); on a unique-constraint collision it falls back to a
// compare-and-set reclaim of a previously failed dispatch for the same
// window, so a retried scheduler run can recover from a failed delivery
// without ever double-claiming a sent window.
func (s *Scheduler) claimWindow(ctx context.Context, window Window) (bool, error) {
	_, err := s.client.SupervisorSummaryDispatch.Create().
		SetID(uuid.New().String()).
		SetRoomID(s.config.Room4ID).
		SetWindowStart(window.StartUTC).
		SetWindowEnd(window.EndUTC).
		SetStatus(supervisorsummarydispatch.StatusPending).
		Save(ctx)
	if err == nil {
		return true, nil
	}
	if !ent.IsConstraintError(err) {
		return false, fmt.Errorf("failed to create dispatch row: %w", err)
	}

	n, err := s.client.SupervisorSummaryDispatch.Update().
		Where(
			supervisorsummarydispatch.RoomID(s.config.Room4ID),
			supervisorsummarydispatch.WindowStart(window.StartUTC),
			supervisorsummarydispatch.WindowEnd(window.EndUTC),
			supervisorsummarydispatch.StatusEQ(supervisorsummarydispatch.StatusFailed),
		).
		SetStatus(supervisorsummarydispatch.StatusPending).
		Save(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to reclaim dispatch row: %w", err)
	}
	return n > 0, nil
}

// MarkSent is the compare-and-set transition from pending to sent carrying
// the delivered chat event id, called by the post_room4_summary job handler
// once delivery succeeds.
func (s *Scheduler) MarkSent(ctx context.Context, roomID string, windowStart, windowEnd time.Time, deliveredEventID string) error {
	n, err := s.client.SupervisorSummaryDispatch.Update().
		Where(
			supervisorsummarydispatch.RoomID(roomID),
			supervisorsummarydispatch.WindowStart(windowStart),
			supervisorsummarydispatch.WindowEnd(windowEnd),
			supervisorsummarydispatch.StatusEQ(supervisorsummarydispatch.StatusPending),
		).
		SetStatus(supervisorsummarydispatch.StatusSent).
		SetDeliveredEventID(deliveredEventID).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark dispatch sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("dispatch row for room %s window [%s,%s] not in pending state", roomID, windowStart, windowEnd)
	}
	return nil
}

// MarkFailed is the complementary transition used by the job handler on
// delivery failure, allowing a later scheduler run's claimWindow to reclaim
// this window.
func (s *Scheduler) MarkFailed(ctx context.Context, roomID string, windowStart, windowEnd time.Time) error {
	return s.client.SupervisorSummaryDispatch.Update().
		Where(
			supervisorsummarydispatch.RoomID(roomID),
			supervisorsummarydispatch.WindowStart(windowStart),
			supervisorsummarydispatch.WindowEnd(windowEnd),
			supervisorsummarydispatch.StatusEQ(supervisorsummarydispatch.StatusPending),
		).
		SetStatus(supervisorsummarydispatch.StatusFailed).
		Exec(ctx)
}
