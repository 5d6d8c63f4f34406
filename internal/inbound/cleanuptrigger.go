package inbound

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/google/uuid"
)

// CleanupTrigger turns the Room-1 acknowledgement reaction (a "thumbs up"
// on the final reply) into the WAIT_R1_CLEANUP_THUMBS -> CLEANUP_RUNNING
// transition, grounded on the same out-of-scope chat-event boundary as
// Ingest — the reaction listener itself lives outside this package.
type CleanupTrigger struct {
	client *ent.Client
	queue  *queue.Queue
}

// NewCleanupTrigger creates a CleanupTrigger.
func NewCleanupTrigger(client *ent.Client, q *queue.Queue) *CleanupTrigger {
	return &CleanupTrigger{client: client, queue: q}
}

// CleanupOutcome mirrors the other inbound use cases' result shape.
type CleanupOutcome string

const (
	CleanupOutcomeNotFound   CleanupOutcome = "NOT_FOUND"
	CleanupOutcomeWrongState CleanupOutcome = "WRONG_STATE"
	CleanupOutcomeApplied    CleanupOutcome = "APPLIED"
)

// Apply transitions caseID from WAIT_R1_CLEANUP_THUMBS to CLEANUP_RUNNING,
// stamping cleanup_triggered_at and enqueuing execute_cleanup. A case
// already past this point (cleanup already triggered, or terminal) is a
// no-op WRONG_STATE rather than an error, since a reaction can be reported
// more than once by the chat adapter.
func (t *CleanupTrigger) Apply(ctx context.Context, caseID string) (CleanupOutcome, error) {
	tx, err := t.client.Tx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	c, err := tx.TriageCase.Get(ctx, caseID)
	if err != nil {
		_ = tx.Rollback()
		if ent.IsNotFound(err) {
			return CleanupOutcomeNotFound, nil
		}
		return "", fmt.Errorf("failed to load case: %w", err)
	}

	if c.Status != triagecase.Status("WAIT_R1_CLEANUP_THUMBS") || c.CleanupTriggeredAt != nil {
		_ = tx.Rollback()
		return CleanupOutcomeWrongState, nil
	}

	triggeredAt := time.Now()
	if err := tx.TriageCase.UpdateOne(c).
		SetStatus(triagecase.Status("CLEANUP_RUNNING")).
		SetCleanupTriggeredAt(triggeredAt).
		Exec(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to transition case: %w", err)
	}

	if _, err := tx.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetActorType("human").
		SetEventType("CLEANUP_TRIGGERED").
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to write audit event: %w", err)
	}

	if _, err := tx.Job.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetJobType("execute_cleanup").
		SetPayload(map[string]any{"case_id": caseID}).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to enqueue execute_cleanup: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit cleanup trigger: %w", err)
	}

	return CleanupOutcomeApplied, nil
}
