package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/llmpipeline"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/google/uuid"
)

// causeSubstrings are the fallback classification for stage errors that
// don't carry a structured cause (e.g. a download/extract failure before
// the LLM pipeline is reached).
var causeSubstrings = []string{"download", "record_extract", "extract", "llm1", "llm2"}

const maxDetailsLen = 300

// Finalizer transitions a case to FAILED and enqueues its final-failure
// notification job when one of its jobs is dead-lettered.
type Finalizer struct {
	client *ent.Client
	queue  *queue.Queue
}

// NewFinalizer creates a Finalizer.
func NewFinalizer(client *ent.Client, q *queue.Queue) *Finalizer {
	return &Finalizer{client: client, queue: q}
}

// Finalize is called once per dead-lettered job. Jobs with no owning case
// (e.g. post_room4_summary) have nothing to finalize.
func (f *Finalizer) Finalize(ctx context.Context, job JobView, cause error) error {
	if job.CaseID == nil {
		return nil
	}
	caseID := *job.CaseID

	if err := f.client.TriageCase.UpdateOneID(caseID).
		SetStatus(triagecase.Status("FAILED")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark case failed: %w", err)
	}

	details := cause.Error()
	if len(details) > maxDetailsLen {
		details = details[:maxDetailsLen]
	}

	payload := map[string]any{
		"cause":   classifyCause(cause),
		"details": details,
	}

	if _, err := f.queue.Enqueue(ctx, "post_room1_final_failure", &caseID, payload, time.Time{}, 0); err != nil {
		return fmt.Errorf("failed to enqueue final-failure job: %w", err)
	}

	if _, err := f.client.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetActorType("system").
		SetEventType("CASE_FAILED").
		SetPayload(payload).
		Save(ctx); err != nil {
		return fmt.Errorf("failed to write case-failed audit event: %w", err)
	}

	return nil
}

// classifyCause derives the final-failure "cause" field, preferring the
// structured Cause carried by an *llmpipeline.RetriableError and falling
// back to substring match against the error text for earlier pipeline
// stages (download, extract, record-number extraction) that raise plain
// errors.
func classifyCause(cause error) string {
	var retriable *llmpipeline.RetriableError
	if errors.As(cause, &retriable) {
		return retriable.Cause
	}

	lower := strings.ToLower(cause.Error())
	for _, substr := range causeSubstrings {
		if strings.Contains(lower, substr) {
			return substr
		}
	}
	return "other"
}
