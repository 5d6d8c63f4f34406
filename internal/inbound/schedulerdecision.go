package inbound

import (
	"context"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/messaging/replyparser"
	"github.com/google/uuid"
)

// SchedulerOutcome mirrors httpapi.Outcome for the Room-3 scheduling
// confirmation/denial path, which has no HTTP entrypoint of its own —
// scheduler replies only arrive as chat messages.
type SchedulerOutcome string

const (
	SchedulerOutcomeNotFound   SchedulerOutcome = "NOT_FOUND"
	SchedulerOutcomeWrongState SchedulerOutcome = "WRONG_STATE"
	SchedulerOutcomeApplied    SchedulerOutcome = "APPLIED"
)

// SchedulerDecision applies a parsed Room-3 scheduling reply to a case,
// grounded on httpapi.DecisionUseCase's single-transaction
// load-validate-transition-audit-enqueue shape.
type SchedulerDecision struct {
	client *ent.Client
}

// NewSchedulerDecision creates a SchedulerDecision use case.
func NewSchedulerDecision(client *ent.Client) *SchedulerDecision {
	return &SchedulerDecision{client: client}
}

// Apply transitions a case in WAIT_SCHEDULER to APPT_CONFIRMED or
// APPT_DENIED per reply, persists the appointment fields, writes an audit
// event, and enqueues the matching post_room1_final_appt* job.
func (d *SchedulerDecision) Apply(ctx context.Context, reply *replyparser.SchedulerReply) (SchedulerOutcome, error) {
	tx, err := d.client.Tx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	c, err := tx.TriageCase.Get(ctx, reply.CaseID)
	if err != nil {
		_ = tx.Rollback()
		if ent.IsNotFound(err) {
			return SchedulerOutcomeNotFound, nil
		}
		return "", fmt.Errorf("failed to load case: %w", err)
	}

	if c.Status != triagecase.Status("WAIT_SCHEDULER") {
		_ = tx.Rollback()
		return SchedulerOutcomeWrongState, nil
	}

	newStatus := triagecase.Status("APPT_DENIED")
	nextJobType := "post_room1_final_appt_denied"
	if reply.Status == "confirmed" {
		newStatus = triagecase.Status("APPT_CONFIRMED")
		nextJobType = "post_room1_final_appt"
	}

	update := tx.TriageCase.UpdateOne(c).
		SetStatus(newStatus).
		SetAppointmentStatus(triagecase.AppointmentStatus(reply.Status))
	if reply.DateTime != nil {
		update = update.SetAppointmentAt(*reply.DateTime)
	}
	if reply.Location != "" {
		update = update.SetLocation(reply.Location)
	}
	if reply.Instructions != "" {
		update = update.SetInstructions(reply.Instructions)
	}
	if reply.Reason != "" {
		update = update.SetAppointmentReason(reply.Reason)
	}
	if _, err := update.Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to update case: %w", err)
	}

	if _, err := tx.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(reply.CaseID).
		SetActorType("human").
		SetEventType("SCHEDULER_REPLY_APPLIED").
		SetPayload(map[string]any{
			"status":       reply.Status,
			"location":     reply.Location,
			"instructions": reply.Instructions,
			"reason":       reply.Reason,
		}).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to write audit event: %w", err)
	}

	if _, err := tx.Job.Create().
		SetID(uuid.New().String()).
		SetCaseID(reply.CaseID).
		SetJobType(nextJobType).
		SetPayload(map[string]any{"case_id": reply.CaseID}).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to enqueue continuation job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit scheduler decision: %w", err)
	}

	return SchedulerOutcomeApplied, nil
}
