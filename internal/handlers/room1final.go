package handlers

import (
	"context"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/carlosapgomes/eda-triage/internal/worker"
)

// finalizeToCleanupWait posts body as a threaded reply to the case's
// originating Room-1 message, records it, and transitions the case to
// WAIT_R1_CLEANUP_THUMBS — the common tail of every "final reply" job type,
// since every branch of §4.1's state machine converges there before
// cleanup.
func (h *Handlers) finalizeToCleanupWait(ctx context.Context, caseID, roomID, threadEventID, body, eventType string, auditPayload map[string]any) error {
	if _, err := h.postAndRecord(ctx, caseID, roomID, body, threadEventID, "room1_final"); err != nil {
		return err
	}
	if err := h.client.TriageCase.UpdateOneID(caseID).
		SetStatus(triagecase.Status("WAIT_R1_CLEANUP_THUMBS")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to transition case to WAIT_R1_CLEANUP_THUMBS: %w", err)
	}
	return h.writeAuditEvent(ctx, caseID, "system", eventType, auditPayload)
}

// PostRoom1FinalDenialTriage posts the final Room-1 reply for a case the
// doctor denied outright (no scheduling attempted).
func (h *Handlers) PostRoom1FinalDenialTriage(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("DOCTOR_DENIED") {
		return nil
	}

	reason := ""
	if c.DoctorReason != nil {
		reason = *c.DoctorReason
	}
	body := messaging.BuildRoom1DoctorDeniedReply(caseID, reason)

	return h.finalizeToCleanupWait(ctx, caseID, c.Room1OriginRoomID, c.Room1OriginEventID, body, "ROOM1_FINAL_DENIAL_POSTED", map[string]any{"reason": reason})
}

// PostRoom1FinalAppt posts the final Room-1 reply for a confirmed
// appointment.
func (h *Handlers) PostRoom1FinalAppt(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("APPT_CONFIRMED") {
		return nil
	}

	dateTime := ""
	if c.AppointmentAt != nil {
		dateTime = c.AppointmentAt.In(h.location).Format("02-01-2006 15:04") + " BRT"
	}
	location := ""
	if c.Location != nil {
		location = *c.Location
	}
	instructions := ""
	if c.Instructions != nil {
		instructions = *c.Instructions
	}

	body := messaging.BuildRoom1SuccessReply(caseID, "confirmed", dateTime, location, instructions, "")

	return h.finalizeToCleanupWait(ctx, caseID, c.Room1OriginRoomID, c.Room1OriginEventID, body, "ROOM1_FINAL_APPT_POSTED", map[string]any{
		"appointment_at": dateTime,
		"location":       location,
	})
}

// PostRoom1FinalApptDenied posts the final Room-1 reply when scheduling is
// denied after a doctor had already accepted the case.
func (h *Handlers) PostRoom1FinalApptDenied(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("APPT_DENIED") {
		return nil
	}

	reason := ""
	if c.AppointmentReason != nil {
		reason = *c.AppointmentReason
	}
	body := messaging.BuildRoom1SuccessReply(caseID, "denied", "", "", "", reason)

	return h.finalizeToCleanupWait(ctx, caseID, c.Room1OriginRoomID, c.Room1OriginEventID, body, "ROOM1_FINAL_APPT_DENIED_POSTED", map[string]any{"reason": reason})
}

// PostRoom1FinalFailure posts the final Room-1 reply for a case that
// failed processing, using the cause/details the worker finalizer attached
// to the job payload.
func (h *Handlers) PostRoom1FinalFailure(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("FAILED") {
		return nil
	}

	cause, _ := jv.Payload["cause"].(string)
	details, _ := jv.Payload["details"].(string)
	body := messaging.BuildRoom1FailureReply(caseID, cause, details)

	return h.finalizeToCleanupWait(ctx, caseID, c.Room1OriginRoomID, c.Room1OriginEventID, body, "ROOM1_FINAL_FAILURE_POSTED", map[string]any{
		"cause":   cause,
		"details": details,
	})
}
