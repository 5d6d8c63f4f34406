package handlers

import (
	"context"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/carlosapgomes/eda-triage/internal/worker"
)

// PostRoom2Widget posts the doctor-review widget for a case whose LLM
// artifacts are ready, then waits for a doctor's reply (§4.6's Room-2
// widget posting).
func (h *Handlers) PostRoom2Widget(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("R2_POST_WIDGET") {
		return nil
	}
	if c.AgencyRecordNumber == nil {
		return fmt.Errorf("case %s missing agency_record_number", caseID)
	}

	prior, err := messaging.ResolvePriorCaseContext(ctx, h.client, *c.AgencyRecordNumber, caseID)
	if err != nil {
		return fmt.Errorf("failed to resolve prior-case context: %w", err)
	}

	payload := messaging.Room2WidgetPayload{
		CaseID:             c.ID,
		AgencyRecordNumber: *c.AgencyRecordNumber,
		StructuredData:     c.StructuredData,
		SuggestedAction:    c.SuggestedAction,
		DenialCount7d:      prior.DenialCount7d,
	}
	if prior.MostRecentPriorCase != nil {
		payload.PriorCaseID = prior.MostRecentPriorCase.ID
		if prior.MostRecentPriorCase.DoctorDecision != nil {
			payload.PriorCaseDecision = string(*prior.MostRecentPriorCase.DoctorDecision)
		}
	}

	body, err := messaging.BuildRoom2WidgetMessage(payload)
	if err != nil {
		return fmt.Errorf("failed to render room-2 widget message: %w", err)
	}

	widgetEventID, err := h.postAndRecord(ctx, caseID, h.rooms.Room2ID, body, "", "bot_widget")
	if err != nil {
		return err
	}

	ack := fmt.Sprintf("Caso %s recebido — aguardando avaliação médica.", caseID)
	if _, err := h.postAndRecord(ctx, caseID, h.rooms.Room2ID, ack, widgetEventID, "bot_ack"); err != nil {
		return err
	}

	if err := h.client.TriageCase.UpdateOneID(caseID).
		SetStatus(triagecase.Status("WAIT_DOCTOR")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to transition case to WAIT_DOCTOR: %w", err)
	}

	return h.writeAuditEvent(ctx, caseID, "system", "ROOM2_WIDGET_POSTED", map[string]any{
		"prior_case_id":       payload.PriorCaseID,
		"prior_case_decision": payload.PriorCaseDecision,
		"denial_count_7d":     payload.DenialCount7d,
	})
}

// PostRoom3Request posts the scheduling request once a doctor has accepted
// a case (§4.6, R3_POST_REQUEST -> WAIT_SCHEDULER).
func (h *Handlers) PostRoom3Request(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}
	if c.Status != triagecase.Status("DOCTOR_ACCEPTED") && c.Status != triagecase.Status("R3_POST_REQUEST") {
		return nil
	}
	if c.AgencyRecordNumber == nil {
		return fmt.Errorf("case %s missing agency_record_number", caseID)
	}

	supportFlag := "none"
	if c.DoctorSupportFlag != nil {
		supportFlag = string(*c.DoctorSupportFlag)
	}

	if c.Status == triagecase.Status("DOCTOR_ACCEPTED") {
		if err := h.client.TriageCase.UpdateOneID(caseID).
			SetStatus(triagecase.Status("R3_POST_REQUEST")).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to transition case to R3_POST_REQUEST: %w", err)
		}
	}

	body := messaging.BuildRoom3SchedulingRequest(caseID, *c.AgencyRecordNumber, supportFlag)

	if _, err := h.postAndRecord(ctx, caseID, h.rooms.Room3ID, body, "", "room3_request"); err != nil {
		return err
	}

	if err := h.client.TriageCase.UpdateOneID(caseID).
		SetStatus(triagecase.Status("WAIT_SCHEDULER")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to transition case to WAIT_SCHEDULER: %w", err)
	}

	return h.writeAuditEvent(ctx, caseID, "system", "ROOM3_REQUEST_POSTED", map[string]any{
		"support_flag": supportFlag,
	})
}
