package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/llmschema"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/carlosapgomes/eda-triage/internal/recordnumber"
	"github.com/carlosapgomes/eda-triage/internal/worker"
	"github.com/google/uuid"
)

// ProcessPDFCase runs the download/extract/LLM1/LLM2 pipeline for a newly
// ingested case, resuming from whatever stage the case's current status
// says is next — so a retried job after a transient failure never repeats
// a stage already committed (§4.3's "pipeline does not talk to the chat
// system" plus §4.1's sequential NEW -> PDF_EXTRACTED -> LLM_SUGGEST ->
// R2_POST_WIDGET states).
func (h *Handlers) ProcessPDFCase(ctx context.Context, jv worker.JobView) error {
	caseID, err := requireCaseID(jv)
	if err != nil {
		return err
	}

	c, err := h.client.TriageCase.Get(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to load case %s: %w", caseID, err)
	}

	if c.Status == triagecase.Status("NEW") {
		if err := h.extractReport(ctx, c); err != nil {
			return err
		}
		c, err = h.client.TriageCase.Get(ctx, caseID)
		if err != nil {
			return fmt.Errorf("failed to reload case %s: %w", caseID, err)
		}
	}

	if c.Status == triagecase.Status("PDF_EXTRACTED") {
		if err := h.runStage1(ctx, c); err != nil {
			return err
		}
		c, err = h.client.TriageCase.Get(ctx, caseID)
		if err != nil {
			return fmt.Errorf("failed to reload case %s: %w", caseID, err)
		}
	}

	if c.Status == triagecase.Status("LLM_SUGGEST") {
		if err := h.runStage2(ctx, c); err != nil {
			return err
		}
		c, err = h.client.TriageCase.Get(ctx, caseID)
		if err != nil {
			return fmt.Errorf("failed to reload case %s: %w", caseID, err)
		}
	}

	if c.Status == triagecase.Status("R2_POST_WIDGET") {
		active, err := h.queue.HasActiveJob(ctx, caseID, "post_room2_widget")
		if err != nil {
			return fmt.Errorf("failed to check active post_room2_widget job: %w", err)
		}
		if !active {
			if _, err := h.queue.Enqueue(ctx, "post_room2_widget", &caseID, map[string]any{"case_id": caseID}, time.Time{}, 0); err != nil {
				return fmt.Errorf("failed to enqueue post_room2_widget: %w", err)
			}
		}
	}

	return nil
}

func (h *Handlers) extractReport(ctx context.Context, c *ent.TriageCase) error {
	if c.PdfSourceRef == nil {
		return fmt.Errorf("case %s has no pdf_source_ref", c.ID)
	}

	pdfBytes, err := h.downloader.Download(ctx, *c.PdfSourceRef)
	if err != nil {
		return fmt.Errorf("failed to download report: %w", err)
	}
	rawText, err := h.extractor.ExtractText(ctx, pdfBytes)
	if err != nil {
		return fmt.Errorf("failed to extract report text: %w", err)
	}

	rn := recordnumber.Extract(rawText, time.Now)

	if err := h.client.TriageCase.UpdateOneID(c.ID).
		SetAgencyRecordNumber(rn.RecordNumber).
		SetAgencyRecordNumberIsPlaceholder(rn.Placeholder).
		SetExtractedText(rn.CleanedText).
		SetStatus(triagecase.Status("PDF_EXTRACTED")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist extraction: %w", err)
	}

	if _, err := h.client.CaseReportTranscript.Create().
		SetID(uuid.New().String()).
		SetCaseID(c.ID).
		SetRawText(rawText).
		SetCleanedText(rn.CleanedText).
		SetAgencyRecordNumber(rn.RecordNumber).
		Save(ctx); err != nil {
		return fmt.Errorf("failed to persist report transcript: %w", err)
	}

	return h.writeAuditEvent(ctx, c.ID, "system", "PDF_EXTRACTED", map[string]any{
		"agency_record_number":             rn.RecordNumber,
		"agency_record_number_placeholder": rn.Placeholder,
	})
}

func (h *Handlers) runStage1(ctx context.Context, c *ent.TriageCase) error {
	if c.AgencyRecordNumber == nil || c.ExtractedText == nil {
		return fmt.Errorf("case %s missing extracted report data for LLM1", c.ID)
	}

	stage1, err := h.pipeline.Stage1Extract(ctx, c.ID, *c.AgencyRecordNumber, *c.ExtractedText)
	if err != nil {
		return err
	}

	if err := h.client.TriageCase.UpdateOneID(c.ID).
		SetStructuredData(stage1.OutputPayload).
		SetSummaryText(stage1.Response.Summary.OneLiner).
		SetStatus(triagecase.Status("LLM_SUGGEST")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist LLM1 result: %w", err)
	}

	return h.writeAuditEvent(ctx, c.ID, "system", "LLM1_EXTRACTION_READY", map[string]any{
		"model": stage1.ModelName,
	})
}

func (h *Handlers) runStage2(ctx context.Context, c *ent.TriageCase) error {
	if c.AgencyRecordNumber == nil {
		return fmt.Errorf("case %s missing agency_record_number for LLM2", c.ID)
	}

	llm1, err := llmschema.DecodeLlm1(c.StructuredData)
	if err != nil {
		return fmt.Errorf("failed to decode stored LLM1 result: %w", err)
	}

	prior, err := messaging.ResolvePriorCaseContext(ctx, h.client, *c.AgencyRecordNumber, c.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve prior-case context: %w", err)
	}
	priorCaseJSON := priorContextJSON(prior)

	stage2, err := h.pipeline.Stage2Suggest(ctx, c.ID, *c.AgencyRecordNumber, llm1, priorCaseJSON)
	if err != nil {
		return err
	}

	if err := h.client.TriageCase.UpdateOneID(c.ID).
		SetSuggestedAction(stage2.SuggestedAction).
		SetStatus(triagecase.Status("R2_POST_WIDGET")).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist LLM2 result: %w", err)
	}

	return h.writeAuditEvent(ctx, c.ID, "system", "LLM2_SUGGESTION_READY", map[string]any{
		"contradiction_count": len(stage2.Contradictions),
	})
}

// priorContextJSON renders prior into the map shape passed to LLM2 and
// embedded in the Room-2 widget payload.
func priorContextJSON(prior *messaging.PriorCaseContext) map[string]any {
	out := map[string]any{"denial_count_7d": prior.DenialCount7d}
	if prior.MostRecentPriorCase != nil {
		out["prior_case_id"] = prior.MostRecentPriorCase.ID
		if prior.MostRecentPriorCase.DoctorDecision != nil {
			out["prior_case_decision"] = string(*prior.MostRecentPriorCase.DoctorDecision)
		}
	}
	return out
}
