// Package llmpipeline implements the two LLM stages of §4.3: Stage1Extract
// parses a cleaned report into structured clinical data, Stage2Suggest turns
// that data into a policy-reconciled accept/deny suggestion. Neither stage
// talks to the chat system; both only read/write case fields and persist an
// append-only transcript, grounded on original_source's llm2_service.py for
// the prompt-render → call → decode → validate → reconcile → persist shape.
package llmpipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/casellminteraction"
	"github.com/carlosapgomes/eda-triage/internal/jsonextract"
	"github.com/carlosapgomes/eda-triage/internal/langguard"
	"github.com/carlosapgomes/eda-triage/internal/llmclient"
	"github.com/carlosapgomes/eda-triage/internal/llmschema"
	"github.com/carlosapgomes/eda-triage/internal/policy"
	"github.com/carlosapgomes/eda-triage/internal/promptstore"
	"github.com/google/uuid"
)

const (
	promptNameLlm1System = "llm1_system"
	promptNameLlm1User   = "llm1_user"
	promptNameLlm2System = "llm2_system"
	promptNameLlm2User   = "llm2_user"
)

// RetriableError is a schema/network/language-guard failure the worker
// runtime should retry, tagged with the cause label used for audit/finalizer
// reporting (§4.12).
type RetriableError struct {
	Cause   string
	Details string
}

func (e *RetriableError) Error() string {
	return fmt.Sprintf("%s: %s", e.Cause, e.Details)
}

func retriable(cause, format string, args ...any) *RetriableError {
	return &RetriableError{Cause: cause, Details: fmt.Sprintf(format, args...)}
}

// Pipeline runs Stage1Extract / Stage2Suggest against an LLM client and
// persists transcripts via the ent client.
type Pipeline struct {
	client  *ent.Client
	llm     llmclient.Client
	prompts *promptstore.Store
}

// New creates a Pipeline.
func New(client *ent.Client, llm llmclient.Client, prompts *promptstore.Store) *Pipeline {
	return &Pipeline{client: client, llm: llm, prompts: prompts}
}

// Stage1Result is Stage1Extract's validated output plus its prompt lineage.
type Stage1Result struct {
	Response            *llmschema.Llm1Response
	OutputPayload       map[string]any
	SystemPromptVersion int
	UserPromptVersion   int
	ModelName           string
}

// Stage1Extract runs LLM1 extraction over cleanedReportText and persists the
// transcript. On any schema, decode, or prompt-loading failure it returns a
// *RetriableError tagged cause=llm1.
func (p *Pipeline) Stage1Extract(ctx context.Context, caseID, agencyRecordNumber, cleanedReportText string) (*Stage1Result, error) {
	pair, err := p.prompts.RequiredActivePair(ctx, promptNameLlm1System, promptNameLlm1User)
	if err != nil {
		return nil, retriable("llm1", "%s", err)
	}

	userPrompt := renderLlm1UserPrompt(pair.User.Content, caseID, agencyRecordNumber, cleanedReportText)

	resp, err := p.llm.Complete(ctx, llmclient.Request{
		RouteKey:     "llm1",
		SystemPrompt: pair.System.Content,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return nil, retriable("llm1", "LLM call failed: %v", err)
	}

	obj, err := jsonextract.DecodeObject(resp.Content)
	if err != nil {
		return nil, retriable("llm1", "response was not valid JSON: %v", err)
	}

	validated, err := llmschema.DecodeLlm1(obj)
	if err != nil {
		return nil, retriable("llm1", "schema validation failed: %v", err)
	}

	if validated.AgencyRecordNumber != agencyRecordNumber {
		return nil, retriable("llm1", "agency_record_number mismatch: got %q want %q", validated.AgencyRecordNumber, agencyRecordNumber)
	}

	inputPayload := map[string]any{
		"case_id":              caseID,
		"agency_record_number": agencyRecordNumber,
		"cleaned_report_text":  cleanedReportText,
	}
	if err := p.persistTranscript(ctx, caseID, casellminteraction.Stage("LLM1"),
		inputPayload, obj, pair.System.Name, pair.System.Version, pair.User.Name, pair.User.Version, resp.Model); err != nil {
		return nil, err
	}

	return &Stage1Result{
		Response:            validated,
		OutputPayload:       obj,
		SystemPromptVersion: pair.System.Version,
		UserPromptVersion:   pair.User.Version,
		ModelName:           resp.Model,
	}, nil
}

// Stage2Result is Stage2Suggest's reconciled output.
type Stage2Result struct {
	SuggestedAction     map[string]any
	Contradictions      []policy.Contradiction
	SystemPromptVersion int
	UserPromptVersion   int
	ModelName           string
}

// Stage2Suggest runs LLM2 suggestion over llm1Output, reconciles it against
// deterministic policy (§4.4), and persists the transcript. It retries once
// on a language-guard hit before raising a *RetriableError tagged cause=llm2.
func (p *Pipeline) Stage2Suggest(ctx context.Context, caseID, agencyRecordNumber string, llm1 *llmschema.Llm1Response, priorCaseJSON map[string]any) (*Stage2Result, error) {
	pair, err := p.prompts.RequiredActivePair(ctx, promptNameLlm2System, promptNameLlm2User)
	if err != nil {
		return nil, retriable("llm2", "%s", err)
	}

	llm1JSON, err := json.Marshal(llm1)
	if err != nil {
		return nil, retriable("llm2", "failed to encode LLM1 output: %v", err)
	}
	priorJSON, err := json.Marshal(priorCaseJSON)
	if err != nil {
		return nil, retriable("llm2", "failed to encode prior-case context: %v", err)
	}

	userPrompt := renderLlm2UserPrompt(pair.User.Content, caseID, agencyRecordNumber, string(llm1JSON), string(priorJSON))

	validated, obj, err := p.callAndValidateLlm2(ctx, pair.System.Content, userPrompt)
	if err != nil {
		return nil, err
	}

	if validated.CaseID != caseID {
		return nil, retriable("llm2", "case_id mismatch: got %q want %q", validated.CaseID, caseID)
	}
	if validated.AgencyRecordNumber != agencyRecordNumber {
		return nil, retriable("llm2", "agency_record_number mismatch: got %q want %q", validated.AgencyRecordNumber, agencyRecordNumber)
	}

	forbidden := collectForbiddenTerms(validated)
	if len(forbidden) > 0 {
		// One retry per §4.3's "on failure retry once" before raising.
		validated, obj, err = p.callAndValidateLlm2(ctx, pair.System.Content, userPrompt)
		if err != nil {
			return nil, err
		}
		forbidden = collectForbiddenTerms(validated)
		if len(forbidden) > 0 {
			return nil, retriable("llm2", "non-ptbr narrative terms: %v", forbidden)
		}
	}

	precheck := policy.Precheck{
		ExcludedFromEDAFlow: llm1.PolicyPrecheck.ExcludedFromEDAFlow,
		IndicationCategory:  llm1.EDA.IndicationCategory,
		LabsRequired:        llm1.PolicyPrecheck.LabsRequired,
		LabsPass:            llm1.PolicyPrecheck.LabsPass,
		ECGRequired:         llm1.PolicyPrecheck.ECGRequired,
		ECGPresent:          llm1.PolicyPrecheck.ECGPresent,
		PediatricFlag:       llm1.PolicyPrecheck.PediatricFlag,
	}

	suggestion, alignment, contradictions := policy.Reconcile(precheck, validated.Suggestion)

	obj["suggestion"] = suggestion
	obj["policy_alignment"] = map[string]any{
		"excluded_request": alignment.ExcludedRequest,
		"labs_ok":           alignment.LabsOK,
		"ecg_ok":            alignment.ECGOk,
		"pediatric_flag":    validated.PolicyAlignment.PediatricFlag,
		"notes":             validated.PolicyAlignment.Notes,
	}

	inputPayload := map[string]any{
		"case_id":              caseID,
		"agency_record_number": agencyRecordNumber,
		"llm1_structured_data": json.RawMessage(llm1JSON),
		"prior_case":           priorCaseJSON,
	}
	if err := p.persistTranscript(ctx, caseID, casellminteraction.Stage("LLM2"),
		inputPayload, obj, pair.System.Name, pair.System.Version, pair.User.Name, pair.User.Version, ""); err != nil {
		return nil, err
	}

	return &Stage2Result{
		SuggestedAction:     obj,
		Contradictions:      contradictions,
		SystemPromptVersion: pair.System.Version,
		UserPromptVersion:   pair.User.Version,
	}, nil
}

func (p *Pipeline) callAndValidateLlm2(ctx context.Context, systemPrompt, userPrompt string) (*llmschema.Llm2Response, map[string]any, error) {
	resp, err := p.llm.Complete(ctx, llmclient.Request{
		RouteKey:     "llm2",
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
	})
	if err != nil {
		return nil, nil, retriable("llm2", "LLM call failed: %v", err)
	}

	obj, err := jsonextract.DecodeObject(resp.Content)
	if err != nil {
		return nil, nil, retriable("llm2", "response was not valid JSON: %v", err)
	}

	validated, err := llmschema.DecodeLlm2(obj)
	if err != nil {
		return nil, nil, retriable("llm2", "schema validation failed: %v", err)
	}

	return validated, obj, nil
}

func collectForbiddenTerms(r *llmschema.Llm2Response) []string {
	texts := []string{r.Rationale.ShortReason}
	texts = append(texts, r.Rationale.Details...)
	texts = append(texts, r.Rationale.MissingInfoQuestions...)
	if r.PolicyAlignment.Notes != nil {
		texts = append(texts, *r.PolicyAlignment.Notes)
	}
	return langguard.CollectForbiddenTerms(texts...)
}

func (p *Pipeline) persistTranscript(
	ctx context.Context,
	caseID string,
	stage casellminteraction.Stage,
	inputPayload, outputPayload map[string]any,
	systemPromptName string, systemPromptVersion int,
	userPromptName string, userPromptVersion int,
	modelName string,
) error {
	_, err := p.client.CaseLLMInteraction.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetStage(stage).
		SetInputPayload(inputPayload).
		SetOutputPayload(outputPayload).
		SetSystemPromptName(systemPromptName).
		SetSystemPromptVersion(systemPromptVersion).
		SetUserPromptName(userPromptName).
		SetUserPromptVersion(userPromptVersion).
		SetModelName(modelName).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to persist LLM interaction transcript: %w", err)
	}
	return nil
}

func renderLlm1UserPrompt(template, caseID, agencyRecordNumber, cleanedReportText string) string {
	return fmt.Sprintf(
		"%s\n\ncase_id: %s\nagency_record_number: %s\n\nCleaned report text:\n%s\n\n"+
			"Return JSON schema_version 1.1. All narrative/text outputs must be in Brazilian Portuguese (pt-BR).",
		template, caseID, agencyRecordNumber, cleanedReportText,
	)
}

func renderLlm2UserPrompt(template, caseID, agencyRecordNumber, llm1JSON, priorCaseJSON string) string {
	return fmt.Sprintf(
		"%s\n\ncase_id: %s\nagency_record_number: %s\n\nExtracted data (LLM1 JSON):\n%s\n\n"+
			"Prior decision (if any):\n%s\n\n"+
			"Return JSON schema_version 1.1 with policy_alignment and confidence.\n"+
			"All narrative/text outputs must be in Brazilian Portuguese (pt-BR).",
		template, caseID, agencyRecordNumber, llm1JSON, priorCaseJSON,
	)
}
