package llmpipeline_test

import (
	"context"
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/llmclient"
	"github.com/carlosapgomes/eda-triage/internal/llmclient/deterministic"
	"github.com/carlosapgomes/eda-triage/internal/llmpipeline"
	"github.com/carlosapgomes/eda-triage/internal/promptstore"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/stretchr/testify/require"
)

const validLlm1JSON = `{
	"schema_version": "1.1",
	"language": "pt-BR",
	"agency_record_number": "54321",
	"patient": {"name": "Jane Doe", "age": 45, "sex": "F", "document_id": null},
	"eda": {
		"indication_category": "foreign_body",
		"exclusion_type": "none",
		"is_pediatric": false,
		"foreign_body_suspected": true,
		"requested_procedure": {"name": "EDA", "urgency": "urgente"},
		"labs": {"hb_g_dl": 12.1, "platelets_per_mm3": 250000, "inr": 1.0, "source_text_hint": null},
		"ecg": {"report_present": "unknown", "abnormal_flag": "unknown", "source_text_hint": null},
		"asa": {"class": "II", "confidence": "alta", "rationale": null},
		"cardiovascular_risk": {"level": "low", "confidence": "alta", "rationale": null}
	},
	"policy_precheck": {
		"excluded_from_eda_flow": false,
		"exclusion_reason": null,
		"labs_required": true,
		"labs_pass": "no",
		"labs_failed_items": ["hb_g_dl"],
		"ecg_required": true,
		"ecg_present": "unknown",
		"pediatric_flag": false,
		"notes": null
	},
	"summary": {"one_liner": "Paciente estavel.", "bullet_points": ["a", "b", "c"]},
	"extraction_quality": {"confidence": "alta", "missing_fields": [], "notes": null}
}`

func validLlm2JSON(suggestion string) string {
	return `{
		"schema_version": "1.1",
		"language": "pt-BR",
		"case_id": "case-1",
		"agency_record_number": "54321",
		"suggestion": "` + suggestion + `",
		"support_recommendation": "none",
		"rationale": {"short_reason": "Criterios atendidos.", "details": ["d1", "d2"], "missing_info_questions": []},
		"policy_alignment": {"excluded_request": false, "labs_ok": "unknown", "ecg_ok": "unknown", "pediatric_flag": false, "notes": null},
		"confidence": "alta"
	}`
}

func newPipeline(t *testing.T) (*llmpipeline.Pipeline, *deterministic.Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed pipeline test in short mode")
	}
	client := dbtest.Client(t)
	store := promptstore.New(client)
	ctx := context.Background()

	for _, name := range []string{"llm1_system", "llm1_user", "llm2_system", "llm2_user"} {
		_, err := store.Create(ctx, name, 1, name+" content v1")
		require.NoError(t, err)
		require.NoError(t, store.Activate(ctx, name, 1))
	}

	llm := deterministic.New()
	return llmpipeline.New(client, llm, store), llm
}

func TestStage1Extract_ValidResponsePersistsTranscript(t *testing.T) {
	p, llm := newPipeline(t)
	llm.AddRouted("llm1", deterministic.Entry{Content: validLlm1JSON})

	result, err := p.Stage1Extract(context.Background(), "case-1", "54321", "cleaned text")
	require.NoError(t, err)
	require.Equal(t, "foreign_body", result.Response.EDA.IndicationCategory)
}

func TestStage1Extract_AgencyRecordNumberMismatchIsRetriable(t *testing.T) {
	p, llm := newPipeline(t)
	llm.AddRouted("llm1", deterministic.Entry{Content: validLlm1JSON})

	_, err := p.Stage1Extract(context.Background(), "case-1", "99999", "cleaned text")
	require.Error(t, err)
	var retriable *llmpipeline.RetriableError
	require.ErrorAs(t, err, &retriable)
	require.Equal(t, "llm1", retriable.Cause)
}

func TestStage1Extract_MissingActivePromptIsRetriable(t *testing.T) {
	client := dbtest.Client(t)
	store := promptstore.New(client)
	llm := deterministic.New()
	p := llmpipeline.New(client, llm, store)

	_, err := p.Stage1Extract(context.Background(), "case-1", "54321", "text")
	require.Error(t, err)
	var retriable *llmpipeline.RetriableError
	require.ErrorAs(t, err, &retriable)
	require.Equal(t, "llm1", retriable.Cause)
}

func TestStage2Suggest_ForeignBodyExemptionOverridesAlignment(t *testing.T) {
	p, llm := newPipeline(t)
	llm.AddRouted("llm1", deterministic.Entry{Content: validLlm1JSON})
	llm.AddRouted("llm2", deterministic.Entry{Content: validLlm2JSON("deny")})

	ctx := context.Background()
	stage1, err := p.Stage1Extract(ctx, "case-1", "54321", "cleaned text")
	require.NoError(t, err)

	stage2, err := p.Stage2Suggest(ctx, "case-1", "54321", stage1.Response, nil)
	require.NoError(t, err)

	require.Equal(t, "deny", stage2.SuggestedAction["suggestion"])
	alignment := stage2.SuggestedAction["policy_alignment"].(map[string]any)
	require.Equal(t, "not_required", alignment["labs_ok"])
}

func TestStage2Suggest_LanguageGuardRetriesOnceThenFails(t *testing.T) {
	p, llm := newPipeline(t)
	llm.AddRouted("llm1", deterministic.Entry{Content: validLlm1JSON})
	badContent := `{
		"schema_version": "1.1", "language": "pt-BR", "case_id": "case-1", "agency_record_number": "54321",
		"suggestion": "deny", "support_recommendation": "none",
		"rationale": {"short_reason": "Denied by guideline mismatch", "details": ["d1", "d2"], "missing_info_questions": []},
		"policy_alignment": {"excluded_request": false, "labs_ok": "unknown", "ecg_ok": "unknown", "pediatric_flag": false, "notes": null},
		"confidence": "alta"
	}`
	llm.AddRouted("llm2", deterministic.Entry{Content: badContent})
	llm.AddRouted("llm2", deterministic.Entry{Content: badContent})

	ctx := context.Background()
	stage1, err := p.Stage1Extract(ctx, "case-1", "54321", "cleaned text")
	require.NoError(t, err)

	_, err = p.Stage2Suggest(ctx, "case-1", "54321", stage1.Response, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-ptbr narrative terms")
	require.Equal(t, 2, llmRouteCount(llm, "llm2"))
}

func llmRouteCount(c *deterministic.Client, routeKey string) int {
	count := 0
	for _, call := range c.Calls() {
		if call.RouteKey == routeKey {
			count++
		}
	}
	return count
}

func TestStage2Suggest_CaseIDMismatchIsRetriable(t *testing.T) {
	p, llm := newPipeline(t)
	llm.AddRouted("llm1", deterministic.Entry{Content: validLlm1JSON})
	llm.AddRouted("llm2", deterministic.Entry{Content: validLlm2JSON("accept")})

	ctx := context.Background()
	stage1, err := p.Stage1Extract(ctx, "case-1", "54321", "cleaned text")
	require.NoError(t, err)

	_, err = p.Stage2Suggest(ctx, "different-case", "54321", stage1.Response, nil)
	require.Error(t, err)
	var retriable *llmpipeline.RetriableError
	require.ErrorAs(t, err, &retriable)
	require.Equal(t, "llm2", retriable.Cause)
}

var _ llmclient.Client = (*deterministic.Client)(nil)
