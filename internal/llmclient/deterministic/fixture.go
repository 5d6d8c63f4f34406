package deterministic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/carlosapgomes/eda-triage/internal/llmclient"
)

// FixtureClient is the LLM_RUNTIME_MODE=deterministic production adapter: it
// returns schema-valid canned JSON per stage, filling in the case_id /
// agency_record_number actually present in the prompt, ported from
// original_source's infrastructure/llm/deterministic_client.py. Unlike
// Client (the scripted test double), FixtureClient needs no setup and is
// meant to let the system run end to end without a real LLM provider.
type FixtureClient struct{}

// NewFixtureClient creates a FixtureClient.
func NewFixtureClient() *FixtureClient {
	return &FixtureClient{}
}

var (
	caseIDPattern             = regexp.MustCompile(`case_id:\s*([0-9a-fA-F-]{36})`)
	agencyRecordNumberPattern = regexp.MustCompile(`agency_record_number:\s*([0-9]{5,})`)
)

// Complete implements llmclient.Client by dispatching on req.RouteKey,
// which callers set to "llm1" or "llm2".
func (FixtureClient) Complete(_ context.Context, req llmclient.Request) (*llmclient.Response, error) {
	switch req.RouteKey {
	case "llm1":
		return buildLlm1Fixture(req)
	case "llm2":
		return buildLlm2Fixture(req)
	default:
		return nil, fmt.Errorf("deterministic fixture client: unknown route key %q", req.RouteKey)
	}
}

func buildLlm1Fixture(req llmclient.Request) (*llmclient.Response, error) {
	agencyRecordNumber, err := extractAgencyRecordNumber(req.UserPrompt)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"schema_version":       "1.1",
		"language":             "pt-BR",
		"agency_record_number": agencyRecordNumber,
		"patient":              map[string]any{"name": "Paciente", "age": 50, "sex": "F", "document_id": nil},
		"eda": map[string]any{
			"indication_category":   "dyspepsia",
			"exclusion_type":        "none",
			"is_pediatric":          false,
			"foreign_body_suspected": false,
			"requested_procedure":   map[string]any{"name": "EDA", "urgency": "eletivo"},
			"labs": map[string]any{
				"hb_g_dl":            11.0,
				"platelets_per_mm3":  180000,
				"inr":                1.1,
				"source_text_hint":   "deterministic",
			},
			"ecg": map[string]any{
				"report_present":   "yes",
				"abnormal_flag":    "no",
				"source_text_hint": "deterministic",
			},
			"asa":                 map[string]any{"class": "II", "confidence": "media", "rationale": "deterministic"},
			"cardiovascular_risk": map[string]any{"level": "low", "confidence": "media", "rationale": "deterministic"},
		},
		"policy_precheck": map[string]any{
			"excluded_from_eda_flow": false,
			"exclusion_reason":       nil,
			"labs_required":          true,
			"labs_pass":              "yes",
			"labs_failed_items":      []string{},
			"ecg_required":           true,
			"ecg_present":            "yes",
			"pediatric_flag":         false,
			"notes":                  "deterministic",
		},
		"summary": map[string]any{
			"one_liner": "Resumo deterministico para validacao de runtime",
			"bullet_points": []string{
				"deterministic passo 1",
				"deterministic passo 2",
				"deterministic passo 3",
			},
		},
		"extraction_quality": map[string]any{"confidence": "media", "missing_fields": []string{}, "notes": nil},
	}
	return encodeFixture(payload)
}

func buildLlm2Fixture(req llmclient.Request) (*llmclient.Response, error) {
	caseID, err := extractCaseID(req.UserPrompt)
	if err != nil {
		return nil, err
	}
	agencyRecordNumber, err := extractAgencyRecordNumber(req.UserPrompt)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"schema_version":       "1.1",
		"language":             "pt-BR",
		"case_id":              caseID,
		"agency_record_number": agencyRecordNumber,
		"suggestion":           "accept",
		"support_recommendation": "none",
		"rationale": map[string]any{
			"short_reason":            "Deterministico: criterios minimos atendidos",
			"details":                 []string{"deterministic detalhe 1", "deterministic detalhe 2"},
			"missing_info_questions":  []string{},
		},
		"policy_alignment": map[string]any{
			"excluded_request": false,
			"labs_ok":           "yes",
			"ecg_ok":            "yes",
			"pediatric_flag":    false,
			"notes":             "deterministic",
		},
		"confidence": "media",
	}
	return encodeFixture(payload)
}

func extractCaseID(userPrompt string) (string, error) {
	m := caseIDPattern.FindStringSubmatch(userPrompt)
	if m == nil {
		return "", fmt.Errorf("deterministic llm2 prompt missing case_id")
	}
	return m[1], nil
}

func extractAgencyRecordNumber(userPrompt string) (string, error) {
	m := agencyRecordNumberPattern.FindStringSubmatch(userPrompt)
	if m == nil {
		return "", fmt.Errorf("deterministic prompt missing agency_record_number")
	}
	return m[1], nil
}

func encodeFixture(payload map[string]any) (*llmclient.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deterministic fixture: %w", err)
	}
	return &llmclient.Response{Content: string(raw), Model: "deterministic"}, nil
}
