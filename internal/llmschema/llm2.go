package llmschema

// Llm2Rationale is the short reason plus supporting detail bullets.
type Llm2Rationale struct {
	ShortReason            string   `json:"short_reason" validate:"required,max=280"`
	Details                []string `json:"details" validate:"required,min=2,max=6"`
	MissingInfoQuestions    []string `json:"missing_info_questions" validate:"max=6"`
}

// Llm2PolicyAlignment is LLM2's own view of policy alignment, which the
// policy reconciler may override and flag as a contradiction.
type Llm2PolicyAlignment struct {
	ExcludedRequest bool    `json:"excluded_request"`
	LabsOK          string  `json:"labs_ok" validate:"required,oneof=yes no unknown not_required"`
	ECGOk           string  `json:"ecg_ok" validate:"required,oneof=yes no unknown not_required"`
	PediatricFlag   bool    `json:"pediatric_flag"`
	Notes           *string `json:"notes"`
}

// Llm2Response is the top-level LLM2 response, schema v1.1.
type Llm2Response struct {
	SchemaVersion         string               `json:"schema_version" validate:"required,eq=1.1"`
	Language              string               `json:"language" validate:"required,eq=pt-BR"`
	CaseID                string               `json:"case_id" validate:"required"`
	AgencyRecordNumber    string               `json:"agency_record_number" validate:"required"`
	Suggestion            string               `json:"suggestion" validate:"required,oneof=accept deny"`
	SupportRecommendation string               `json:"support_recommendation" validate:"required,oneof=none anesthesist anesthesist_icu unknown"`
	Rationale             Llm2Rationale        `json:"rationale" validate:"required"`
	PolicyAlignment       Llm2PolicyAlignment  `json:"policy_alignment" validate:"required"`
	Confidence            string               `json:"confidence" validate:"required,oneof=alta media baixa"`
}
