// Package llmschema defines the LLM1/LLM2 structured response contracts
// (schema v1.1), ported field-for-field from original_source's
// llm1_models.py / llm2_models.py. Unknown-key rejection is enforced by the
// caller decoding with json.Decoder.DisallowUnknownFields; numeric/range and
// enum constraints are validator/v10 struct tags, matching the rest of this
// module's validation idiom.
package llmschema

// Llm1Patient is the patient identity block extracted by LLM1.
type Llm1Patient struct {
	Name       *string `json:"name"`
	Age        *int    `json:"age" validate:"omitempty,gte=0,lte=130"`
	Sex        *string `json:"sex" validate:"omitempty,oneof=M F Outro"`
	DocumentID *string `json:"document_id"`
}

// Llm1RequestedProcedure is the requested-procedure metadata block.
type Llm1RequestedProcedure struct {
	Name    *string `json:"name"`
	Urgency string  `json:"urgency" validate:"required,oneof=eletivo urgente emergente indefinido"`
}

// Llm1Labs carries laboratory values and provenance hints.
type Llm1Labs struct {
	HbGDl            *float64 `json:"hb_g_dl"`
	PlateletsPerMm3  *int     `json:"platelets_per_mm3"`
	INR              *float64 `json:"inr"`
	SourceTextHint   *string  `json:"source_text_hint"`
}

// Llm1ECG is ECG availability and abnormality signal.
type Llm1ECG struct {
	ReportPresent  string  `json:"report_present" validate:"required,oneof=yes no unknown"`
	AbnormalFlag   string  `json:"abnormal_flag" validate:"required,oneof=yes no unknown"`
	SourceTextHint *string `json:"source_text_hint"`
}

// Llm1ASA is the ASA class estimate and confidence.
type Llm1ASA struct {
	Class      string  `json:"class" validate:"required,oneof=I II III IV V unknown"`
	Confidence string  `json:"confidence" validate:"required,oneof=alta media baixa"`
	Rationale  *string `json:"rationale"`
}

// Llm1CardiovascularRisk is the cardiovascular risk assessment.
type Llm1CardiovascularRisk struct {
	Level      string  `json:"level" validate:"required,oneof=low moderate high unknown"`
	Confidence string  `json:"confidence" validate:"required,oneof=alta media baixa"`
	Rationale  *string `json:"rationale"`
}

// Llm1EDA is the EDA-focused structured clinical extraction.
type Llm1EDA struct {
	IndicationCategory  string                 `json:"indication_category" validate:"required,oneof=foreign_body bleeding abdominal_pain dyspepsia other unknown"`
	ExclusionType       string                 `json:"exclusion_type" validate:"required,oneof=none gastrostomy esophageal_dilation unknown"`
	IsPediatric         bool                   `json:"is_pediatric"`
	ForeignBodySuspected bool                  `json:"foreign_body_suspected"`
	RequestedProcedure  Llm1RequestedProcedure `json:"requested_procedure" validate:"required"`
	Labs                Llm1Labs               `json:"labs"`
	ECG                 Llm1ECG                `json:"ecg" validate:"required"`
	ASA                 Llm1ASA                `json:"asa" validate:"required"`
	CardiovascularRisk  Llm1CardiovascularRisk `json:"cardiovascular_risk" validate:"required"`
}

// Llm1PolicyPrecheck carries the flags used by deterministic reconciliation.
type Llm1PolicyPrecheck struct {
	ExcludedFromEDAFlow bool     `json:"excluded_from_eda_flow"`
	ExclusionReason     *string  `json:"exclusion_reason"`
	LabsRequired        bool     `json:"labs_required"`
	LabsPass            string   `json:"labs_pass" validate:"required,oneof=yes no unknown"`
	LabsFailedItems     []string `json:"labs_failed_items"`
	ECGRequired         bool     `json:"ecg_required"`
	ECGPresent          string   `json:"ecg_present" validate:"required,oneof=yes no unknown"`
	PediatricFlag       bool     `json:"pediatric_flag"`
	Notes               *string `json:"notes"`
}

// Llm1Summary is the human-readable one-liner and supporting bullets.
type Llm1Summary struct {
	OneLiner     string   `json:"one_liner" validate:"required"`
	BulletPoints []string `json:"bullet_points" validate:"required,min=3,max=8"`
}

// Llm1ExtractionQuality carries confidence metadata for the extraction.
type Llm1ExtractionQuality struct {
	Confidence     string   `json:"confidence" validate:"required,oneof=alta media baixa"`
	MissingFields  []string `json:"missing_fields"`
	Notes          *string  `json:"notes"`
}

// Llm1Response is the top-level LLM1 response, schema v1.1.
type Llm1Response struct {
	SchemaVersion      string                `json:"schema_version" validate:"required,eq=1.1"`
	Language           string                `json:"language" validate:"required,eq=pt-BR"`
	AgencyRecordNumber string                `json:"agency_record_number" validate:"required"`
	Patient            Llm1Patient           `json:"patient"`
	EDA                Llm1EDA               `json:"eda" validate:"required"`
	PolicyPrecheck     Llm1PolicyPrecheck    `json:"policy_precheck" validate:"required"`
	Summary            Llm1Summary           `json:"summary" validate:"required"`
	ExtractionQuality  Llm1ExtractionQuality `json:"extraction_quality" validate:"required"`
}
