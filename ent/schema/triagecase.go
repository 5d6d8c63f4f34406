package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// TriageCase holds the schema definition for the case entity, the root
// aggregate of the triage workflow. Named TriageCase rather than Case
// because "case" is a Go reserved word and ent derives its generated
// predicate package name from the lowercased type name.
type TriageCase struct {
	ent.Schema
}

// Annotations pin the storage table name to "cases" (spec §6 schema
// highlights) independent of the Go type name.
func (TriageCase) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "cases"},
	}
}

// Fields of the Case.
func (TriageCase) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("case_id").
			Unique().
			Immutable(),
		field.Enum("status").
			Values(
				"NEW", "PDF_EXTRACTED", "LLM_SUGGEST", "R2_POST_WIDGET", "WAIT_DOCTOR",
				"DOCTOR_ACCEPTED", "DOCTOR_DENIED", "R3_POST_REQUEST", "WAIT_SCHEDULER",
				"APPT_CONFIRMED", "APPT_DENIED", "WAIT_R1_CLEANUP_THUMBS",
				"CLEANUP_RUNNING", "CLEANED", "FAILED",
			).
			Default("NEW"),
		field.String("room1_origin_room_id"),
		field.String("room1_origin_event_id"),
		field.String("room1_origin_sender_user_id"),
		field.String("agency_record_number").
			Optional().
			Nillable().
			Comment("5+ digit registration code; stable across retries, set by the record-number extractor"),
		field.Bool("agency_record_number_is_placeholder").
			Default(false).
			Comment("true when no explicit pattern was found and an epoch-millis placeholder was used"),
		field.String("pdf_source_ref").
			Optional().
			Nillable().
			Comment("opaque URL of the attached report"),
		field.Text("extracted_text").
			Optional().
			Nillable(),
		field.JSON("structured_data", map[string]interface{}{}).
			Optional().
			Comment("LLM1 result, schema v1.1"),
		field.Text("summary_text").
			Optional().
			Nillable(),
		field.JSON("suggested_action", map[string]interface{}{}).
			Optional().
			Comment("LLM2 result, policy-reconciled"),
		field.Enum("doctor_decision").
			Values("accept", "deny").
			Optional().
			Nillable(),
		field.Enum("doctor_support_flag").
			Values("none", "anesthesist", "anesthesist_icu").
			Optional().
			Nillable(),
		field.Text("doctor_reason").
			Optional().
			Nillable(),
		field.Time("doctor_decided_at").
			Optional().
			Nillable(),
		field.Enum("appointment_status").
			Values("confirmed", "denied").
			Optional().
			Nillable(),
		field.Time("appointment_at").
			Optional().
			Nillable(),
		field.String("location").
			Optional().
			Nillable(),
		field.Text("instructions").
			Optional().
			Nillable(),
		field.Text("appointment_reason").
			Optional().
			Nillable(),
		field.Time("cleanup_triggered_at").
			Optional().
			Nillable(),
		field.Time("cleanup_completed_at").
			Optional().
			Nillable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Case.
func (TriageCase) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("messages", CaseMessage.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("jobs", Job.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("audit_events", AuditEvent.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("report_transcripts", CaseReportTranscript.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("llm_interactions", CaseLLMInteraction.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("matrix_message_transcripts", CaseMatrixMessageTranscript.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Case.
func (TriageCase) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status"),
		index.Fields("agency_record_number"),
		// Invariant 1: at most one case per (room_id, event_id).
		index.Fields("room1_origin_room_id", "room1_origin_event_id").
			Unique(),
	}
}
