package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CaseReportTranscript holds the schema definition for CaseReportTranscript:
// an append-only snapshot of the cleaned report text at extraction time.
// UPDATE/DELETE against this table is rejected by a migration trigger
// (see internal/store/migrations/0001_init.up.sql) in addition to the
// application never issuing either statement against it.
type CaseReportTranscript struct {
	ent.Schema
}

// Fields of the CaseReportTranscript.
func (CaseReportTranscript) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("case_id").
			Immutable(),
		field.Text("raw_text").
			Immutable(),
		field.Text("cleaned_text").
			Immutable(),
		field.String("agency_record_number").
			Optional().
			Nillable().
			Immutable(),
		field.Time("captured_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the CaseReportTranscript.
func (CaseReportTranscript) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("case", TriageCase.Type).
			Ref("report_transcripts").
			Field("case_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CaseReportTranscript.
func (CaseReportTranscript) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("case_id"),
	}
}
