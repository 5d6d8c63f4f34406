package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CaseMatrixMessageTranscript holds the schema definition for
// CaseMatrixMessageTranscript: an append-only copy of every outbound chat
// message body for a case, kept independently of CaseMessage (which tracks
// the event id/kind for redaction, not the body). UPDATE/DELETE is rejected
// by a migration trigger, see internal/store/migrations/0001_init.up.sql.
type CaseMatrixMessageTranscript struct {
	ent.Schema
}

// Fields of the CaseMatrixMessageTranscript.
func (CaseMatrixMessageTranscript) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("case_id").
			Immutable(),
		field.String("room_id").
			Immutable(),
		field.String("event_id").
			Immutable(),
		field.Text("plaintext_body").
			Immutable(),
		field.Text("html_body").
			Optional().
			Nillable().
			Immutable(),
		field.Time("posted_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the CaseMatrixMessageTranscript.
func (CaseMatrixMessageTranscript) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("case", TriageCase.Type).
			Ref("matrix_message_transcripts").
			Field("case_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CaseMatrixMessageTranscript.
func (CaseMatrixMessageTranscript) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("case_id"),
	}
}
