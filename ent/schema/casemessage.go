package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CaseMessage holds the schema definition for the CaseMessage entity: every
// chat event that belongs to a case.
type CaseMessage struct {
	ent.Schema
}

// Fields of the CaseMessage.
func (CaseMessage) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("case_id").
			Immutable(),
		field.String("room_id").
			Immutable(),
		field.String("event_id").
			Immutable().
			Comment("chat adapter message timestamp / id"),
		field.Enum("kind").
			Values("room1_origin", "bot_widget", "bot_ack", "room3_request", "room1_final").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the CaseMessage.
func (CaseMessage) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("case", TriageCase.Type).
			Ref("messages").
			Field("case_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CaseMessage.
func (CaseMessage) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("case_id"),
		// (room_id, event_id, kind) is unique.
		index.Fields("room_id", "event_id", "kind").
			Unique(),
	}
}

func (CaseMessage) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
