package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SupervisorSummaryDispatch holds the schema definition for
// SupervisorSummaryDispatch: governs Room-4 summary idempotency, one row per
// attempted delivery of a reporting window.
type SupervisorSummaryDispatch struct {
	ent.Schema
}

// Fields of the SupervisorSummaryDispatch.
func (SupervisorSummaryDispatch) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("room_id").
			Immutable(),
		field.Time("window_start").
			Immutable(),
		field.Time("window_end").
			Immutable(),
		field.Enum("status").
			Values("pending", "sent", "failed").
			Default("pending"),
		field.String("delivered_event_id").
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

// Edges of the SupervisorSummaryDispatch.
func (SupervisorSummaryDispatch) Edges() []ent.Edge {
	return nil
}

// Indexes of the SupervisorSummaryDispatch.
func (SupervisorSummaryDispatch) Indexes() []ent.Index {
	return []ent.Index{
		// Invariant 7: at most one dispatch row per (room_id, window_start, window_end).
		index.Fields("room_id", "window_start", "window_end").
			Unique(),
	}
}
