package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// CaseLLMInteraction holds the schema definition for CaseLLMInteraction: an
// append-only record of one LLM1/LLM2 call. UPDATE/DELETE is rejected by a
// migration trigger, see internal/store/migrations/0001_init.up.sql.
type CaseLLMInteraction struct {
	ent.Schema
}

// Fields of the CaseLLMInteraction.
func (CaseLLMInteraction) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("case_id").
			Immutable(),
		field.Enum("stage").
			Values("LLM1", "LLM2").
			Immutable(),
		field.JSON("input_payload", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.JSON("output_payload", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.String("system_prompt_name").
			Immutable(),
		field.Int("system_prompt_version").
			Immutable(),
		field.String("user_prompt_name").
			Immutable(),
		field.Int("user_prompt_version").
			Immutable(),
		field.String("model_name").
			Immutable(),
		field.Time("captured_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the CaseLLMInteraction.
func (CaseLLMInteraction) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("case", TriageCase.Type).
			Ref("llm_interactions").
			Field("case_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the CaseLLMInteraction.
func (CaseLLMInteraction) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("case_id", "stage"),
	}
}
