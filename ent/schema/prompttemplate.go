package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PromptTemplate holds the schema definition for PromptTemplate: an
// immutable name×version pair, at most one active version per name.
type PromptTemplate struct {
	ent.Schema
}

// Fields of the PromptTemplate.
func (PromptTemplate) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.Enum("name").
			Values("llm1_system", "llm1_user", "llm2_system", "llm2_user").
			Immutable(),
		field.Int("version").
			Immutable(),
		field.Text("content").
			Immutable(),
		field.Bool("is_active").
			Default(false),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the PromptTemplate.
func (PromptTemplate) Edges() []ent.Edge {
	return nil
}

// Indexes of the PromptTemplate.
func (PromptTemplate) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name", "version").
			Unique(),
		// Invariant 6: at most one active row per name.
		index.Fields("name", "is_active").
			Unique().
			Annotations(entsql.IndexWhere("is_active")),
	}
}

func (PromptTemplate) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
