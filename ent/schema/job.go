package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Job holds the schema definition for the Job entity, a queued unit of work.
type Job struct {
	ent.Schema
}

// Fields of the Job.
func (Job) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("job_id").
			Unique().
			Immutable(),
		field.String("case_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("job_type").
			Immutable(),
		field.Enum("status").
			Values("queued", "running", "done", "failed", "dead").
			Default("queued"),
		field.Time("run_after").
			Default(time.Now),
		field.Int("attempts").
			Default(0),
		field.Int("max_attempts").
			Default(5),
		field.String("last_error").
			Optional().
			Nillable(),
		field.JSON("payload", map[string]interface{}{}).
			Optional(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Job.
func (Job) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("case", TriageCase.Type).
			Ref("jobs").
			Field("case_id").
			Unique().
			Immutable(),
	}
}

// Indexes of the Job.
//
// Invariant 3 (at most one queued/running job per (case_id, job_type)) is
// enforced at the application level by HasActiveJob, not by a DB constraint,
// because the uniqueness only applies to the {queued,running} subset of
// statuses and ent/Postgres partial-unique-index support for enum subsets
// is awkward across the job lifecycle (done/failed/dead rows must coexist
// with a fresh queued row for the same case+type).
func (Job) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "run_after"),
		index.Fields("case_id", "job_type", "status"),
		index.Fields("job_type"),
	}
}

func (Job) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}
