package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AuthEvent holds the schema definition for AuthEvent: an audit trail of
// login successes/failures, separate from the case-scoped AuditEvent.
type AuthEvent struct {
	ent.Schema
}

// Fields of the AuthEvent.
func (AuthEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			Unique().
			Immutable(),
		field.String("user_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("email").
			Immutable().
			Comment("as submitted, even when the user is unknown"),
		field.Enum("outcome").
			Values("login_success", "login_failure").
			Immutable(),
		field.String("remote_addr").
			Optional().
			Nillable().
			Immutable(),
		field.Time("occurred_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the AuthEvent.
func (AuthEvent) Edges() []ent.Edge {
	return nil
}

// Indexes of the AuthEvent.
func (AuthEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
		index.Fields("occurred_at"),
	}
}
