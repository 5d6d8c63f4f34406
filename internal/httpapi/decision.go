// Package httpapi exposes the decision webhook/widget, login, and admin
// endpoints over echo/v5, grounded on pkg/api/server.go's route-registration
// and ValidateWiring idioms.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/google/uuid"
)

// Outcome is the use-case result for DecisionUseCase.Apply (§4.7).
type Outcome string

const (
	OutcomeNotFound   Outcome = "NOT_FOUND"
	OutcomeWrongState Outcome = "WRONG_STATE"
	OutcomeApplied    Outcome = "APPLIED"
)

// ErrInvalidSupportFlag signals decision/support_flag cross-field validation
// failure (deny requires none; accept allows none/anesthesist/anesthesist_icu).
var ErrInvalidSupportFlag = errors.New("invalid support_flag for decision")

// DecisionInput is the payload shared by the signed webhook and the
// bearer-token widget submit endpoint.
type DecisionInput struct {
	CaseID        string
	DoctorUserID  string
	Decision      string
	SupportFlag   string
	Reason        string
	SubmittedAt   *time.Time
	WidgetEventID string
}

var validSupportFlags = map[string]bool{"none": true, "anesthesist": true, "anesthesist_icu": true}

func validateDecisionInput(in DecisionInput) error {
	switch in.Decision {
	case "deny":
		if in.SupportFlag != "none" {
			return ErrInvalidSupportFlag
		}
	case "accept":
		if !validSupportFlags[in.SupportFlag] {
			return ErrInvalidSupportFlag
		}
	default:
		return fmt.Errorf("invalid decision value %q", in.Decision)
	}
	return nil
}

// DecisionUseCase applies a doctor decision to a case, whichever
// authenticated channel it arrived through.
type DecisionUseCase struct {
	client *ent.Client
}

// NewDecisionUseCase creates a DecisionUseCase.
func NewDecisionUseCase(client *ent.Client) *DecisionUseCase {
	return &DecisionUseCase{client: client}
}

// Apply validates in, loads the target case, and — if it is in WAIT_DOCTOR —
// transitions it, persists the decision, writes an audit event, and enqueues
// the next job, all inside one transaction. A case not in WAIT_DOCTOR whose
// decision already matches in is treated as an idempotent no-op (still
// WRONG_STATE, since nothing changes) rather than an error, since the same
// chat reply can be redelivered.
func (u *DecisionUseCase) Apply(ctx context.Context, in DecisionInput) (Outcome, error) {
	if err := validateDecisionInput(in); err != nil {
		return "", err
	}

	tx, err := u.client.Tx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}

	c, err := tx.TriageCase.Get(ctx, in.CaseID)
	if err != nil {
		_ = tx.Rollback()
		if ent.IsNotFound(err) {
			return OutcomeNotFound, nil
		}
		return "", fmt.Errorf("failed to load case: %w", err)
	}

	if c.Status != triagecase.Status("WAIT_DOCTOR") {
		_ = tx.Rollback()
		return OutcomeWrongState, nil
	}

	newStatus := triagecase.Status("DOCTOR_DENIED")
	nextJobType := "post_room1_final_denial_triage"
	if in.Decision == "accept" {
		newStatus = triagecase.Status("DOCTOR_ACCEPTED")
		nextJobType = "post_room3_request"
	}

	decidedAt := time.Now()
	if in.SubmittedAt != nil {
		decidedAt = *in.SubmittedAt
	}

	update := tx.TriageCase.UpdateOne(c).
		SetStatus(newStatus).
		SetDoctorDecision(triagecase.DoctorDecision(in.Decision)).
		SetDoctorSupportFlag(triagecase.DoctorSupportFlag(in.SupportFlag)).
		SetDoctorDecidedAt(decidedAt)
	if in.Reason != "" {
		update = update.SetDoctorReason(in.Reason)
	}
	if _, err := update.Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to update case: %w", err)
	}

	if _, err := tx.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(in.CaseID).
		SetActorType("human").
		SetEventType("DOCTOR_DECISION_APPLIED").
		SetPayload(map[string]any{
			"decision":        in.Decision,
			"support_flag":    in.SupportFlag,
			"doctor_user_id":  in.DoctorUserID,
			"widget_event_id": in.WidgetEventID,
		}).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to write audit event: %w", err)
	}

	if _, err := tx.Job.Create().
		SetID(uuid.New().String()).
		SetCaseID(in.CaseID).
		SetJobType(nextJobType).
		SetPayload(map[string]any{"case_id": in.CaseID}).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to enqueue continuation job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit decision: %w", err)
	}

	return OutcomeApplied, nil
}
