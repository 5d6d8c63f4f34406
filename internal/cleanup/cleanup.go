// Package cleanup executes the per-case redaction pass of §4.9: redact
// every tracked chat message for a case, then transition it to CLEANED.
// Structurally grounded on pkg/cleanup's Service (slog-reported, idempotent
// retention pass); the retry-with-rate-limit-awareness core is ported from
// original_source's execute_cleanup_service.py's _redact_with_retry.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/casemessage"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/google/uuid"
)

const (
	maxRedactionAttempts = 5
	minRetryDelay        = 200 * time.Millisecond
)

// Result summarizes a single case's redaction pass.
type Result struct {
	RedactedSuccess int
	RedactedFailed  int
}

// Service redacts a case's tracked chat messages via a ChatAdapter and
// finalizes the case's cleanup state.
type Service struct {
	client *ent.Client
	chat   messaging.ChatAdapter
	sleep  func(time.Duration)
}

// New creates a Service backed by client and chat.
func New(client *ent.Client, chat messaging.ChatAdapter) *Service {
	return &Service{client: client, chat: chat, sleep: time.Sleep}
}

// Execute redacts every CaseMessage tracked for caseID, writing
// MATRIX_EVENT_REDACTED or MATRIX_EVENT_REDACTION_FAILED per message, then
// transitions the case to CLEANED and writes CLEANUP_COMPLETED.
func (s *Service) Execute(ctx context.Context, caseID string) (Result, error) {
	var result Result

	slog.Info("cleanup started", "case_id", caseID)

	messages, err := s.client.CaseMessage.Query().
		Where(casemessage.CaseIDEQ(caseID)).
		All(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list case messages: %w", err)
	}
	slog.Info("cleanup refs loaded", "case_id", caseID, "message_refs", len(messages))

	for _, m := range messages {
		if err := s.redactWithRetry(ctx, m.RoomID, m.EventID); err != nil {
			result.RedactedFailed++
			slog.Warn("cleanup redaction failed", "case_id", caseID, "room_id", m.RoomID, "event_id", m.EventID, "error", err)
			s.writeAuditEvent(ctx, caseID, &m.RoomID, &m.EventID, "MATRIX_EVENT_REDACTION_FAILED", map[string]any{"error": err.Error()})
			continue
		}
		result.RedactedSuccess++
		s.writeAuditEvent(ctx, caseID, &m.RoomID, &m.EventID, "MATRIX_EVENT_REDACTED", map[string]any{})
	}

	if err := s.client.TriageCase.UpdateOneID(caseID).
		SetStatus(triagecase.Status("CLEANED")).
		SetCleanupCompletedAt(time.Now()).
		Exec(ctx); err != nil {
		return result, fmt.Errorf("failed to mark case cleaned: %w", err)
	}

	s.writeAuditEvent(ctx, caseID, nil, nil, "CLEANUP_COMPLETED", map[string]any{
		"count_redacted_success": result.RedactedSuccess,
		"count_redacted_failed":  result.RedactedFailed,
	})

	slog.Info("cleanup completed", "case_id", caseID, "redacted_success", result.RedactedSuccess, "redacted_failed", result.RedactedFailed)
	return result, nil
}

// redactWithRetry redacts a single message, retrying up to
// maxRedactionAttempts times when the adapter reports a rate limit, sleeping
// for the greater of minRetryDelay and the provider-reported retry delay.
func (s *Service) redactWithRetry(ctx context.Context, roomID, eventID string) error {
	var lastErr error
	for attempt := 1; attempt <= maxRedactionAttempts; attempt++ {
		err := s.chat.RedactMessage(ctx, roomID, eventID)
		if err == nil {
			return nil
		}
		lastErr = err

		var rateLimit *messaging.RateLimitError
		if !errors.As(err, &rateLimit) || attempt >= maxRedactionAttempts {
			return err
		}

		delay := minRetryDelay
		if provided := time.Duration(rateLimit.RetryAfterMs) * time.Millisecond; provided > delay {
			delay = provided
		}
		slog.Warn("cleanup redaction rate limited", "room_id", roomID, "event_id", eventID, "attempt", attempt, "max_attempts", maxRedactionAttempts, "retry_after", delay)
		s.sleep(delay)
	}
	return lastErr
}

func (s *Service) writeAuditEvent(ctx context.Context, caseID string, roomID, eventID *string, eventType string, payload map[string]any) {
	create := s.client.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetActorType("system").
		SetEventType(eventType).
		SetPayload(payload)
	if roomID != nil {
		create = create.SetRoomID(*roomID)
	}
	if eventID != nil {
		create = create.SetMatrixEventID(*eventID)
	}
	if _, err := create.Save(ctx); err != nil {
		slog.Error("failed to write cleanup audit event", "case_id", caseID, "event_type", eventType, "error", err)
	}
}
