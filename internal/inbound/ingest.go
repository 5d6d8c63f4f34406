// Package inbound turns chat-adapter events into case-store writes and
// queue work: a Room-1 message carrying a report attachment becomes a new
// case, and Room-2/Room-3 text replies are routed through the strict reply
// parsers into the existing decision use cases, grounded on
// original_source's room2_reply_service.py ("route a normalized event
// payload into the existing decision service") generalized to also cover
// Room-1 ingestion and Room-3 scheduling replies.
package inbound

import (
	"context"
	"fmt"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/casemessage"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/google/uuid"
)

// Room1Message is a normalized inbound Room-1 chat event carrying a report
// attachment, already resolved by the chat adapter's own event model.
type Room1Message struct {
	RoomID        string `json:"room_id"`
	EventID       string `json:"event_id"`
	SenderUserID  string `json:"sender_user_id"`
	AttachmentRef string `json:"attachment_ref"`
}

// IngestResult reports whether a new case was created.
type IngestResult struct {
	CaseID  string
	Created bool
}

// Ingest handles Room-1 report ingestion (case creation).
type Ingest struct {
	client *ent.Client
	queue  *queue.Queue
}

// NewIngest creates an Ingest.
func NewIngest(client *ent.Client, q *queue.Queue) *Ingest {
	return &Ingest{client: client, queue: q}
}

// HandleRoom1Message creates a new case for msg and enqueues
// process_pdf_case, unless (room_id, event_id) was already ingested
// (Invariant 1), in which case it is a no-op returning the existing case.
func (i *Ingest) HandleRoom1Message(ctx context.Context, msg Room1Message) (IngestResult, error) {
	existing, err := i.client.CaseMessage.Query().
		Where(
			casemessage.RoomID(msg.RoomID),
			casemessage.EventID(msg.EventID),
			casemessage.KindEQ(casemessage.Kind("room1_origin")),
		).
		Only(ctx)
	if err == nil {
		return IngestResult{CaseID: existing.CaseID, Created: false}, nil
	}
	if !ent.IsNotFound(err) {
		return IngestResult{}, fmt.Errorf("failed to check existing ingestion: %w", err)
	}

	caseID := uuid.New().String()

	tx, err := i.client.Tx(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.TriageCase.Create().
		SetID(caseID).
		SetRoom1OriginRoomID(msg.RoomID).
		SetRoom1OriginEventID(msg.EventID).
		SetRoom1OriginSenderUserID(msg.SenderUserID).
		SetPdfSourceRef(msg.AttachmentRef).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return IngestResult{}, fmt.Errorf("failed to create case: %w", err)
	}

	if _, err := tx.CaseMessage.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetRoomID(msg.RoomID).
		SetEventID(msg.EventID).
		SetKind(casemessage.Kind("room1_origin")).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return IngestResult{}, fmt.Errorf("failed to record origin message: %w", err)
	}

	if _, err := tx.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetActorType("system").
		SetEventType("CASE_CREATED").
		SetRoomID(msg.RoomID).
		SetMatrixEventID(msg.EventID).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return IngestResult{}, fmt.Errorf("failed to write audit event: %w", err)
	}

	if _, err := tx.Job.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetJobType("process_pdf_case").
		SetPayload(map[string]any{"case_id": caseID}).
		Save(ctx); err != nil {
		_ = tx.Rollback()
		return IngestResult{}, fmt.Errorf("failed to enqueue process_pdf_case: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return IngestResult{}, fmt.Errorf("failed to commit ingestion: %w", err)
	}

	return IngestResult{CaseID: caseID, Created: true}, nil
}
