// Package handlers wires every job_type named in §4.11's vocabulary to a
// worker.Handler, giving the cooperative job-queue poller (internal/worker)
// something to dispatch to. Each handler loads its case, does its work,
// transitions status, writes an audit event, and enqueues the next job —
// the same shape as httpapi.DecisionUseCase.Apply and
// inbound.SchedulerDecision.Apply, generalized to worker-driven rather than
// reply-driven continuations.
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/casemessage"
	"github.com/carlosapgomes/eda-triage/internal/cleanup"
	"github.com/carlosapgomes/eda-triage/internal/llmpipeline"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/carlosapgomes/eda-triage/internal/pdfextract"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/carlosapgomes/eda-triage/internal/summary"
	"github.com/carlosapgomes/eda-triage/internal/worker"
	"github.com/google/uuid"
)

// Rooms holds the configured room ids every handler that posts chat
// messages needs.
type Rooms struct {
	Room1ID string
	Room2ID string
	Room3ID string
	Room4ID string
}

// Handlers owns every dependency the job handlers need and builds the
// worker.Pool's (job_type -> Handler) map.
type Handlers struct {
	client     *ent.Client
	queue      *queue.Queue
	rooms      Rooms
	chat       messaging.ChatAdapter
	downloader pdfextract.Downloader
	extractor  pdfextract.Extractor
	pipeline   *llmpipeline.Pipeline
	cleanup    *cleanup.Service
	summary    *summary.Scheduler
	location   *time.Location
}

// New creates a Handlers bundle. location is used to render appointment
// date/times in the final Room-1 reply (§6's SUPERVISOR_SUMMARY_TIMEZONE,
// reused here since it is the same civil timezone the scheduling reply
// parser interprets Room-3 datetimes in).
func New(
	client *ent.Client,
	q *queue.Queue,
	rooms Rooms,
	chat messaging.ChatAdapter,
	downloader pdfextract.Downloader,
	extractor pdfextract.Extractor,
	pipeline *llmpipeline.Pipeline,
	cleanupService *cleanup.Service,
	summaryScheduler *summary.Scheduler,
	location *time.Location,
) *Handlers {
	return &Handlers{
		client:     client,
		queue:      q,
		rooms:      rooms,
		chat:       chat,
		downloader: downloader,
		extractor:  extractor,
		pipeline:   pipeline,
		cleanup:    cleanupService,
		summary:    summaryScheduler,
		location:   location,
	}
}

// Build returns the complete job_type -> Handler map for worker.NewPool.
func (h *Handlers) Build() map[string]worker.Handler {
	return map[string]worker.Handler{
		"process_pdf_case":               h.ProcessPDFCase,
		"post_room2_widget":              h.PostRoom2Widget,
		"post_room3_request":             h.PostRoom3Request,
		"post_room1_final_denial_triage": h.PostRoom1FinalDenialTriage,
		"post_room1_final_appt":          h.PostRoom1FinalAppt,
		"post_room1_final_appt_denied":   h.PostRoom1FinalApptDenied,
		"post_room1_final_failure":       h.PostRoom1FinalFailure,
		"execute_cleanup":                h.ExecuteCleanup,
		"post_room4_summary":             h.PostRoom4Summary,
	}
}

func requireCaseID(jv worker.JobView) (string, error) {
	if jv.CaseID == nil || *jv.CaseID == "" {
		return "", fmt.Errorf("job %s of type %s has no case_id", jv.ID, jv.JobType)
	}
	return *jv.CaseID, nil
}

func (h *Handlers) writeAuditEvent(ctx context.Context, caseID, actorType, eventType string, payload map[string]any) error {
	_, err := h.client.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetActorType(actorType).
		SetEventType(eventType).
		SetPayload(payload).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to write audit event %s for case %s: %w", eventType, caseID, err)
	}
	return nil
}

// postAndRecord posts text to room (optionally threaded under
// threadEventID), records the CaseMessage/transcript pair, and returns the
// provider event id, grounded on pkg/slack's post-then-record pattern
// generalized across every Room-1..Room-4 posting handler.
func (h *Handlers) postAndRecord(ctx context.Context, caseID, room, text, threadEventID string, kind string) (string, error) {
	eventID, err := h.chat.PostMessage(ctx, room, text, threadEventID)
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}

	if _, err := h.client.CaseMessage.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetRoomID(room).
		SetEventID(eventID).
		SetKind(casemessage.Kind(kind)).
		Save(ctx); err != nil {
		return "", fmt.Errorf("failed to record case message: %w", err)
	}

	if _, err := h.client.CaseMatrixMessageTranscript.Create().
		SetID(uuid.New().String()).
		SetCaseID(caseID).
		SetRoomID(room).
		SetEventID(eventID).
		SetPlaintextBody(text).
		Save(ctx); err != nil {
		return "", fmt.Errorf("failed to record message transcript: %w", err)
	}

	return eventID, nil
}
