package inbound

import (
	"context"
	"errors"
	"fmt"

	"github.com/carlosapgomes/eda-triage/internal/httpapi"
	"github.com/carlosapgomes/eda-triage/internal/messaging/replyparser"
)

// ChatReply is a normalized inbound text message from Room-2 or Room-3.
type ChatReply struct {
	RoomID       string `json:"room_id"`
	EventID      string `json:"event_id"`
	SenderUserID string `json:"sender_user_id"`
	Body         string `json:"body"`
}

// ReplyResult reports whether a reply was recognized and applied, mirroring
// original_source's Room2ReplyResult{processed, reason}.
type ReplyResult struct {
	Processed bool
	Reason    string
}

// Router dispatches Room-2/Room-3 chat replies and Room-1 reactions into
// the decision use cases.
type Router struct {
	room1ID   string
	room2ID   string
	room3ID   string
	decisions *httpapi.DecisionUseCase
	scheduler *SchedulerDecision
	cleanup   *CleanupTrigger
}

// NewRouter creates a Router bound to the configured room ids and use cases.
func NewRouter(room1ID, room2ID, room3ID string, decisions *httpapi.DecisionUseCase, scheduler *SchedulerDecision, cleanup *CleanupTrigger) *Router {
	return &Router{room1ID: room1ID, room2ID: room2ID, room3ID: room3ID, decisions: decisions, scheduler: scheduler, cleanup: cleanup}
}

// HandleRoom2Reply parses reply as a doctor decision and applies it.
// Sender identity from the chat adapter is authoritative for doctor
// attribution, matching original_source's room2_reply_service.py.
func (r *Router) HandleRoom2Reply(ctx context.Context, reply ChatReply) (ReplyResult, error) {
	if reply.RoomID != r.room2ID {
		return ReplyResult{Processed: false, Reason: "wrong_room"}, nil
	}

	parsed, err := replyparser.ParseDoctorDecisionReply(reply.Body, "")
	if err != nil {
		var parseErr *replyparser.ParseError
		if errors.As(err, &parseErr) {
			return ReplyResult{Processed: false, Reason: parseErr.Reason}, nil
		}
		return ReplyResult{}, fmt.Errorf("failed to parse doctor decision reply: %w", err)
	}

	outcome, err := r.decisions.Apply(ctx, httpapi.DecisionInput{
		CaseID:        parsed.CaseID,
		DoctorUserID:  reply.SenderUserID,
		Decision:      parsed.Decision,
		SupportFlag:   parsed.SupportFlag,
		Reason:        parsed.Reason,
		WidgetEventID: reply.EventID,
	})
	if err != nil {
		return ReplyResult{}, err
	}
	if outcome != httpapi.OutcomeApplied {
		return ReplyResult{Processed: false, Reason: string(outcome)}, nil
	}
	return ReplyResult{Processed: true}, nil
}

// HandleRoom3Reply parses reply as a scheduler confirmation/denial and
// applies it.
func (r *Router) HandleRoom3Reply(ctx context.Context, reply ChatReply) (ReplyResult, error) {
	if reply.RoomID != r.room3ID {
		return ReplyResult{Processed: false, Reason: "wrong_room"}, nil
	}

	parsed, err := replyparser.ParseSchedulerReply(reply.Body, "")
	if err != nil {
		var parseErr *replyparser.ParseError
		if errors.As(err, &parseErr) {
			return ReplyResult{Processed: false, Reason: parseErr.Reason}, nil
		}
		return ReplyResult{}, fmt.Errorf("failed to parse scheduler reply: %w", err)
	}

	outcome, err := r.scheduler.Apply(ctx, parsed)
	if err != nil {
		return ReplyResult{}, err
	}
	if outcome != SchedulerOutcomeApplied {
		return ReplyResult{Processed: false, Reason: string(outcome)}, nil
	}
	return ReplyResult{Processed: true}, nil
}

// Room1Reaction is a normalized Room-1 reaction event (e.g. a thumbs-up
// acknowledgement on the final reply).
type Room1Reaction struct {
	RoomID string `json:"room_id"`
	CaseID string `json:"case_id"`
}

// HandleRoom1Reaction routes a Room-1 acknowledgement reaction into the
// cleanup trigger.
func (r *Router) HandleRoom1Reaction(ctx context.Context, reaction Room1Reaction) (ReplyResult, error) {
	if reaction.RoomID != r.room1ID {
		return ReplyResult{Processed: false, Reason: "wrong_room"}, nil
	}

	outcome, err := r.cleanup.Apply(ctx, reaction.CaseID)
	if err != nil {
		return ReplyResult{}, err
	}
	if outcome != CleanupOutcomeApplied {
		return ReplyResult{Processed: false, Reason: string(outcome)}, nil
	}
	return ReplyResult{Processed: true}, nil
}
