package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/worker"
)

// PostRoom4Summary renders and posts the aggregate case summary for one
// reporting window (§4.10), then marks the dispatch row sent or failed so a
// later scheduler run knows whether the window still needs delivery.
func (h *Handlers) PostRoom4Summary(ctx context.Context, jv worker.JobView) error {
	roomID, _ := jv.Payload["room_id"].(string)
	windowStartRaw, _ := jv.Payload["window_start"].(string)
	windowEndRaw, _ := jv.Payload["window_end"].(string)
	timezone, _ := jv.Payload["timezone"].(string)

	windowStart, err := time.Parse(time.RFC3339, windowStartRaw)
	if err != nil {
		return fmt.Errorf("invalid window_start in post_room4_summary payload: %w", err)
	}
	windowEnd, err := time.Parse(time.RFC3339, windowEndRaw)
	if err != nil {
		return fmt.Errorf("invalid window_end in post_room4_summary payload: %w", err)
	}

	counts, err := h.summarizeWindow(ctx, windowStart, windowEnd)
	if err != nil {
		if markErr := h.summary.MarkFailed(ctx, roomID, windowStart, windowEnd); markErr != nil {
			return fmt.Errorf("%w (and failed to mark dispatch failed: %v)", err, markErr)
		}
		return err
	}

	body := renderSummaryMessage(windowStart, windowEnd, timezone, counts)

	eventID, err := h.chat.PostMessage(ctx, roomID, body, "")
	if err != nil {
		if markErr := h.summary.MarkFailed(ctx, roomID, windowStart, windowEnd); markErr != nil {
			return fmt.Errorf("failed to post summary: %v (and failed to mark dispatch failed: %v)", err, markErr)
		}
		return fmt.Errorf("failed to post summary: %w", err)
	}

	return h.summary.MarkSent(ctx, roomID, windowStart, windowEnd, eventID)
}

// windowCounts tallies cases by a handful of status buckets meaningful to a
// supervisor skimming the period's activity.
type windowCounts struct {
	Ingested       int
	DoctorAccepted int
	DoctorDenied   int
	ApptConfirmed  int
	ApptDenied     int
	Failed         int
	Cleaned        int
}

func (h *Handlers) summarizeWindow(ctx context.Context, start, end time.Time) (windowCounts, error) {
	var counts windowCounts

	cases, err := h.client.TriageCase.Query().
		Where(
			triagecase.CreatedAtGTE(start),
			triagecase.CreatedAtLT(end),
		).
		All(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to query cases for summary window: %w", err)
	}

	counts.Ingested = len(cases)
	for _, c := range cases {
		switch c.Status {
		case triagecase.Status("DOCTOR_DENIED"):
			counts.DoctorDenied++
		case triagecase.Status("APPT_CONFIRMED"):
			counts.ApptConfirmed++
			counts.DoctorAccepted++
		case triagecase.Status("APPT_DENIED"):
			counts.ApptDenied++
			counts.DoctorAccepted++
		case triagecase.Status("FAILED"):
			counts.Failed++
		case triagecase.Status("CLEANED"):
			counts.Cleaned++
		default:
			if c.DoctorDecision != nil && *c.DoctorDecision == "accept" {
				counts.DoctorAccepted++
			}
		}
	}

	return counts, nil
}

func renderSummaryMessage(start, end time.Time, timezone string, c windowCounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Resumo do período* — %s a %s (%s)\n\n", start.Format(time.RFC3339), end.Format(time.RFC3339), timezone)
	fmt.Fprintf(&b, "Casos recebidos: %d\n", c.Ingested)
	fmt.Fprintf(&b, "Aceitos pelo médico: %d\n", c.DoctorAccepted)
	fmt.Fprintf(&b, "Negados pelo médico: %d\n", c.DoctorDenied)
	fmt.Fprintf(&b, "Exames confirmados: %d\n", c.ApptConfirmed)
	fmt.Fprintf(&b, "Agendamentos negados: %d\n", c.ApptDenied)
	fmt.Fprintf(&b, "Falhas de processamento: %d\n", c.Failed)
	fmt.Fprintf(&b, "Casos finalizados (limpos): %d\n", c.Cleaned)
	return b.String()
}
