// Package recovery reconciles queue and case state at worker startup: reset
// orphaned running jobs, then restore any missing continuation job for every
// non-terminal case, directly generalizing pkg/queue/orphan.go's
// CleanupStartupOrphans + markSessionTimedOut idiom to the case orchestration
// engine's wider status/job vocabulary and grounded on
// original_source's recovery_service.py for the per-status job mapping.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/job"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/google/uuid"
)

// Result summarizes a single startup recovery pass.
type Result struct {
	ResetJobs    int
	ScannedCases int
	EnqueuedJobs int
}

// Service runs the startup reconciliation scan.
type Service struct {
	client *ent.Client
	queue  *queue.Queue
}

// New creates a recovery Service.
func New(client *ent.Client, q *queue.Queue) *Service {
	return &Service{client: client, queue: q}
}

// recoverableStatuses are the case statuses recovery scans for a missing
// continuation job; NEW, PDF_EXTRACTED, CLEANED and the doctor/scheduler wait
// states (WAIT_DOCTOR, WAIT_SCHEDULER) are not scanned — a human reply, not a
// job, is the continuation for the wait states.
var recoverableStatuses = []triagecase.Status{
	triagecase.Status("R2_POST_WIDGET"),
	triagecase.Status("LLM_SUGGEST"),
	triagecase.Status("DOCTOR_ACCEPTED"),
	triagecase.Status("R3_POST_REQUEST"),
	triagecase.Status("DOCTOR_DENIED"),
	triagecase.Status("APPT_CONFIRMED"),
	triagecase.Status("APPT_DENIED"),
	triagecase.Status("FAILED"),
	triagecase.Status("CLEANUP_RUNNING"),
	triagecase.Status("WAIT_R1_CLEANUP_THUMBS"),
}

// recoveryJobFor computes the expected continuation job type for c's status,
// returning "" when the status carries no recoverable job (e.g. a
// WAIT_R1_CLEANUP_THUMBS case whose cleanup has not yet been triggered).
func recoveryJobFor(c *ent.TriageCase) string {
	switch c.Status {
	case triagecase.Status("R2_POST_WIDGET"), triagecase.Status("LLM_SUGGEST"):
		return "post_room2_widget"
	case triagecase.Status("DOCTOR_ACCEPTED"), triagecase.Status("R3_POST_REQUEST"):
		return "post_room3_request"
	case triagecase.Status("DOCTOR_DENIED"):
		return "post_room1_final_denial_triage"
	case triagecase.Status("APPT_CONFIRMED"):
		return "post_room1_final_appt"
	case triagecase.Status("APPT_DENIED"):
		return "post_room1_final_appt_denied"
	case triagecase.Status("FAILED"):
		return "post_room1_final_failure"
	case triagecase.Status("CLEANUP_RUNNING"):
		return "execute_cleanup"
	case triagecase.Status("WAIT_R1_CLEANUP_THUMBS"):
		if c.CleanupTriggeredAt != nil && c.CleanupCompletedAt == nil {
			return "execute_cleanup"
		}
		return ""
	default:
		return ""
	}
}

// Run performs the two-step startup scan: reset orphaned running jobs to
// queued, then restore any missing continuation job per non-terminal case.
func (s *Service) Run(ctx context.Context) (Result, error) {
	var result Result

	reset, err := s.resetOrphanedRunningJobs(ctx)
	if err != nil {
		return result, err
	}
	result.ResetJobs = reset

	cases, err := s.client.TriageCase.Query().
		Where(triagecase.StatusIn(recoverableStatuses...)).
		All(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to query non-terminal cases: %w", err)
	}
	result.ScannedCases = len(cases)

	for _, c := range cases {
		jobType := recoveryJobFor(c)
		if jobType == "" {
			continue
		}

		active, err := s.queue.HasActiveJob(ctx, c.ID, jobType)
		if err != nil {
			return result, fmt.Errorf("failed to check active job for case %s: %w", c.ID, err)
		}
		if active {
			continue
		}

		payload := map[string]any{"case_id": c.ID}
		if jobType == "post_room1_final_failure" {
			payload["cause"] = "other"
			payload["details"] = "recovery enqueued missing failure finalization job"
		}

		caseID := c.ID
		if _, err := s.queue.Enqueue(ctx, jobType, &caseID, payload, time.Time{}, 0); err != nil {
			return result, fmt.Errorf("failed to enqueue recovery job for case %s: %w", c.ID, err)
		}

		if err := s.writeRecoveryAuditEvent(ctx, c, jobType); err != nil {
			slog.Error("failed to write recovery audit event", "case_id", c.ID, "error", err)
		}

		result.EnqueuedJobs++
		slog.Info("recovery enqueued continuation job", "case_id", c.ID, "status", c.Status, "job_type", jobType)
	}

	return result, nil
}

func (s *Service) writeRecoveryAuditEvent(ctx context.Context, c *ent.TriageCase, jobType string) error {
	_, err := s.client.AuditEvent.Create().
		SetID(uuid.New().String()).
		SetCaseID(c.ID).
		SetActorType("system").
		SetEventType("RECOVERY_JOB_ENQUEUED").
		SetPayload(map[string]any{
			"status":   string(c.Status),
			"job_type": jobType,
		}).
		Save(ctx)
	return err
}

// resetOrphanedRunningJobs transitions every job stuck in running (left over
// from a worker that crashed mid-claim) back to queued so ClaimDue can pick
// it up again, mirroring CleanupStartupOrphans's single-process-boot scope.
func (s *Service) resetOrphanedRunningJobs(ctx context.Context) (int, error) {
	n, err := s.client.Job.Update().
		Where(job.StatusEQ(job.StatusRunning)).
		SetStatus(job.StatusQueued).
		Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset orphaned running jobs: %w", err)
	}
	return n, nil
}
