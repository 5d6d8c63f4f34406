package recovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/job"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/clock"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/carlosapgomes/eda-triage/internal/recovery"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*recovery.Service, *ent.Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed recovery test in short mode")
	}
	client := dbtest.Client(t)
	q := queue.New(client, clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	return recovery.New(client, q), client
}

func newCase(t *testing.T, client *ent.Client, status string) *ent.TriageCase {
	t.Helper()
	c, err := client.TriageCase.Create().
		SetID(uuid.NewString()).
		SetStatus(triagecase.Status(status)).
		SetRoom1OriginRoomID("!room1:example.org").
		SetRoom1OriginEventID(uuid.NewString()).
		SetRoom1OriginSenderUserID("@sender:example.org").
		Save(context.Background())
	require.NoError(t, err)
	return c
}

func TestRun_ResetsOrphanedRunningJobs(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()

	c := newCase(t, client, "DOCTOR_DENIED")
	_, err := client.Job.Create().
		SetID(uuid.NewString()).
		SetCaseID(c.ID).
		SetJobType("post_room1_final_denial_triage").
		SetStatus(job.StatusRunning).
		Save(ctx)
	require.NoError(t, err)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.ResetJobs)

	count, err := client.Job.Query().Where(job.StatusEQ(job.StatusQueued)).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRun_EnqueuesMissingContinuationJob(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()

	c := newCase(t, client, "APPT_CONFIRMED")

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.EnqueuedJobs)

	jobs, err := client.Job.Query().Where(job.CaseIDEQ(c.ID)).All(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "post_room1_final_appt", jobs[0].JobType)

	events, err := client.AuditEvent.Query().All(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "RECOVERY_JOB_ENQUEUED", events[0].EventType)
}

func TestRun_SkipsCaseWithActiveJob(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()

	c := newCase(t, client, "DOCTOR_DENIED")
	_, err := client.Job.Create().
		SetID(uuid.NewString()).
		SetCaseID(c.ID).
		SetJobType("post_room1_final_denial_triage").
		SetStatus(job.StatusQueued).
		Save(ctx)
	require.NoError(t, err)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.EnqueuedJobs)
}

func TestRun_WaitR1CleanupThumbsWithoutTrigger_NoJob(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()

	newCase(t, client, "WAIT_R1_CLEANUP_THUMBS")

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.EnqueuedJobs)
}

func TestRun_WaitR1CleanupThumbsTriggeredNotCompleted_EnqueuesCleanup(t *testing.T) {
	svc, client := newService(t)
	ctx := context.Background()

	c := newCase(t, client, "WAIT_R1_CLEANUP_THUMBS")
	now := time.Now()
	_, err := client.TriageCase.UpdateOne(c).SetCleanupTriggeredAt(now).Save(ctx)
	require.NoError(t, err)

	result, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.EnqueuedJobs)

	jobs, err := client.Job.Query().Where(job.CaseIDEQ(c.ID)).All(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "execute_cleanup", jobs[0].JobType)
}
