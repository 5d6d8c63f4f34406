package summary_test

import (
	"context"
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/internal/clock"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/carlosapgomes/eda-triage/internal/summary"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/stretchr/testify/require"
)

func newScheduler(t *testing.T) *summary.Scheduler {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed scheduler test in short mode")
	}
	client := dbtest.Client(t)
	q := queue.New(client, clock.NewFakeClock(time.Now()))
	loc := bahia(t)
	return summary.New(client, q, summary.Config{
		Room4ID:      "!room4:example.org",
		Location:     loc,
		MorningHour:  7,
		EveningHour:  19,
		TimezoneName: "America/Bahia",
	})
}

func TestEnqueuePreviousWindowSummary_ClaimsAndEnqueuesJob(t *testing.T) {
	scheduler := newScheduler(t)
	ctx := context.Background()
	runAtUTC := time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)

	result, err := scheduler.EnqueuePreviousWindowSummary(ctx, runAtUTC)
	require.NoError(t, err)
	require.True(t, result.Claimed)
	require.NotEmpty(t, result.JobID)
}

func TestEnqueuePreviousWindowSummary_SkipsDuplicateWindowOnRerun(t *testing.T) {
	scheduler := newScheduler(t)
	ctx := context.Background()
	runAtUTC := time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)

	first, err := scheduler.EnqueuePreviousWindowSummary(ctx, runAtUTC)
	require.NoError(t, err)
	require.True(t, first.Claimed)

	second, err := scheduler.EnqueuePreviousWindowSummary(ctx, runAtUTC)
	require.NoError(t, err)
	require.False(t, second.Claimed)
	require.Empty(t, second.JobID)
}

func TestMarkFailedThenReclaim_AllowsRetry(t *testing.T) {
	scheduler := newScheduler(t)
	ctx := context.Background()
	runAtUTC := time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)

	first, err := scheduler.EnqueuePreviousWindowSummary(ctx, runAtUTC)
	require.NoError(t, err)
	require.True(t, first.Claimed)

	require.NoError(t, scheduler.MarkFailed(ctx, "!room4:example.org", first.Window.StartUTC, first.Window.EndUTC))

	second, err := scheduler.EnqueuePreviousWindowSummary(ctx, runAtUTC)
	require.NoError(t, err)
	require.True(t, second.Claimed)
}

func TestMarkSent_TransitionsPendingToSent(t *testing.T) {
	scheduler := newScheduler(t)
	ctx := context.Background()
	runAtUTC := time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)

	result, err := scheduler.EnqueuePreviousWindowSummary(ctx, runAtUTC)
	require.NoError(t, err)
	require.True(t, result.Claimed)

	err = scheduler.MarkSent(ctx, "!room4:example.org", result.Window.StartUTC, result.Window.EndUTC, "$delivered:example.org")
	require.NoError(t, err)
}
