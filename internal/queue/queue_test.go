package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/ent/job"
	"github.com/carlosapgomes/eda-triage/internal/clock"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/stretchr/testify/require"
)

func newQueue(t *testing.T) (*queue.Queue, *clock.FakeClock) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed queue test in short mode")
	}
	client := dbtest.Client(t)
	clk := clock.NewFakeClock(time.Date(2026, 2, 16, 12, 0, 0, 0, time.UTC))
	return queue.New(client, clk), clk
}

func TestEnqueue_DefaultsRunAfterAndMaxAttempts(t *testing.T) {
	q, clk := newQueue(t)
	ctx := context.Background()

	j, err := q.Enqueue(ctx, "pdf_extract", nil, map[string]any{"k": "v"}, time.Time{}, 0)
	require.NoError(t, err)
	require.Equal(t, clk.Now(), j.RunAfter)
	require.Equal(t, 5, j.MaxAttempts)
	require.Equal(t, job.StatusQueued, j.Status)
}

func TestEnqueue_WithCaseID(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	caseID := "case-1"

	j, err := q.Enqueue(ctx, "llm1", &caseID, nil, time.Time{}, 3)
	require.NoError(t, err)
	require.NotNil(t, j.CaseID)
	require.Equal(t, caseID, *j.CaseID)
	require.Equal(t, 3, j.MaxAttempts)
}

func TestHasActiveJob_TrueWhileQueuedOrRunning(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	caseID := "case-2"

	active, err := q.HasActiveJob(ctx, caseID, "llm1")
	require.NoError(t, err)
	require.False(t, active)

	_, err = q.Enqueue(ctx, "llm1", &caseID, nil, time.Time{}, 0)
	require.NoError(t, err)

	active, err = q.HasActiveJob(ctx, caseID, "llm1")
	require.NoError(t, err)
	require.True(t, active)
}

func TestHasActiveJob_FalseAfterTerminalStatus(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()
	caseID := "case-3"

	j, err := q.Enqueue(ctx, "llm1", &caseID, nil, time.Time{}, 0)
	require.NoError(t, err)
	require.NoError(t, q.MarkDone(ctx, j.ID))

	active, err := q.HasActiveJob(ctx, caseID, "llm1")
	require.NoError(t, err)
	require.False(t, active)
}

func TestClaimDue_OnlyClaimsDueAndQueued(t *testing.T) {
	q, clk := newQueue(t)
	ctx := context.Background()

	due, err := q.Enqueue(ctx, "pdf_extract", nil, nil, clk.Now().Add(-time.Minute), 0)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "pdf_extract", nil, nil, clk.Now().Add(time.Hour), 0)
	require.NoError(t, err)

	claimed, err := q.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, due.ID, claimed[0].ID)
	require.Equal(t, job.StatusRunning, claimed[0].Status)
}

func TestClaimDue_RespectsLimit(t *testing.T) {
	q, clk := newQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, "pdf_extract", nil, nil, clk.Now().Add(-time.Minute), 0)
		require.NoError(t, err)
	}

	claimed, err := q.ClaimDue(ctx, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
}

func TestClaimDue_ConcurrentCallersClaimDisjointSets(t *testing.T) {
	q, clk := newQueue(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := q.Enqueue(ctx, "pdf_extract", nil, nil, clk.Now().Add(-time.Minute), 0)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([][]string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			claimed, err := q.ClaimDue(ctx, 1)
			require.NoError(t, err)
			for _, j := range claimed {
				results[idx] = append(results[idx], j.ID)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, results[0], 1)
	require.Len(t, results[1], 1)
	require.NotEqual(t, results[0][0], results[1][0])
}

func TestMarkFailed_SetsStatusAndError(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	j, err := q.Enqueue(ctx, "llm1", nil, nil, time.Time{}, 0)
	require.NoError(t, err)

	require.NoError(t, q.MarkFailed(ctx, j.ID, errors.New("boom")))
}

func TestScheduleRetry_IncrementsAttemptsAndRequeues(t *testing.T) {
	q, clk := newQueue(t)
	ctx := context.Background()

	j, err := q.Enqueue(ctx, "llm1", nil, nil, time.Time{}, 0)
	require.NoError(t, err)

	next := clk.Now().Add(q.NextRunAfter(1).Sub(clk.Now()))
	require.NoError(t, q.ScheduleRetry(ctx, j.ID, next, errors.New("timeout")))
}

func TestMarkDead_AfterMaxAttemptsExceeded(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	j, err := q.Enqueue(ctx, "llm1", nil, nil, time.Time{}, 1)
	require.NoError(t, err)

	require.NoError(t, q.MarkDead(ctx, j.ID, errors.New("exhausted retries")))
}

func TestMarkDone_UnknownJobReturnsErrNotFound(t *testing.T) {
	q, _ := newQueue(t)
	ctx := context.Background()

	err := q.MarkDone(ctx, "does-not-exist")
	require.ErrorIs(t, err, queue.ErrNotFound)
}

func TestNextRunAfter_UsesBackoffTable(t *testing.T) {
	q, clk := newQueue(t)

	got := q.NextRunAfter(1)
	delta := got.Sub(clk.Now())
	require.GreaterOrEqual(t, delta, 27*time.Second)
	require.LessOrEqual(t, delta, 33*time.Second)
}
