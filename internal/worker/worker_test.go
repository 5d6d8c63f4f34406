package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/job"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/clock"
	"github.com/carlosapgomes/eda-triage/internal/queue"
	"github.com/carlosapgomes/eda-triage/internal/worker"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	_, q := newTestClientAndQueue(t)
	return q
}

func newTestClientAndQueue(t *testing.T) (*ent.Client, *queue.Queue) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed worker test in short mode")
	}
	client := dbtest.Client(t)
	return client, queue.New(client, clock.NewFakeClock(time.Now()))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPool_ProcessesJobAndMarksDone(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "widget_seen", nil, nil, time.Time{}, 5)
	require.NoError(t, err)

	var mu sync.Mutex
	var processed []string

	handlers := map[string]worker.Handler{
		"widget_seen": func(ctx context.Context, j worker.JobView) error {
			mu.Lock()
			processed = append(processed, j.ID)
			mu.Unlock()
			return nil
		},
	}

	pool := worker.NewPool(worker.Config{
		WorkerCount:        1,
		BatchSize:          5,
		PollInterval:       20 * time.Millisecond,
		PollIntervalJitter: 0,
	}, q, nil, handlers)

	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 1
	})
}

func TestPool_UnknownJobTypeExhaustsAttemptsAndDeadLetters(t *testing.T) {
	client, q := newTestClientAndQueue(t)
	ctx := context.Background()

	j, err := q.Enqueue(ctx, "totally_unregistered", nil, nil, time.Time{}, 1)
	require.NoError(t, err)

	pool := worker.NewPool(worker.Config{
		WorkerCount:        1,
		BatchSize:          5,
		PollInterval:       10 * time.Millisecond,
		PollIntervalJitter: 0,
	}, q, nil, map[string]worker.Handler{})

	pool.Start(ctx)
	defer pool.Stop()

	waitFor(t, 2*time.Second, func() bool {
		refreshed, err := client.Job.Get(ctx, j.ID)
		require.NoError(t, err)
		return refreshed.Status == job.StatusDead
	})
}

func TestFinalizer_MarksCaseFailedAndEnqueuesFinalFailure(t *testing.T) {
	client, q := newTestClientAndQueue(t)
	ctx := context.Background()

	caseID := uuid.NewString()
	_, err := client.TriageCase.Create().
		SetID(caseID).
		SetStatus(triagecase.Status("LLM_SUGGEST")).
		SetRoom1OriginRoomID("!room1:example.org").
		SetRoom1OriginEventID(uuid.NewString()).
		SetRoom1OriginSenderUserID("@sender:example.org").
		Save(ctx)
	require.NoError(t, err)

	finalizer := worker.NewFinalizer(client, q)
	view := worker.JobView{ID: uuid.NewString(), CaseID: &caseID, JobType: "process_pdf_case"}

	err = finalizer.Finalize(ctx, view, errors.New("llm1: schema validation failed"))
	require.NoError(t, err)

	updated, err := client.TriageCase.Get(ctx, caseID)
	require.NoError(t, err)
	require.Equal(t, triagecase.Status("FAILED"), updated.Status)

	active, err := q.HasActiveJob(ctx, caseID, "post_room1_final_failure")
	require.NoError(t, err)
	require.True(t, active)
}
