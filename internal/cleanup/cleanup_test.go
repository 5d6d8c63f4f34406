package cleanup_test

import (
	"context"
	"errors"
	"testing"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/casemessage"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/cleanup"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	redactCalls  map[string]int
	failAlways   map[string]bool
	rateLimitFor map[string]int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		redactCalls:  make(map[string]int),
		failAlways:   make(map[string]bool),
		rateLimitFor: make(map[string]int),
	}
}

func (f *fakeAdapter) PostMessage(ctx context.Context, room, text, threadEventID string) (string, error) {
	return "", nil
}

func (f *fakeAdapter) FindEventByFingerprint(ctx context.Context, room, fingerprint string) (string, error) {
	return "", nil
}

func (f *fakeAdapter) RedactMessage(ctx context.Context, room, eventID string) error {
	f.redactCalls[eventID]++
	if f.failAlways[eventID] {
		return errors.New("permanently broken")
	}
	if remaining := f.rateLimitFor[eventID]; remaining > 0 {
		f.rateLimitFor[eventID]--
		return &messaging.RateLimitError{RetryAfterMs: 10}
	}
	return nil
}

var _ messaging.ChatAdapter = (*fakeAdapter)(nil)

func newCaseWithMessages(t *testing.T, client *ent.Client, n int) (*ent.TriageCase, []string) {
	t.Helper()
	ctx := context.Background()
	c, err := client.TriageCase.Create().
		SetID(uuid.NewString()).
		SetStatus(triagecase.Status("WAIT_R1_CLEANUP_THUMBS")).
		SetRoom1OriginRoomID("!room1:example.org").
		SetRoom1OriginEventID(uuid.NewString()).
		SetRoom1OriginSenderUserID("@sender:example.org").
		Save(ctx)
	require.NoError(t, err)

	eventIDs := make([]string, n)
	for i := 0; i < n; i++ {
		eventID := uuid.NewString()
		eventIDs[i] = eventID
		_, err := client.CaseMessage.Create().
			SetID(uuid.NewString()).
			SetCaseID(c.ID).
			SetRoomID("!room1:example.org").
			SetEventID(eventID).
			SetKind(casemessage.Kind("room1_origin")).
			Save(ctx)
		require.NoError(t, err)
	}
	return c, eventIDs
}

func newTestClient(t *testing.T) *ent.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed cleanup test in short mode")
	}
	return dbtest.Client(t)
}

func TestExecute_RedactsAllMessagesAndMarksCleaned(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c, eventIDs := newCaseWithMessages(t, client, 2)
	adapter := newFakeAdapter()
	svc := cleanup.New(client, adapter)

	result, err := svc.Execute(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, result.RedactedSuccess)
	require.Equal(t, 0, result.RedactedFailed)

	for _, id := range eventIDs {
		require.Equal(t, 1, adapter.redactCalls[id])
	}

	updated, err := client.TriageCase.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, triagecase.Status("CLEANED"), updated.Status)
	require.NotNil(t, updated.CleanupCompletedAt)
}

func TestExecute_RetriesOnRateLimitThenSucceeds(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c, eventIDs := newCaseWithMessages(t, client, 1)
	adapter := newFakeAdapter()
	adapter.rateLimitFor[eventIDs[0]] = 2
	svc := cleanup.New(client, adapter)

	result, err := svc.Execute(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.RedactedSuccess)
	require.Equal(t, 3, adapter.redactCalls[eventIDs[0]])
}

func TestExecute_RecordsFailureAndStillCompletes(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c, eventIDs := newCaseWithMessages(t, client, 1)
	adapter := newFakeAdapter()
	adapter.failAlways[eventIDs[0]] = true
	svc := cleanup.New(client, adapter)

	result, err := svc.Execute(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 0, result.RedactedSuccess)
	require.Equal(t, 1, result.RedactedFailed)

	updated, err := client.TriageCase.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, triagecase.Status("CLEANED"), updated.Status)
}

func TestExecute_GivesUpAfterMaxRateLimitAttempts(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	c, eventIDs := newCaseWithMessages(t, client, 1)
	adapter := newFakeAdapter()
	adapter.rateLimitFor[eventIDs[0]] = 10
	svc := cleanup.New(client, adapter)

	result, err := svc.Execute(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 0, result.RedactedSuccess)
	require.Equal(t, 1, result.RedactedFailed)
	require.Equal(t, 5, adapter.redactCalls[eventIDs[0]])
}
