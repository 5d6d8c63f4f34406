package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/ent"
	"github.com/carlosapgomes/eda-triage/ent/triagecase"
	"github.com/carlosapgomes/eda-triage/internal/messaging"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestCase(t *testing.T, client *ent.Client, agencyRecordNumber string, createdAt time.Time, decision *string) *ent.TriageCase {
	t.Helper()
	id := uuid.New().String()
	create := client.TriageCase.Create().
		SetID(id).
		SetRoom1OriginRoomID("room-1").
		SetRoom1OriginEventID(uuid.New().String()).
		SetRoom1OriginSenderUserID("user-1").
		SetAgencyRecordNumber(agencyRecordNumber).
		SetCreatedAt(createdAt)
	if decision != nil {
		create = create.SetDoctorDecision(triagecase.DoctorDecision(*decision))
	}
	c, err := create.Save(context.Background())
	require.NoError(t, err)
	return c
}

func TestResolvePriorCaseContext(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Postgres-backed test in short mode")
	}
	client := dbtest.Client(t)

	deny := "deny"
	accept := "accept"
	now := time.Now()
	newTestCase(t, client, "54321", now.Add(-2*24*time.Hour), &deny)
	mostRecent := newTestCase(t, client, "54321", now.Add(-1*time.Hour), &accept)
	newTestCase(t, client, "54321", now.Add(-10*24*time.Hour), &deny) // outside 7-day window
	current := newTestCase(t, client, "54321", now, nil)

	ctx, err := messaging.ResolvePriorCaseContext(context.Background(), client, "54321", current.ID)
	require.NoError(t, err)
	require.NotNil(t, ctx.MostRecentPriorCase)
	require.Equal(t, mostRecent.ID, ctx.MostRecentPriorCase.ID)
	require.Equal(t, 1, ctx.DenialCount7d)
}

func TestResolvePriorCaseContext_NoAgencyRecordNumber(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Postgres-backed test in short mode")
	}
	client := dbtest.Client(t)

	ctx, err := messaging.ResolvePriorCaseContext(context.Background(), client, "", "some-case")
	require.NoError(t, err)
	require.Nil(t, ctx.MostRecentPriorCase)
	require.Equal(t, 0, ctx.DenialCount7d)
}
