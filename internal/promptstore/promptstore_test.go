package promptstore_test

import (
	"context"
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/promptstore"
	"github.com/carlosapgomes/eda-triage/test/dbtest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *promptstore.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Postgres-backed promptstore test in short mode")
	}
	return promptstore.New(dbtest.Client(t))
}

func TestRequiredActivePair_MissingReturnsSentinel(t *testing.T) {
	s := newStore(t)
	_, err := s.RequiredActivePair(context.Background(), "llm1_system", "llm1_user")
	require.ErrorIs(t, err, promptstore.ErrMissingActivePrompt)
}

func TestCreateActivate_MakesPromptLoadable(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "llm1_system", 1, "system prompt v1")
	require.NoError(t, err)
	_, err = s.Create(ctx, "llm1_user", 1, "user prompt v1")
	require.NoError(t, err)

	require.NoError(t, s.Activate(ctx, "llm1_system", 1))
	require.NoError(t, s.Activate(ctx, "llm1_user", 1))

	pair, err := s.RequiredActivePair(ctx, "llm1_system", "llm1_user")
	require.NoError(t, err)
	require.Equal(t, "system prompt v1", pair.System.Content)
	require.Equal(t, 1, pair.System.Version)
	require.Equal(t, "user prompt v1", pair.User.Content)
}

func TestActivate_SwitchingVersionsDeactivatesPrevious(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "llm2_system", 1, "v1")
	require.NoError(t, err)
	_, err = s.Create(ctx, "llm2_system", 2, "v2")
	require.NoError(t, err)

	require.NoError(t, s.Activate(ctx, "llm2_system", 1))
	require.NoError(t, s.Activate(ctx, "llm2_system", 2))

	_, err = s.RequiredActivePair(ctx, "llm2_system", "llm2_system")
	require.NoError(t, err)
}

func TestActivate_UnknownVersionErrors(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	_, err := s.Create(ctx, "llm2_user", 1, "v1")
	require.NoError(t, err)

	err = s.Activate(ctx, "llm2_user", 99)
	require.Error(t, err)
}
