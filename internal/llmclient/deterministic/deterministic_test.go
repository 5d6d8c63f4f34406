package deterministic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/llmclient"
	"github.com/carlosapgomes/eda-triage/internal/llmclient/deterministic"
	"github.com/stretchr/testify/require"
)

func TestComplete_SequentialConsumedInOrder(t *testing.T) {
	c := deterministic.New()
	c.AddSequential(deterministic.Entry{Content: "first"})
	c.AddSequential(deterministic.Entry{Content: "second"})

	ctx := context.Background()
	r1, err := c.Complete(ctx, llmclient.Request{})
	require.NoError(t, err)
	require.Equal(t, "first", r1.Content)

	r2, err := c.Complete(ctx, llmclient.Request{})
	require.NoError(t, err)
	require.Equal(t, "second", r2.Content)
}

func TestComplete_RoutedTakesPriorityOverSequential(t *testing.T) {
	c := deterministic.New()
	c.AddSequential(deterministic.Entry{Content: "fallback"})
	c.AddRouted("llm1", deterministic.Entry{Content: "routed"})

	resp, err := c.Complete(context.Background(), llmclient.Request{RouteKey: "llm1"})
	require.NoError(t, err)
	require.Equal(t, "routed", resp.Content)
}

func TestComplete_PropagatesScriptedError(t *testing.T) {
	c := deterministic.New()
	wantErr := errors.New("boom")
	c.AddSequential(deterministic.Entry{Err: wantErr})

	_, err := c.Complete(context.Background(), llmclient.Request{})
	require.ErrorIs(t, err, wantErr)
}

func TestComplete_ExhaustedScriptReturnsError(t *testing.T) {
	c := deterministic.New()
	_, err := c.Complete(context.Background(), llmclient.Request{})
	require.Error(t, err)
}

func TestCallCount_TracksEveryCall(t *testing.T) {
	c := deterministic.New()
	c.AddSequential(deterministic.Entry{Content: "a"})
	c.AddSequential(deterministic.Entry{Content: "b"})

	_, _ = c.Complete(context.Background(), llmclient.Request{})
	_, _ = c.Complete(context.Background(), llmclient.Request{})

	require.Equal(t, 2, c.CallCount())
}
