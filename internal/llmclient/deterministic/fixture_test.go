package deterministic_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/llmclient"
	"github.com/carlosapgomes/eda-triage/internal/llmclient/deterministic"
	"github.com/stretchr/testify/require"
)

func TestFixtureClient_Llm1FillsAgencyRecordNumberFromPrompt(t *testing.T) {
	c := deterministic.NewFixtureClient()
	resp, err := c.Complete(context.Background(), llmclient.Request{
		RouteKey:  "llm1",
		UserPrompt: "case_id: 11111111-1111-1111-1111-111111111111 agency_record_number: 54321",
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &decoded))
	require.Equal(t, "54321", decoded["agency_record_number"])
	require.Equal(t, "1.1", decoded["schema_version"])
}

func TestFixtureClient_Llm2FillsCaseIDAndAgencyRecordNumber(t *testing.T) {
	c := deterministic.NewFixtureClient()
	resp, err := c.Complete(context.Background(), llmclient.Request{
		RouteKey:  "llm2",
		UserPrompt: "case_id: 22222222-2222-2222-2222-222222222222 agency_record_number: 99999",
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &decoded))
	require.Equal(t, "22222222-2222-2222-2222-222222222222", decoded["case_id"])
	require.Equal(t, "99999", decoded["agency_record_number"])
}

func TestFixtureClient_Llm1MissingAgencyRecordNumberErrors(t *testing.T) {
	c := deterministic.NewFixtureClient()
	_, err := c.Complete(context.Background(), llmclient.Request{RouteKey: "llm1", UserPrompt: "nothing here"})
	require.Error(t, err)
}

func TestFixtureClient_UnknownRouteKeyErrors(t *testing.T) {
	c := deterministic.NewFixtureClient()
	_, err := c.Complete(context.Background(), llmclient.Request{RouteKey: "llm3"})
	require.Error(t, err)
}
