package llmclient_test

import (
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/llmclient"
	"github.com/stretchr/testify/require"
)

func TestApplyStrictMode_AddsRequiredAtEveryLevel(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"nested": map[string]any{"type": "string"},
				},
			},
			"b": map[string]any{"type": "string"},
		},
	}

	got := llmclient.ApplyStrictMode(schema)

	require.Equal(t, []string{"a", "b"}, got["required"])
	inner := got["properties"].(map[string]any)["a"].(map[string]any)
	require.Equal(t, []string{"nested"}, inner["required"])
}

func TestApplyStrictMode_DoesNotMutateInput(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{"a": map[string]any{"type": "string"}},
	}
	_ = llmclient.ApplyStrictMode(schema)
	_, hasRequired := schema["required"]
	require.False(t, hasRequired)
}
