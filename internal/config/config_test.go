package config_test

import (
	"testing"

	"github.com/carlosapgomes/eda-triage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	vars := map[string]string{
		"ROOM1_ID":              "!room1:example.org",
		"ROOM2_ID":              "!room2:example.org",
		"ROOM3_ID":              "!room3:example.org",
		"ROOM4_ID":              "!room4:example.org",
		"MATRIX_HOMESERVER_URL": "https://matrix.example.org",
		"MATRIX_BOT_USER_ID":    "@bot:example.org",
		"MATRIX_ACCESS_TOKEN":   "token123",
		"DATABASE_URL":          "postgres://localhost/eda",
		"WEBHOOK_HMAC_SECRET":   "secret",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	s, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "America/Bahia", s.SupervisorSummaryTimezone)
	assert.Equal(t, 7, s.SupervisorSummaryMorningHour)
	assert.Equal(t, 19, s.SupervisorSummaryEveningHour)
	assert.Equal(t, "deterministic", s.LLMRuntimeMode)
}

func TestLoad_MissingRequiredVarFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_ProviderModeRequiresAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_RUNTIME_MODE", "provider")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_InvalidHourFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUPERVISOR_SUMMARY_MORNING_HOUR", "not-a-number")

	_, err := config.Load()
	require.Error(t, err)
}
