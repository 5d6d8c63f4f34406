// Package config loads environment-driven runtime settings, grounded on
// pkg/database/config.go's LoadConfigFromEnv shape (getEnvOrDefault +
// per-field validation, returning a single populated struct or an error
// naming the missing variable).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds every environment-configured value named in §6.
type Settings struct {
	Room1ID string
	Room2ID string
	Room3ID string
	Room4ID string

	MatrixHomeserverURL string
	MatrixBotUserID     string
	MatrixAccessToken   string

	DatabaseURL string

	WebhookHMACSecret string

	SupervisorSummaryTimezone    string
	SupervisorSummaryMorningHour int
	SupervisorSummaryEveningHour int

	LLMRuntimeMode   string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModelLLM1  string
	OpenAIModelLLM2  string
	OpenAITimeoutSec float64

	BootstrapAdminEmail        string
	BootstrapAdminPassword     string
	BootstrapAdminPasswordFile string

	LogLevel string
}

// Load reads Settings from the process environment, applying the same
// defaults as original_source's settings.py (supervisor summary timezone
// America/Bahia, morning/evening hours 7/19, llm_runtime_mode=deterministic).
func Load() (*Settings, error) {
	s := &Settings{
		Room1ID:             os.Getenv("ROOM1_ID"),
		Room2ID:             os.Getenv("ROOM2_ID"),
		Room3ID:             os.Getenv("ROOM3_ID"),
		Room4ID:             os.Getenv("ROOM4_ID"),
		MatrixHomeserverURL: os.Getenv("MATRIX_HOMESERVER_URL"),
		MatrixBotUserID:     os.Getenv("MATRIX_BOT_USER_ID"),
		MatrixAccessToken:   os.Getenv("MATRIX_ACCESS_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebhookHMACSecret:   os.Getenv("WEBHOOK_HMAC_SECRET"),

		SupervisorSummaryTimezone: getEnvOrDefault("SUPERVISOR_SUMMARY_TIMEZONE", "America/Bahia"),

		LLMRuntimeMode:  getEnvOrDefault("LLM_RUNTIME_MODE", "deterministic"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModelLLM1: getEnvOrDefault("OPENAI_MODEL_LLM1", "gpt-4o-mini"),
		OpenAIModelLLM2: getEnvOrDefault("OPENAI_MODEL_LLM2", "gpt-4o-mini"),

		BootstrapAdminEmail:        os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword:     os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapAdminPasswordFile: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD_FILE"),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	var err error
	if s.SupervisorSummaryMorningHour, err = getEnvIntOrDefault("SUPERVISOR_SUMMARY_MORNING_HOUR", 7); err != nil {
		return nil, err
	}
	if s.SupervisorSummaryEveningHour, err = getEnvIntOrDefault("SUPERVISOR_SUMMARY_EVENING_HOUR", 19); err != nil {
		return nil, err
	}
	if s.OpenAITimeoutSec, err = getEnvFloatOrDefault("OPENAI_TIMEOUT_SECONDS", 60.0); err != nil {
		return nil, err
	}

	if s.BootstrapAdminPasswordFile != "" && s.BootstrapAdminPassword == "" {
		data, err := os.ReadFile(s.BootstrapAdminPasswordFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read BOOTSTRAP_ADMIN_PASSWORD_FILE: %w", err)
		}
		s.BootstrapAdminPassword = strings.TrimSpace(string(data))
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) validate() error {
	required := map[string]string{
		"ROOM1_ID":            s.Room1ID,
		"ROOM2_ID":            s.Room2ID,
		"ROOM3_ID":            s.Room3ID,
		"ROOM4_ID":            s.Room4ID,
		"MATRIX_HOMESERVER_URL": s.MatrixHomeserverURL,
		"MATRIX_BOT_USER_ID":    s.MatrixBotUserID,
		"MATRIX_ACCESS_TOKEN":   s.MatrixAccessToken,
		"DATABASE_URL":          s.DatabaseURL,
		"WEBHOOK_HMAC_SECRET":   s.WebhookHMACSecret,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	if s.LLMRuntimeMode != "deterministic" && s.LLMRuntimeMode != "provider" {
		return fmt.Errorf("LLM_RUNTIME_MODE must be deterministic or provider, got %q", s.LLMRuntimeMode)
	}
	if s.LLMRuntimeMode == "provider" && s.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when LLM_RUNTIME_MODE=provider")
	}
	if s.SupervisorSummaryMorningHour < 0 || s.SupervisorSummaryMorningHour > 23 {
		return fmt.Errorf("SUPERVISOR_SUMMARY_MORNING_HOUR must be 0-23")
	}
	if s.SupervisorSummaryEveningHour < 0 || s.SupervisorSummaryEveningHour > 23 {
		return fmt.Errorf("SUPERVISOR_SUMMARY_EVENING_HOUR must be 0-23")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloatOrDefault(key string, defaultVal float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
