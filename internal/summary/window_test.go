package summary_test

import (
	"testing"
	"time"

	"github.com/carlosapgomes/eda-triage/internal/summary"
	"github.com/stretchr/testify/require"
)

func bahia(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Bahia")
	require.NoError(t, err)
	return loc
}

func TestResolvePreviousWindow_MorningCutoffResolvesPreviousNightWindow(t *testing.T) {
	loc := bahia(t)
	runAtUTC := time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	window, err := summary.ResolvePreviousWindow(runAtUTC, loc, 7, 19)
	require.NoError(t, err)

	require.True(t, window.StartUTC.Equal(time.Date(2026, 2, 15, 22, 0, 0, 0, time.UTC)))
	require.True(t, window.EndUTC.Equal(time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)))
	require.Equal(t, 12*time.Hour, window.EndUTC.Sub(window.StartUTC))
}

func TestResolvePreviousWindow_EveningCutoffResolvesSameDayWindow(t *testing.T) {
	loc := bahia(t)
	runAtUTC := time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)

	window, err := summary.ResolvePreviousWindow(runAtUTC, loc, 7, 19)
	require.NoError(t, err)

	require.True(t, window.StartUTC.Equal(time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)))
	require.True(t, window.EndUTC.Equal(time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)))
}

func TestResolvePreviousWindow_JustAfterMidnightUsesPreviousEveningCutoff(t *testing.T) {
	loc := bahia(t)
	// 02:00 local (05:00 UTC) is after yesterday's 19:00 cutoff and before today's 07:00.
	runAtUTC := time.Date(2026, 2, 17, 5, 0, 0, 0, time.UTC)

	window, err := summary.ResolvePreviousWindow(runAtUTC, loc, 7, 19)
	require.NoError(t, err)

	require.True(t, window.EndUTC.Equal(time.Date(2026, 2, 16, 22, 0, 0, 0, time.UTC)))
	require.True(t, window.StartUTC.Equal(time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)))
}
