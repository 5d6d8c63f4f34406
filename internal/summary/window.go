// Package summary computes the Room-4 periodic-summary reporting window and
// drives its idempotent dispatch, ported from original_source's
// supervisor_summary_scheduler_service.py (resolve_previous_summary_window,
// claim-or-reclaim dispatch), with the service runtime shape grounded on
// pkg/cleanup/service.go's ticker-driven Start/Stop loop.
package summary

import (
	"fmt"
	"time"
)

// Window is a resolved, closed-open 12-hour reporting window in both local
// and UTC time.
type Window struct {
	StartLocal time.Time
	EndLocal   time.Time
	StartUTC   time.Time
	EndUTC     time.Time
}

// ResolvePreviousWindow returns the latest completed 12-hour reporting
// window as of runAtUTC, evaluated against the morning/evening cutoff hours
// in loc. The window end is the greatest candidate cutoff (today's or
// yesterday's morning/evening hour) that is at or before "now" in loc; the
// window spans the 12 hours immediately preceding it.
func ResolvePreviousWindow(runAtUTC time.Time, loc *time.Location, morningHour, eveningHour int) (Window, error) {
	nowLocal := runAtUTC.In(loc)

	var candidates []time.Time
	for _, dayOffset := range []int{-1, 0} {
		day := nowLocal.AddDate(0, 0, dayOffset)
		candidates = append(candidates,
			time.Date(day.Year(), day.Month(), day.Day(), morningHour, 0, 0, 0, loc),
			time.Date(day.Year(), day.Month(), day.Day(), eveningHour, 0, 0, 0, loc),
		)
	}

	var windowEndLocal time.Time
	found := false
	for _, candidate := range candidates {
		if !candidate.After(nowLocal) {
			if !found || candidate.After(windowEndLocal) {
				windowEndLocal = candidate
				found = true
			}
		}
	}
	if !found {
		return Window{}, fmt.Errorf("unable to resolve previous summary cutoff for %s", nowLocal)
	}

	windowStartLocal := windowEndLocal.Add(-12 * time.Hour)

	return Window{
		StartLocal: windowStartLocal,
		EndLocal:   windowEndLocal,
		StartUTC:   windowStartLocal.UTC(),
		EndUTC:     windowEndLocal.UTC(),
	}, nil
}
