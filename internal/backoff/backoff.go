// Package backoff computes deterministic, reproducible retry delays for the
// job queue (spec §4.2). The delay table and jitter formula are ported
// verbatim from original_source's backoff.py so that the same attempt number
// always yields the same delay across languages and across runs.
package backoff

import "time"

// baseDelaysSeconds are the fixed per-attempt delays before jitter. Attempts
// beyond the table length repeat the last entry.
var baseDelaysSeconds = [5]int{30, 120, 300, 600, 1200}

// Delay returns the retry delay for the given 1-based attempt number.
//
// The jitter is a deterministic function of attempt, not math/rand: a run
// can be replayed and will compute the identical delay for the identical
// attempt, which is what the "Retry backoff" testable property requires.
func Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	idx := attempt - 1
	if idx >= len(baseDelaysSeconds) {
		idx = len(baseDelaysSeconds) - 1
	}
	base := baseDelaysSeconds[idx]

	jitterPercent := float64((attempt*37)%21-10) / 100.0
	seconds := float64(base) * (1 + jitterPercent)

	return time.Duration(seconds * float64(time.Second))
}
