package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_Attempt1WithinJitterBand(t *testing.T) {
	d := Delay(1)
	assert.GreaterOrEqual(t, d, 27*time.Second)
	assert.LessOrEqual(t, d, 33*time.Second)
}

func TestDelay_Attempt2WithinJitterBand(t *testing.T) {
	d := Delay(2)
	assert.GreaterOrEqual(t, d, 108*time.Second)
	assert.LessOrEqual(t, d, 132*time.Second)
}

func TestDelay_IsDeterministic(t *testing.T) {
	assert.Equal(t, Delay(3), Delay(3))
	assert.Equal(t, Delay(7), Delay(7))
}

func TestDelay_AttemptsBeyondTableRepeatLast(t *testing.T) {
	// The 1200s base repeats past attempt 5; the jitter still varies by
	// attempt (+2% for attempt 6, -10% for attempt 42).
	assert.Equal(t, 1224*time.Second, Delay(6))
	assert.Equal(t, 1080*time.Second, Delay(42))
}

func TestDelay_ClampsBelowOne(t *testing.T) {
	assert.Equal(t, Delay(1), Delay(0))
	assert.Equal(t, Delay(1), Delay(-3))
}
