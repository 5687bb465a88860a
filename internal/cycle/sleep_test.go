// internal/cycle/sleep_test.go
package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepDuration_Remaining(t *testing.T) {
	got := SleepDuration(150*time.Second, 12*time.Second, 5*time.Second)
	assert.Equal(t, 138*time.Second, got)
}

func TestSleepDuration_FloorsOnOverrun(t *testing.T) {
	// Every budget breached and the awake time ate the interval: the node
	// must still make forward progress, never busy-loop.
	got := SleepDuration(30*time.Second, 45*time.Second, 5*time.Second)
	assert.Equal(t, 5*time.Second, got)

	got = SleepDuration(30*time.Second, 30*time.Second, 5*time.Second)
	assert.Equal(t, 5*time.Second, got)
}

func TestSleepDuration_MonotonicNonIncreasing(t *testing.T) {
	const interval = 120 * time.Second
	prev := SleepDuration(interval, 0, 5*time.Second)
	for awake := time.Second; awake <= 3*interval; awake += time.Second {
		d := SleepDuration(interval, awake, 5*time.Second)
		assert.LessOrEqual(t, d, prev, "awake=%s", awake)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		prev = d
	}
}

func TestSleepDuration_DefaultFloor(t *testing.T) {
	got := SleepDuration(time.Second, time.Hour, 0)
	assert.Equal(t, MinSleepFloor, got)
}

func TestFullRefreshDue(t *testing.T) {
	assert.True(t, FullRefreshDue(1, 12)) // first boot
	assert.False(t, FullRefreshDue(2, 12))
	assert.True(t, FullRefreshDue(12, 12))
	assert.True(t, FullRefreshDue(24, 12))
	assert.False(t, FullRefreshDue(25, 12))
	assert.False(t, FullRefreshDue(7, 0)) // cadence disabled
}
