// internal/cycle/sleep.go
package cycle

import "time"

// MinSleepFloor guarantees forward progress when every budget breached and
// the awake time ate the whole interval: the node still suspends for a
// conservative non-zero span instead of busy-looping.
const MinSleepFloor = 5 * time.Second

// SleepDuration computes the remaining deep-sleep span for the hardware
// wake timer. Monotonically non-increasing in elapsedAwake, never below
// the floor.
func SleepDuration(wakeInterval, elapsedAwake, floor time.Duration) time.Duration {
	if floor <= 0 {
		floor = MinSleepFloor
	}
	remaining := wakeInterval - elapsedAwake
	if remaining < floor {
		return floor
	}
	return remaining
}

// FullRefreshDue decides whether the next display render forces a full
// (vs. partial) refresh. The first boot always does; afterwards every
// cadence-th wake clears accumulated partial-refresh ghosting.
func FullRefreshDue(bootCount, cadence uint32) bool {
	if bootCount <= 1 {
		return true
	}
	if cadence == 0 {
		return false
	}
	return bootCount%cadence == 0
}
