// internal/boot/boot.go
package boot

import (
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
)

// rapidResetGapMS is the widest gap between the two most recent boots that
// still counts as a crash loop. Boundary inclusive: exactly 10s triggers.
const rapidResetGapMS = 10_000

// rapidResetMinBoots is the boot count at which rapid-reset detection arms.
const rapidResetMinBoots = 3

// Result is what one classification decides.
type Result struct {
	Cause        ResetCause
	Wake         WakeCause
	RapidReset   bool
	PowerOnReset bool
}

// Classify updates the retained boot counters for one wake episode.
// It runs exactly once per cycle, at the start, and is the only writer of
// BootState. nowMS is the monotonic millisecond counter, not wall clock;
// rapid-reset detection must work before any time sync.
func Classify(cause ResetCause, wake WakeCause, nowMS int64, st *retained.BootState) Result {
	res := Result{Cause: cause, Wake: wake}

	if cause == ResetPowerOn {
		// Power-on clears everything; this boot is the first.
		*st = retained.BootState{BootCount: 1}
		st.PushBootTime(nowMS)
		res.PowerOnReset = true
		return res
	}

	st.BootCount++
	if cause.IsCrash() {
		st.CrashCount++
	}
	st.PushBootTime(nowMS)

	if st.BootCount >= rapidResetMinBoots {
		if gap, ok := st.LastGapMS(); ok && gap <= rapidResetGapMS {
			res.RapidReset = true
		}
	}
	return res
}
