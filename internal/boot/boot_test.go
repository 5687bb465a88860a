// internal/boot/boot_test.go
package boot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
)

func TestClassify_PowerOnClearsCounters(t *testing.T) {
	st := retained.BootState{BootCount: 42, CrashCount: 9, CumulativeUptimeS: 777}
	st.PushBootTime(1)
	st.PushBootTime(2)

	res := Classify(ResetPowerOn, WakeUndefined, 500, &st)

	assert.True(t, res.PowerOnReset)
	assert.False(t, res.RapidReset)
	assert.Equal(t, uint32(1), st.BootCount)
	assert.Equal(t, uint32(0), st.CrashCount)
	assert.Equal(t, uint32(0), st.CumulativeUptimeS)
	assert.Equal(t, uint8(1), st.RecentBoots)
}

func TestClassify_CrashClassIncrementsCrashCount(t *testing.T) {
	crash := []ResetCause{ResetPanic, ResetIntWatchdog, ResetTaskWatchdog, ResetWatchdog, ResetBrownout}
	for _, cause := range crash {
		t.Run(cause.String(), func(t *testing.T) {
			st := retained.BootState{BootCount: 5, CrashCount: 2}

			Classify(cause, WakeUndefined, 1000, &st)

			assert.Equal(t, uint32(6), st.BootCount)
			assert.Equal(t, uint32(3), st.CrashCount)
		})
	}
}

func TestClassify_NonCrashLeavesCrashCount(t *testing.T) {
	for _, cause := range []ResetCause{ResetExternal, ResetSoftware, ResetDeepSleep, ResetUnknown} {
		t.Run(cause.String(), func(t *testing.T) {
			st := retained.BootState{BootCount: 5, CrashCount: 2}

			Classify(cause, WakeTimer, 1000, &st)

			assert.Equal(t, uint32(6), st.BootCount)
			assert.Equal(t, uint32(2), st.CrashCount)
		})
	}
}

func TestClassify_CrashCountNeverExceedsBootCount(t *testing.T) {
	var st retained.BootState
	Classify(ResetPowerOn, WakeUndefined, 0, &st)
	for i := 0; i < 10; i++ {
		Classify(ResetPanic, WakeUndefined, int64(100_000*(i+1)), &st)
		require.LessOrEqual(t, st.CrashCount, st.BootCount)
	}
}

func TestClassify_RapidResetBoundary(t *testing.T) {
	run := func(bootsBefore uint32, gapMS int64) Result {
		st := retained.BootState{BootCount: bootsBefore}
		st.PushBootTime(0)
		st.PushBootTime(100_000)
		return Classify(ResetPanic, WakeUndefined, 100_000+gapMS, &st)
	}

	// Gap exactly 10s triggers; 11s does not.
	assert.True(t, run(2, 10_000).RapidReset)
	assert.False(t, run(2, 11_000).RapidReset)

	// Below three boots it never triggers, regardless of gap.
	assert.False(t, run(1, 1_000).RapidReset)
}

func TestClassify_RapidResetUsesLatestPair(t *testing.T) {
	// Two quick boots long ago must not trigger if the latest gap is wide.
	st := retained.BootState{BootCount: 3}
	st.PushBootTime(0)
	st.PushBootTime(500)

	res := Classify(ResetSoftware, WakeUndefined, 500_000, &st)
	assert.False(t, res.RapidReset)
}
