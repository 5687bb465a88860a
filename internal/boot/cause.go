// internal/boot/cause.go
package boot

// ResetCause mirrors the hardware reset reason set. The values are our own;
// the platform layer maps whatever the SoC reports into this enum.
type ResetCause uint8

const (
	ResetUnknown ResetCause = iota
	ResetPowerOn
	ResetExternal
	ResetSoftware
	ResetPanic
	ResetIntWatchdog
	ResetTaskWatchdog
	ResetWatchdog
	ResetDeepSleep
	ResetBrownout
)

func (c ResetCause) String() string {
	switch c {
	case ResetPowerOn:
		return "power_on"
	case ResetExternal:
		return "external"
	case ResetSoftware:
		return "software"
	case ResetPanic:
		return "panic"
	case ResetIntWatchdog:
		return "int_wdt"
	case ResetTaskWatchdog:
		return "task_wdt"
	case ResetWatchdog:
		return "wdt"
	case ResetDeepSleep:
		return "deep_sleep"
	case ResetBrownout:
		return "brownout"
	default:
		return "unknown"
	}
}

// IsCrash reports whether the cause belongs to the crash class.
func (c ResetCause) IsCrash() bool {
	switch c {
	case ResetPanic, ResetIntWatchdog, ResetTaskWatchdog, ResetWatchdog, ResetBrownout:
		return true
	default:
		return false
	}
}

// WakeCause is the wake source that ended deep sleep.
type WakeCause uint8

const (
	WakeUndefined WakeCause = iota
	WakeTimer
	WakeExt0
	WakeExt1
	WakeTouchpad
	WakeULP
)

func (w WakeCause) String() string {
	switch w {
	case WakeTimer:
		return "timer"
	case WakeExt0:
		return "ext0"
	case WakeExt1:
		return "ext1"
	case WakeTouchpad:
		return "touchpad"
	case WakeULP:
		return "ulp"
	default:
		return "undefined"
	}
}
