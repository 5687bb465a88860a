// internal/cycle/debug.go
package cycle

import "encoding/json"

// DebugRecord is the machine-readable end-of-cycle payload. Every field is
// individually optional; consumers tolerate any subset, so a cycle that
// never reached Wi-Fi still emits a valid (smaller) record.
type DebugRecord struct {
	MsBootToWifi   *int64  `json:"ms_boot_to_wifi,omitempty"`
	MsWifiToMqtt   *int64  `json:"ms_wifi_to_mqtt,omitempty"`
	MsSensorRead   *int64  `json:"ms_sensor_read,omitempty"`
	MsPublish      *int64  `json:"ms_publish,omitempty"`
	SleepScheduled *int64  `json:"sleep_scheduled_ms,omitempty"`
	DeepSleepUS    *int64  `json:"deep_sleep_us,omitempty"`
	Timeouts       *uint32 `json:"timeouts,omitempty"`
	ResetReason    string  `json:"reset_reason,omitempty"`
	WakeupCause    string  `json:"wakeup_cause,omitempty"`
}

// Encode renders the record as JSON.
func (d DebugRecord) Encode() ([]byte, error) {
	return json.Marshal(d)
}

func msPtr(ms int64) *int64 { return &ms }
