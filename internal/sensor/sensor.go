// internal/sensor/sensor.go
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Reading is one acquisition result. Absent values stay nil; they are never
// coerced to zero, so downstream display and publish logic can tell "no
// data" from "0.0".
type Reading struct {
	TempC *float64
	RHPct *float64
	At    time.Time

	// Stale marks a reading obtained past its budget; downstream may show
	// a "last known" badge but the data itself is kept.
	Stale bool
}

// HasData reports whether any value was obtained.
func (r Reading) HasData() bool {
	return r.TempC != nil || r.RHPct != nil
}

// Reader reads the local sensor. Implementations live under this package
// (modbus) or in the platform layer.
type Reader interface {
	Read() (Reading, error)
}

// ---- remote ("outside") reading ----

// Outside is the cached remote reading fetched from a retained topic.
type Outside struct {
	TempC *float64 `json:"temp_c,omitempty"`
	RHPct *float64 `json:"rh_pct,omitempty"`
}

var errEmptyOutside = errors.New("sensor: empty outside payload")

// ParseOutside decodes a retained outside payload. The producer publishes
// JSON; a payload that parses but carries no values is rejected.
func ParseOutside(payload []byte) (Outside, error) {
	if len(payload) == 0 {
		return Outside{}, errEmptyOutside
	}
	var o Outside
	if err := json.Unmarshal(payload, &o); err != nil {
		return Outside{}, fmt.Errorf("sensor: bad outside payload: %w", err)
	}
	if o.TempC == nil && o.RHPct == nil {
		return Outside{}, errEmptyOutside
	}
	return o, nil
}
