// internal/publish/message.go
package publish

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/sensor"
)

// DefaultPayloadLimit is the configured transport ceiling. It is
// deliberately enlarged beyond the conservative 256-byte protocol default:
// discovery documents do not fit the small buffer.
const DefaultPayloadLimit = 1024

// Message is one fully-constructed publish. Construction validates the
// payload against the configured ceiling, so an oversized payload fails
// here, never at send time.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// NewMessage validates size at construction time.
func NewMessage(topic string, payload []byte, retainedFlag bool, limit int) (Message, error) {
	if limit <= 0 {
		limit = DefaultPayloadLimit
	}
	if len(payload) > limit {
		return Message{}, fmt.Errorf(
			"publish: payload for %s is %d bytes, exceeds ceiling %d",
			topic, len(payload), limit,
		)
	}
	return Message{Topic: topic, Payload: payload, Retained: retainedFlag}, nil
}

// ---- payload builders ----

// formatValue renders a metric value the way the subscriber side expects:
// fixed one-decimal, no JSON wrapper.
func formatValue(v float64) []byte {
	return []byte(strconv.FormatFloat(v, 'f', 1, 64))
}

// CToF converts for deployments that advertise Fahrenheit in discovery.
func CToF(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// LiveMessages builds the live metric messages for one cycle. Absent
// values produce no message at all; zero is a value.
func LiveMessages(t Topics, inside sensor.Reading, outside *sensor.Outside, fahrenheit bool, limit int) ([]Message, error) {
	var out []Message

	add := func(topic string, v float64) error {
		m, err := NewMessage(topic, formatValue(v), false, limit)
		if err != nil {
			return err
		}
		out = append(out, m)
		return nil
	}

	conv := func(c float64) float64 {
		if fahrenheit {
			return CToF(c)
		}
		return c
	}

	if inside.TempC != nil {
		if err := add(t.InsideTemp(), conv(*inside.TempC)); err != nil {
			return nil, err
		}
	}
	if inside.RHPct != nil {
		if err := add(t.InsideHum(), *inside.RHPct); err != nil {
			return nil, err
		}
	}
	if outside != nil && outside.TempC != nil {
		if err := add(t.OutsideTemp(), conv(*outside.TempC)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// historyPayload is the wire form of one offline sample. ts is omitted
// when the clock was unsynced at capture time.
type historyPayload struct {
	Seq   uint32   `json:"seq"`
	TS    *uint32  `json:"ts,omitempty"`
	TempC *float64 `json:"temp_c,omitempty"`
	RHPct *float64 `json:"rh_pct,omitempty"`
}

// HistoryMessage builds the publish for one drained offline sample.
func HistoryMessage(t Topics, s retained.Sample, limit int) (Message, error) {
	p := historyPayload{Seq: s.Seq}
	if s.HasTS {
		ts := s.TS
		p.TS = &ts
	}
	if s.HasTemp {
		v := float64(s.TempC)
		p.TempC = &v
	}
	if s.HasRH {
		v := float64(s.RHPct)
		p.RHPct = &v
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return Message{}, fmt.Errorf("publish: history encode: %w", err)
	}
	return NewMessage(t.History(), raw, false, limit)
}

// AvailabilityMessage is the retained online/offline marker.
func AvailabilityMessage(t Topics, online bool, limit int) (Message, error) {
	p := PayloadOffline
	if online {
		p = PayloadOnline
	}
	return NewMessage(t.Availability(), []byte(p), true, limit)
}

// SampleFromReading converts an acquisition into a queueable sample.
// ts carries the synced wall clock, or nil when the clock is unusable.
func SampleFromReading(r sensor.Reading, ts *time.Time) retained.Sample {
	s := retained.Sample{}
	if ts != nil {
		s.HasTS = true
		s.TS = uint32(ts.Unix())
	}
	if r.TempC != nil {
		s.HasTemp = true
		s.TempC = float32(*r.TempC)
	}
	if r.RHPct != nil {
		s.HasRH = true
		s.RHPct = float32(*r.RHPct)
	}
	return s
}
