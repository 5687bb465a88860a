// internal/publish/discovery.go
package publish

import (
	"encoding/json"
	"fmt"
)

// Discovery documents are retained registration messages, one per
// measurement, consumed by an auto-discovery-capable subscriber
// (Home Assistant's MQTT integration). They are published once per
// power-on and are the largest payloads the node constructs, which is why
// the transport ceiling is validated here at build time.

// DeviceInfo identifies the node in every discovery document.
type DeviceInfo struct {
	ID   string
	Room string
}

// discoveryDoc is the wire form of one measurement registration.
type discoveryDoc struct {
	Name              string    `json:"name"`
	UniqueID          string    `json:"unique_id"`
	StateTopic        string    `json:"state_topic"`
	UnitOfMeasurement string    `json:"unit_of_measurement"`
	DeviceClass       string    `json:"device_class"`
	StateClass        string    `json:"state_class"`
	AvailabilityTopic string    `json:"availability_topic"`
	PayloadAvailable  string    `json:"payload_available"`
	PayloadNotAvail   string    `json:"payload_not_available"`
	ExpireAfter       int       `json:"expire_after"`
	Device            deviceDoc `json:"device"`
}

type deviceDoc struct {
	Identifiers   []string `json:"identifiers"`
	Name          string   `json:"name"`
	Manufacturer  string   `json:"manufacturer"`
	Model         string   `json:"model"`
	SuggestedArea string   `json:"suggested_area,omitempty"`
}

// measurement describes one advertised sensor entity.
type measurement struct {
	key         string
	name        string
	deviceClass string
	stateTopic  func(Topics) string
	unit        func(tempUnit string) string
}

var measurements = []measurement{
	{
		key:         "inside_temp",
		name:        "Inside Temperature",
		deviceClass: "temperature",
		stateTopic:  Topics.InsideTemp,
		unit:        func(u string) string { return u },
	},
	{
		key:         "inside_hum",
		name:        "Inside Humidity",
		deviceClass: "humidity",
		stateTopic:  Topics.InsideHum,
		unit:        func(string) string { return "%" },
	},
	{
		key:         "outside_temp",
		name:        "Outside Temperature",
		deviceClass: "temperature",
		stateTopic:  Topics.OutsideTemp,
		unit:        func(u string) string { return u },
	},
}

// DiscoveryMessages builds every retained discovery document for a device.
// tempUnit is "°C" or "°F"; expireAfter seconds tells the subscriber when
// a value goes stale (typically a few wake intervals).
func DiscoveryMessages(t Topics, dev DeviceInfo, tempUnit string, expireAfter int, limit int) ([]Message, error) {
	out := make([]Message, 0, len(measurements))

	for _, m := range measurements {
		doc := discoveryDoc{
			Name:              m.name,
			UniqueID:          dev.ID + "_" + m.key,
			StateTopic:        m.stateTopic(t),
			UnitOfMeasurement: m.unit(tempUnit),
			DeviceClass:       m.deviceClass,
			StateClass:        "measurement",
			AvailabilityTopic: t.Availability(),
			PayloadAvailable:  PayloadOnline,
			PayloadNotAvail:   PayloadOffline,
			ExpireAfter:       expireAfter,
			Device: deviceDoc{
				Identifiers:   []string{dev.ID},
				Name:          "ESP32 Room Node " + dev.ID,
				Manufacturer:  "jtn0123",
				Model:         "ESP32 e-paper room node",
				SuggestedArea: dev.Room,
			},
		}

		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("publish: discovery encode %s: %w", m.key, err)
		}

		msg, err := NewMessage(t.Discovery(m.key), raw, true, limit)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}
