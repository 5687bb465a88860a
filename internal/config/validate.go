// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	// ------------------------------------------------------------
	// NODE IDENTITY
	// ------------------------------------------------------------

	if cfg.Node.DeviceID == "" {
		return fmt.Errorf("node: device_id is required")
	}
	for i := 0; i < len(cfg.Node.DeviceID); i++ {
		c := cfg.Node.DeviceID[i]
		ok := c == '-' || c == '_' ||
			(c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z')
		if !ok {
			return fmt.Errorf(
				"node: device_id %q: topic-safe characters only (alnum, '-', '_')",
				cfg.Node.DeviceID,
			)
		}
	}

	// ------------------------------------------------------------
	// NETWORK
	// ------------------------------------------------------------

	if cfg.Wifi.SSID == "" {
		return fmt.Errorf("wifi: ssid is required")
	}
	if cfg.Wifi.FastJoinTimeoutMs < 0 || cfg.Wifi.JoinTimeoutMs < 0 {
		return fmt.Errorf("wifi: timeouts must not be negative")
	}
	if cfg.Wifi.JoinTimeoutMs > 0 && cfg.Wifi.FastJoinTimeoutMs > cfg.Wifi.JoinTimeoutMs {
		return fmt.Errorf(
			"wifi: fast_join_timeout_ms (%d) exceeds join_timeout_ms (%d)",
			cfg.Wifi.FastJoinTimeoutMs, cfg.Wifi.JoinTimeoutMs,
		)
	}

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos %d out of range (0-2)", cfg.MQTT.QoS)
	}
	if cfg.MQTT.PayloadLimit != 0 && cfg.MQTT.PayloadLimit < 256 {
		return fmt.Errorf(
			"mqtt: payload_limit %d below the 256-byte minimum",
			cfg.MQTT.PayloadLimit,
		)
	}

	// ------------------------------------------------------------
	// SENSOR SOURCE
	// ------------------------------------------------------------

	switch cfg.Sensor.Source {
	case "", "none":
		// No local sensor; outside-only deployments are valid.
	case "modbus":
		m := cfg.Sensor.Modbus
		if m.Endpoint == "" {
			return fmt.Errorf("sensor: modbus endpoint is required")
		}
		switch m.Mode {
		case "", "tcp", "rtu":
		default:
			return fmt.Errorf("sensor: unknown modbus mode %q", m.Mode)
		}
		if m.TempRegister == m.HumRegister {
			return fmt.Errorf(
				"sensor: temp_register and hum_register collide at %d",
				m.TempRegister,
			)
		}
	default:
		return fmt.Errorf("sensor: unknown source %q", cfg.Sensor.Source)
	}

	// ------------------------------------------------------------
	// CYCLE SHAPE
	// ------------------------------------------------------------

	if cfg.Wake.IntervalS < 0 {
		return fmt.Errorf("wake: interval_s must not be negative")
	}
	if cfg.Queue.Capacity < 0 {
		return fmt.Errorf("queue: capacity must not be negative")
	}
	for name, v := range map[string]int{
		"sensor_read_ms":    cfg.Budgets.SensorReadMs,
		"retained_fetch_ms": cfg.Budgets.RetainedFetchMs,
		"display_ms":        cfg.Budgets.DisplayMs,
		"publish_ms":        cfg.Budgets.PublishMs,
	} {
		if v < 0 {
			return fmt.Errorf("budgets: %s must not be negative", name)
		}
	}

	return nil
}
