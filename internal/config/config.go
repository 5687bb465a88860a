// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Node     NodeConfig     `yaml:"node"`
	Wifi     WifiConfig     `yaml:"wifi"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Time     TimeConfig     `yaml:"time"`
	Sensor   SensorConfig   `yaml:"sensor"`
	Wake     WakeConfig     `yaml:"wake"`
	Budgets  BudgetConfig   `yaml:"budgets"`
	Queue    QueueConfig    `yaml:"queue"`
	Retained RetainedConfig `yaml:"retained"`
	Log      LogConfig      `yaml:"log"`
}

// ---- NODE ----

type NodeConfig struct {
	DeviceID string `yaml:"device_id"`
	Room     string `yaml:"room"`
}

// ---- WIFI ----

type WifiConfig struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`

	JoinTimeoutMs     int `yaml:"join_timeout_ms"`
	FastJoinTimeoutMs int `yaml:"fast_join_timeout_ms"`
	PollQuantumMs     int `yaml:"poll_quantum_ms"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      uint8  `yaml:"qos"`

	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`

	// PayloadLimit is the transport ceiling every constructed message is
	// validated against. Deliberately larger than the conservative
	// 256-byte protocol default; discovery documents need the room.
	PayloadLimit int `yaml:"payload_limit"`

	// OutsideTopic carries the retained remote reading; empty disables it.
	OutsideTopic string `yaml:"outside_topic"`

	Fahrenheit       bool `yaml:"fahrenheit"`
	DiscoveryExpireS int  `yaml:"discovery_expire_s"`
}

// ---- TIME ----

type TimeConfig struct {
	SNTPHost  string `yaml:"sntp_host"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SENSOR ----

type SensorConfig struct {
	// Source selects the local sensor driver. "modbus" is the wired
	// temp/RH probe; "none" runs without a local sensor.
	Source string       `yaml:"source"`
	Modbus ModbusConfig `yaml:"modbus"`
}

type ModbusConfig struct {
	Mode     string `yaml:"mode"` // "tcp" or "rtu"
	Endpoint string `yaml:"endpoint"`
	SlaveID  uint8  `yaml:"slave_id"`

	TimeoutMs int `yaml:"timeout_ms"`
	BaudRate  int `yaml:"baud_rate"`

	TempRegister uint16 `yaml:"temp_register"`
	HumRegister  uint16 `yaml:"hum_register"`
}

// ---- WAKE ----

type WakeConfig struct {
	IntervalS        int  `yaml:"interval_s"`
	FullRefreshEvery int  `yaml:"full_refresh_every"`
	MinSleepS        int  `yaml:"min_sleep_s"`
	SleepDisabled    bool `yaml:"sleep_disabled"`
}

// ---- BUDGETS ----

type BudgetConfig struct {
	SensorReadMs    int `yaml:"sensor_read_ms"`
	RetainedFetchMs int `yaml:"retained_fetch_ms"`
	DisplayMs       int `yaml:"display_ms"`
	PublishMs       int `yaml:"publish_ms"`
}

// ---- QUEUE ----

type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// ---- RETAINED ----

type RetainedConfig struct {
	Path string `yaml:"path"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML config file. Validation and normalization
// are separate, explicit steps.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
