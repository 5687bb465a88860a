// internal/config/normalize.go
package config

// Defaults applied by Normalize. The wake interval and timeout defaults
// are the field-proven values; zero in the file means "use the default",
// never "zero".
const (
	defaultWakeIntervalS    = 150
	defaultFullRefreshEvery = 12
	defaultMinSleepS        = 5

	defaultJoinTimeoutMs     = 6000
	defaultFastJoinTimeoutMs = 3500
	defaultPollQuantumMs     = 100

	defaultSNTPHost      = "pool.ntp.org"
	defaultSNTPTimeoutMs = 8000

	defaultConnectTimeoutMs = 5000
	defaultPayloadLimit     = 1024

	defaultQueueCapacity = 10
	defaultRetainedPath  = "retained.bin"

	defaultSensorReadMs    = 2000
	defaultRetainedFetchMs = 3000
	defaultDisplayMs       = 5000
	defaultPublishMs       = 4000
)

// Normalize applies post-validation defaulting.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Wake.IntervalS == 0 {
		cfg.Wake.IntervalS = defaultWakeIntervalS
	}
	if cfg.Wake.FullRefreshEvery == 0 {
		cfg.Wake.FullRefreshEvery = defaultFullRefreshEvery
	}
	if cfg.Wake.MinSleepS == 0 {
		cfg.Wake.MinSleepS = defaultMinSleepS
	}

	if cfg.Wifi.JoinTimeoutMs == 0 {
		cfg.Wifi.JoinTimeoutMs = defaultJoinTimeoutMs
	}
	if cfg.Wifi.FastJoinTimeoutMs == 0 {
		cfg.Wifi.FastJoinTimeoutMs = defaultFastJoinTimeoutMs
	}
	if cfg.Wifi.PollQuantumMs == 0 {
		cfg.Wifi.PollQuantumMs = defaultPollQuantumMs
	}

	if cfg.Time.SNTPHost == "" {
		cfg.Time.SNTPHost = defaultSNTPHost
	}
	if cfg.Time.TimeoutMs == 0 {
		cfg.Time.TimeoutMs = defaultSNTPTimeoutMs
	}

	if cfg.MQTT.ConnectTimeoutMs == 0 {
		cfg.MQTT.ConnectTimeoutMs = defaultConnectTimeoutMs
	}
	if cfg.MQTT.PayloadLimit == 0 {
		cfg.MQTT.PayloadLimit = defaultPayloadLimit
	}
	if cfg.MQTT.DiscoveryExpireS == 0 {
		// Values expire after three missed wakes.
		cfg.MQTT.DiscoveryExpireS = 3 * cfg.Wake.IntervalS
	}

	if cfg.Queue.Capacity == 0 {
		cfg.Queue.Capacity = defaultQueueCapacity
	}
	if cfg.Retained.Path == "" {
		cfg.Retained.Path = defaultRetainedPath
	}

	if cfg.Budgets.SensorReadMs == 0 {
		cfg.Budgets.SensorReadMs = defaultSensorReadMs
	}
	if cfg.Budgets.RetainedFetchMs == 0 {
		cfg.Budgets.RetainedFetchMs = defaultRetainedFetchMs
	}
	if cfg.Budgets.DisplayMs == 0 {
		cfg.Budgets.DisplayMs = defaultDisplayMs
	}
	if cfg.Budgets.PublishMs == 0 {
		cfg.Budgets.PublishMs = defaultPublishMs
	}

	if cfg.Sensor.Source == "" {
		cfg.Sensor.Source = "none"
	}
	if cfg.Sensor.Source == "modbus" && cfg.Sensor.Modbus.Mode == "" {
		cfg.Sensor.Modbus.Mode = "tcp"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
