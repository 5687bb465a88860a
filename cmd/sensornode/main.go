// cmd/sensornode/main.go
package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/boot"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/budget"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/config"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/cycle"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/publish"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/retained"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/sensor"
	smodbus "github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/sensor/modbus"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/timesync"
	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/wifi"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: sensornode <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	logger, err := diag.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// --------------------
	// Build collaborators
	// --------------------

	store := retained.NewStore(cfg.Retained.Path, cfg.Queue.Capacity, logger)

	reader, closeReader, err := buildReader(cfg.Sensor)
	if err != nil {
		log.Fatalf("sensor build failed: %v", err)
	}
	defer closeReader()

	radio := &hostRadio{}
	syncer := timesync.New(
		cfg.Time.SNTPHost,
		time.Duration(cfg.Time.TimeoutMs)*time.Millisecond,
		logger,
	)
	topics := publish.NewTopics(cfg.Node.DeviceID)

	mqttCfg := publish.Config{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.MQTT.ClientID,
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		QoS:            cfg.MQTT.QoS,
		ConnectTimeout: time.Duration(cfg.MQTT.ConnectTimeoutMs) * time.Millisecond,
		PayloadLimit:   cfg.MQTT.PayloadLimit,
	}

	// --------------------
	// Controller
	// --------------------

	ctrl := cycle.New(
		cycle.Config{
			Device:           publish.DeviceInfo{ID: cfg.Node.DeviceID, Room: cfg.Node.Room},
			WakeInterval:     time.Duration(cfg.Wake.IntervalS) * time.Second,
			SleepFloor:       time.Duration(cfg.Wake.MinSleepS) * time.Second,
			FullRefreshEvery: uint32(cfg.Wake.FullRefreshEvery),
			SleepDisabled:    cfg.Wake.SleepDisabled,
			QueueCapacity:    cfg.Queue.Capacity,
			PayloadLimit:     cfg.MQTT.PayloadLimit,
			ExpireAfter:      cfg.MQTT.DiscoveryExpireS,
			Fahrenheit:       cfg.MQTT.Fahrenheit,
			OutsideTopic:     cfg.MQTT.OutsideTopic,
			Budgets: map[budget.Phase]time.Duration{
				budget.SensorRead:    time.Duration(cfg.Budgets.SensorReadMs) * time.Millisecond,
				budget.RetainedFetch: time.Duration(cfg.Budgets.RetainedFetchMs) * time.Millisecond,
				budget.Display:       time.Duration(cfg.Budgets.DisplayMs) * time.Millisecond,
				budget.Publish:       time.Duration(cfg.Budgets.PublishMs) * time.Millisecond,
			},
		},
		cycle.Deps{
			Store:  store,
			Reader: reader,
			Join: func(ctx context.Context, cache *retained.WifiCache) wifi.JoinRecord {
				mgr := wifi.NewManager(wifi.Config{
					SSID:            cfg.Wifi.SSID,
					OverallTimeout:  time.Duration(cfg.Wifi.JoinTimeoutMs) * time.Millisecond,
					FastJoinTimeout: time.Duration(cfg.Wifi.FastJoinTimeoutMs) * time.Millisecond,
					PollQuantum:     time.Duration(cfg.Wifi.PollQuantumMs) * time.Millisecond,
				}, radio, cache, logger)
				return mgr.Join(ctx)
			},
			Sync: syncer.Sync,
			Connect: func(ctx context.Context) (cycle.Publisher, error) {
				return publish.Connect(mqttCfg, topics, logger)
			},
			Causes: func(fresh bool) (boot.ResetCause, boot.WakeCause) {
				// The host maps a missing retained record to a power-on
				// reset; every episode with surviving state is a timer
				// wake from deep sleep.
				if fresh {
					return boot.ResetPowerOn, boot.WakeUndefined
				}
				return boot.ResetDeepSleep, boot.WakeTimer
			},
			Log: logger,
		},
	)

	if err := ctrl.Run(ctx, timerSleeper{}); err != nil && err != context.Canceled {
		logger.Errorf("run ended: %v", err)
	}
}

// buildReader maps the sensor source to a driver. The returned close func
// is always safe to call.
func buildReader(cfg config.SensorConfig) (sensor.Reader, func(), error) {
	switch cfg.Source {
	case "modbus":
		r, err := smodbus.New(smodbus.Config{
			Mode:         cfg.Modbus.Mode,
			Endpoint:     cfg.Modbus.Endpoint,
			SlaveID:      cfg.Modbus.SlaveID,
			Timeout:      time.Duration(cfg.Modbus.TimeoutMs) * time.Millisecond,
			BaudRate:     cfg.Modbus.BaudRate,
			TempRegister: cfg.Modbus.TempRegister,
			HumRegister:  cfg.Modbus.HumRegister,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return noReader{}, func() {}, nil
	}
}

// noReader is the "none" sensor source: never yields data, never errors.
type noReader struct{}

func (noReader) Read() (sensor.Reading, error) {
	return sensor.Reading{At: time.Now()}, nil
}

// hostRadio satisfies the radio contract on a host whose network is managed
// by the OS: association is instantaneous and status reflects the primary
// outbound interface.
type hostRadio struct{}

func (hostRadio) AssociateBSSID(string, [6]byte, uint8) error { return nil }
func (hostRadio) AssociateSSID(string) error                  { return nil }
func (hostRadio) Disconnect() error                           { return nil }

func (hostRadio) Status() wifi.Status {
	ip := outboundIP()
	return wifi.Status{
		Connected: ip != nil,
		IP:        ip,
		Channel:   1,
	}
}

// outboundIP resolves the interface address the OS would route through.
// UDP dial assigns a local address without sending anything.
func outboundIP() net.IP {
	conn, err := net.Dial("udp", "192.0.2.1:9")
	if err != nil {
		return nil
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}

// timerSleeper is the host deep-sleep stand-in.
type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
