// internal/sensor/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/sensor"
)

// Reader reads temperature and humidity from a Modbus temp/RH probe
// (XY-MD02 class: signed tenths of a unit in two input registers).
type Reader struct {
	client modbus.Client
	closer interface{ Close() error }
	cfg    Config
}

// Config is the probe's transport and register geometry.
type Config struct {
	// Mode selects the transport: "tcp" or "rtu".
	Mode string

	// Endpoint is host:port for tcp, the serial device path for rtu.
	Endpoint string

	SlaveID  byte
	Timeout  time.Duration
	BaudRate int // rtu only; 0 = 9600

	// TempRegister and HumRegister are input-register addresses holding
	// value*10 as a signed 16-bit quantity.
	TempRegister uint16
	HumRegister  uint16
}

// New creates a connected reader.
func New(cfg Config) (*Reader, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus sensor: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	switch cfg.Mode {
	case "tcp":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.SlaveID
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("modbus sensor: connect %s: %w", cfg.Endpoint, err)
		}
		return &Reader{client: modbus.NewClient(h), closer: h, cfg: cfg}, nil

	case "rtu":
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.SlaveID
		h.BaudRate = cfg.BaudRate
		if h.BaudRate == 0 {
			h.BaudRate = 9600
		}
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("modbus sensor: open %s: %w", cfg.Endpoint, err)
		}
		return &Reader{client: modbus.NewClient(h), closer: h, cfg: cfg}, nil

	default:
		return nil, fmt.Errorf("modbus sensor: unknown mode %q", cfg.Mode)
	}
}

// Close releases the transport.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Read fetches both values. A partially failed read still returns whatever
// was obtained; only a fully empty read is an error.
func (r *Reader) Read() (sensor.Reading, error) {
	out := sensor.Reading{At: time.Now()}

	var firstErr error

	if v, err := r.readTenths(r.cfg.TempRegister); err != nil {
		firstErr = err
	} else {
		out.TempC = &v
	}

	if v, err := r.readTenths(r.cfg.HumRegister); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		out.RHPct = &v
	}

	if !out.HasData() {
		return out, fmt.Errorf("modbus sensor: read failed: %w", firstErr)
	}
	return out, nil
}

// readTenths reads one input register holding a signed value*10.
func (r *Reader) readTenths(addr uint16) (float64, error) {
	raw, err := r.client.ReadInputRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	if len(raw) < 2 {
		return 0, errors.New("modbus sensor: short response")
	}
	return float64(int16(binary.BigEndian.Uint16(raw[:2]))) / 10.0, nil
}
