// internal/publish/client.go
package publish

import (
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jtn0123/ESP32-Temp-Sensor-sub001/internal/diag"
)

// Config is the broker connection config.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte

	ConnectTimeout time.Duration
	PayloadLimit   int
}

// Client wraps the MQTT transport. The last-will is the retained offline
// availability marker, so an unclean death still flips the device to
// offline for subscribers.
type Client struct {
	cli    mqtt.Client
	cfg    Config
	topics Topics
	log    *diag.Logger
}

var errNotConnected = errors.New("publish: not connected")

// Connect dials the broker within the connect timeout. A nil error means
// the publish channel is confirmed and draining may begin.
func Connect(cfg Config, topics Topics, log *diag.Logger) (*Client, error) {
	if cfg.Broker == "" {
		return nil, errors.New("publish: broker required")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "espsensor-" + uuid.NewString()[:8]
	}

	will, err := AvailabilityMessage(topics, false, cfg.PayloadLimit)
	if err != nil {
		return nil, err
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false) // the cycle reconnects per wake, not paho
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetBinaryWill(will.Topic, will.Payload, cfg.QoS, true)

	cli := mqtt.NewClient(opts)

	token := cli.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("publish: connect to %s timed out", cfg.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("publish: connect to %s: %w", cfg.Broker, token.Error())
	}

	return &Client{cli: cli, cfg: cfg, topics: topics, log: log}, nil
}

// Send delivers one constructed message, waiting at most wait for the
// broker acknowledgement. The wait is cooperative: on timeout the attempt
// is abandoned logically and the caller routes the sample to the offline
// queue.
func (c *Client) Send(m Message, wait time.Duration) error {
	if c == nil || !c.cli.IsConnected() {
		return errNotConnected
	}
	token := c.cli.Publish(m.Topic, c.cfg.QoS, m.Retained, m.Payload)
	if !token.WaitTimeout(wait) {
		return fmt.Errorf("publish: %s not acked within %dms", m.Topic, wait.Milliseconds())
	}
	if token.Error() != nil {
		return fmt.Errorf("publish: %s: %w", m.Topic, token.Error())
	}
	return nil
}

// FetchRetained waits up to wait for the retained payload on a topic.
// Used for the cached "outside" reading; no payload within the budget is
// reported as an error and the caller shows last-known data.
func (c *Client) FetchRetained(topic string, wait time.Duration) ([]byte, error) {
	if c == nil || !c.cli.IsConnected() {
		return nil, errNotConnected
	}

	got := make(chan []byte, 1)
	token := c.cli.Subscribe(topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case got <- msg.Payload():
		default:
		}
	})
	if !token.WaitTimeout(wait) || token.Error() != nil {
		return nil, fmt.Errorf("publish: subscribe %s failed", topic)
	}
	defer func() {
		t := c.cli.Unsubscribe(topic)
		t.WaitTimeout(time.Second)
	}()

	select {
	case payload := <-got:
		return payload, nil
	case <-time.After(wait):
		return nil, fmt.Errorf("publish: no retained payload on %s within %dms",
			topic, wait.Milliseconds())
	}
}

// IsConnected reports whether the publish channel is up.
func (c *Client) IsConnected() bool {
	return c != nil && c.cli.IsConnected()
}

// Close announces offline and disconnects cleanly. Diagnostic cycles keep
// the connection open instead, for inspection.
func (c *Client) Close(announceOffline bool) {
	if c == nil {
		return
	}
	if announceOffline && c.cli.IsConnected() {
		if m, err := AvailabilityMessage(c.topics, false, c.cfg.PayloadLimit); err == nil {
			t := c.cli.Publish(m.Topic, c.cfg.QoS, m.Retained, m.Payload)
			t.WaitTimeout(time.Second)
		}
	}
	c.cli.Disconnect(250)
}
