package relay

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/auton88n/workforce/internal/config"
)

// MQTT publishes operator broadcasts to a single MQTT topic. The
// connection is managed by autopaho, which reconnects in the
// background. Publish blocks while disconnected, so Send caps each
// attempt with a short timeout; a broadcast that cannot go out in that
// window is dropped, matching the relay's best-effort contract.
type MQTT struct {
	cfg    config.RelayConfig
	logger *slog.Logger
	cm     *autopaho.ConnectionManager
}

// broadcastPayload is the wire shape published to the operator topic.
type broadcastPayload struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// NewMQTT creates an MQTT relay but does not connect. Call
// [MQTT.Start] to begin the connection.
func NewMQTT(cfg config.RelayConfig, logger *slog.Logger) *MQTT {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTT{
		cfg:    cfg,
		logger: logger.With("component", "relay"),
	}
}

// Start connects to the MQTT broker. The connection lives until ctx is
// cancelled; autopaho keeps retrying in the background after transient
// failures.
func (m *MQTT) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(m.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse relay broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: m.cfg.Username,
		ConnectPassword: []byte(m.cfg.Password),
		OnConnectionUp: func(_ *autopaho.ConnectionManager, _ *paho.Connack) {
			m.logger.Info("relay connected to broker", "broker", m.cfg.Broker)
		},
		OnConnectError: func(err error) {
			m.logger.Warn("relay connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: m.cfg.ClientID,
		},
	}

	// Enable TLS for mqtts:// or ssl:// schemes.
	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("relay connect: %w", err)
	}
	m.cm = cm

	// Wait briefly for the initial connection. Failure is logged, not
	// fatal; autopaho retries and the relay is best-effort anyway.
	connCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cm.AwaitConnection(connCtx); err != nil {
		m.logger.Warn("relay initial connection timed out, will retry in background", "error", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (m *MQTT) Stop(ctx context.Context) error {
	if m.cm == nil {
		return nil
	}
	return m.cm.Disconnect(ctx)
}

// sendTimeout bounds a single publish attempt. autopaho's Publish
// waits for a connection, so without this a Send during an outage
// would hang until the caller's ctx expired.
const sendTimeout = 5 * time.Second

// Send publishes one broadcast to the operator topic at QoS 1.
func (m *MQTT) Send(ctx context.Context, text string) error {
	if m.cm == nil {
		return fmt.Errorf("relay not started")
	}

	payload, err := json.Marshal(broadcastPayload{Text: text, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err = m.cm.Publish(ctx, &paho.Publish{
		Topic:   m.cfg.Topic,
		QoS:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("relay publish: %w", err)
	}
	return nil
}
