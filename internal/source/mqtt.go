package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"ttnrec/internal/logging"
)

// MQTTConfig holds the MQTT source configuration. Broker and Topic are
// required; ClientID defaults to a uuid-suffixed name so two recorders on
// the same broker don't kick each other off.
type MQTTConfig struct {
	Broker   string // e.g. tcp://eu1.cloud.thethings.network:1883
	Topic    string // uplink topic, may contain wildcards
	ClientID string
	Username string
	Password string
	Logger   *slog.Logger
}

// MQTT receives uplink lines from an MQTT broker, the network's native
// delivery path. Inbound messages are buffered on a channel; Next hands them
// to the strictly sequential pipeline one at a time.
type MQTT struct {
	client mqtt.Client
	topic  string
	lines  chan []byte
	done   chan struct{}
	logger *slog.Logger
}

// NewMQTT validates cfg and builds the client. No connection is made until
// Connect.
func NewMQTT(cfg MQTTConfig) (*MQTT, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt source: broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt source: topic is required")
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "ttnrec-" + uuid.NewString()[:8]
	}

	m := &MQTT{
		topic:  cfg.Topic,
		lines:  make(chan []byte, 64),
		done:   make(chan struct{}),
		logger: logging.Default(cfg.Logger).With("component", "source", "type", "mqtt"),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	// Resubscribe on every (re)connect; subscriptions don't survive a
	// clean-session reconnect.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(m.topic, 1, m.handle)
		token.Wait()
		if err := token.Error(); err != nil {
			m.logger.Error("subscribe failed", "topic", m.topic, "error", err)
			return
		}
		m.logger.Info("subscribed", "topic", m.topic)
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		m.logger.Warn("connection lost", "error", err)
	})

	m.client = mqtt.NewClient(opts)
	return m, nil
}

// Connect establishes the broker session. The OnConnect handler performs the
// subscription.
func (m *MQTT) Connect() error {
	token := m.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (m *MQTT) handle(_ mqtt.Client, msg mqtt.Message) {
	// Copy: paho reuses the packet buffer after the handler returns.
	line := make([]byte, len(msg.Payload()))
	copy(line, msg.Payload())
	select {
	case m.lines <- line:
	case <-m.done:
	}
}

// Next blocks until a message arrives or ctx is cancelled. An MQTT stream
// has no end of input, so Next never returns io.EOF.
func (m *MQTT) Next(ctx context.Context) ([]byte, error) {
	select {
	case line := <-m.lines:
		return line, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *MQTT) Close() error {
	close(m.done)
	m.client.Disconnect(250)
	return nil
}
