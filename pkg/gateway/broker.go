package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Broker is the MQTT side of the bridge.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, h func(topic string, payload []byte)) error
}

// ConnectConfig configures Connect.
type ConnectConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string

	// MaxRetries bounds the connection attempts after the first one.
	MaxRetries uint64

	// MaxElapsed bounds the total time spent connecting. Zero means the
	// backoff default.
	MaxElapsed time.Duration

	// ConnectTimeout bounds one attempt.
	ConnectTimeout time.Duration

	// Will is published by the broker if the bridge disappears.
	WillTopic   string
	WillPayload string

	Logger *slog.Logger
}

// Connection defaults.
const (
	DefaultClientID       = "mesh-gateway"
	DefaultMaxRetries     = 4
	DefaultConnectTimeout = 5 * time.Second
	DisconnectQuiesce     = 250
)

// ErrNoBroker is returned by Connect without a broker URL.
var ErrNoBroker = errors.New("gateway: broker url required")

// MQTTBroker is a Broker over a paho client.
type MQTTBroker struct {
	client mqtt.Client
	logger *slog.Logger
}

// Connect dials the broker, retrying with exponential backoff until it
// accepts the connection, retries run out or ctx is done.
func Connect(ctx context.Context, cfg ConnectConfig) (*MQTTBroker, error) {
	if cfg.Broker == "" {
		return nil, ErrNoBroker
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	if cfg.WillTopic != "" {
		opts.SetWill(cfg.WillTopic, cfg.WillPayload, 1, true)
	}

	bo := backoff.NewExponentialBackOff()
	if cfg.MaxElapsed > 0 {
		bo.MaxElapsedTime = cfg.MaxElapsed
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		token := client.Connect()
		if !token.WaitTimeout(cfg.ConnectTimeout) {
			return fmt.Errorf("connect to %s: timeout", cfg.Broker)
		}
		if err := token.Error(); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("mqtt connect failed", "broker", cfg.Broker, "error", err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, cfg.MaxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("connected to mqtt broker", "broker", cfg.Broker, "client_id", cfg.ClientID)
	}
	return &MQTTBroker{client: client, logger: cfg.Logger}, nil
}

// Publish sends payload at QoS 0.
func (b *MQTTBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return wait(ctx, b.client.Publish(topic, 0, false, payload))
}

// Subscribe routes messages on topic to h until Close.
func (b *MQTTBroker) Subscribe(ctx context.Context, topic string, h func(topic string, payload []byte)) error {
	token := b.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	})
	if err := wait(ctx, token); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	if b.logger != nil {
		b.logger.Info("subscribed", "topic", topic)
	}
	return nil
}

// Close disconnects from the broker.
func (b *MQTTBroker) Close() {
	if b.client.IsConnected() {
		b.client.Disconnect(DisconnectQuiesce)
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
