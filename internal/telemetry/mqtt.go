package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultMQTTTopic is used when no topic is configured.
const DefaultMQTTTopic = "bots/telemetry"

var ErrPublishTimeout = errors.New("telemetry: mqtt publish timed out")

// publisher is the part of mqtt.Client used here.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTClient publishes events as JSON to an MQTT topic.
type MQTTClient struct {
	pub     publisher
	topic   string
	key     string
	qos     byte
	timeout time.Duration
}

// MQTTOptions configures DialMQTT.
type MQTTOptions struct {
	Broker             string
	ClientID           string
	Topic              string
	InstrumentationKey string
	QoS                byte
	// Timeout bounds connect and every publish. Zero means 5s.
	Timeout time.Duration
}

// DialMQTT connects to the broker and returns a client publishing to the
// configured topic.
func DialMQTT(opts MQTTOptions) (*MQTTClient, error) {
	if opts.Broker == "" {
		return nil, errors.New("telemetry: mqtt broker is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetKeepAlive(60 * time.Second)
	co.SetPingTimeout(10 * time.Second)
	co.SetAutoReconnect(true)
	co.SetConnectTimeout(opts.Timeout)

	client := mqtt.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(opts.Timeout) {
		return nil, fmt.Errorf("telemetry: connect to %s: timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("telemetry: connect to %s: %w", opts.Broker, err)
	}

	return newMQTTClient(client, opts), nil
}

func newMQTTClient(pub publisher, opts MQTTOptions) *MQTTClient {
	if opts.Topic == "" {
		opts.Topic = DefaultMQTTTopic
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &MQTTClient{
		pub:     pub,
		topic:   opts.Topic,
		key:     opts.InstrumentationKey,
		qos:     opts.QoS,
		timeout: opts.Timeout,
	}
}

// TrackEvent publishes e and waits for the broker acknowledgement.
func (c *MQTTClient) TrackEvent(ctx context.Context, e Event) error {
	if e.InstrumentationKey == "" {
		e.InstrumentationKey = c.key
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("telemetry: encode event %s: %w", e.Name, err)
	}

	token := c.pub.Publish(c.topic, c.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.timeout):
		return ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", e.Name, err)
	}
	return nil
}

// Close disconnects from the broker when the publisher is a full client.
func (c *MQTTClient) Close() {
	if client, ok := c.pub.(mqtt.Client); ok {
		client.Disconnect(250)
	}
}
