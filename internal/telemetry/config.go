package telemetry

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/SaratA8717/Botbuilder-samples/internal/config"
)

// NewFromConfig builds the telemetry client described by cfg: events are
// always logged, and also published over MQTT when a broker is configured.
// The returned close function releases the broker connection.
func NewFromConfig(cfg config.TelemetryConfig, logger *slog.Logger) (Client, func(), error) {
	logClient := NewLogClient(logger, cfg.InstrumentationKey)
	if cfg.MQTTBroker == "" {
		return logClient, func() {}, nil
	}

	mqttClient, err := DialMQTT(MQTTOptions{
		Broker:             cfg.MQTTBroker,
		ClientID:           "bot-telemetry-" + uuid.NewString()[:8],
		Topic:              cfg.MQTTTopic,
		InstrumentationKey: cfg.InstrumentationKey,
		QoS:                cfg.MQTTQoS,
	})
	if err != nil {
		return nil, nil, err
	}
	return Multi{logClient, mqttClient}, mqttClient.Close, nil
}

// NewMiddlewareFromConfig wraps NewFromConfig into a LoggerMiddleware with the
// configured personal data switches.
func NewMiddlewareFromConfig(cfg config.TelemetryConfig, logger *slog.Logger) (*LoggerMiddleware, func(), error) {
	client, closeFn, err := NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	mw := NewLoggerMiddleware(client,
		WithOriginalMessage(cfg.LogOriginalMessage),
		WithUserName(cfg.LogUserName),
		WithLogger(logger),
	)
	return mw, closeFn, nil
}
