// Package telemetry records bot activity events and ships them to one or
// more sinks.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Event names tracked by LoggerMiddleware.
const (
	EventMessageReceived = "BotMessageReceived"
	EventMessageSend     = "BotMessageSend"
)

// Property names attached to tracked events.
const (
	PropActivityID       = "activityId"
	PropChannelID        = "channelId"
	PropConversationID   = "conversationId"
	PropConversationName = "conversationName"
	PropFromID           = "fromId"
	PropFromName         = "fromName"
	PropRecipientID      = "recipientId"
	PropRecipientName    = "recipientName"
	PropLocale           = "locale"
	PropText             = "text"
	PropReplyToID        = "replyActivityId"
	PropAttachments      = "attachments"
)

// Event is one telemetry record.
type Event struct {
	Name               string            `json:"name"`
	Properties         map[string]string `json:"properties,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
	InstrumentationKey string            `json:"iKey,omitempty"`
}

// Client receives telemetry events.
type Client interface {
	TrackEvent(ctx context.Context, e Event) error
}

// Noop discards every event.
type Noop struct{}

// TrackEvent does nothing.
func (Noop) TrackEvent(context.Context, Event) error { return nil }

// LogClient writes events to a structured logger.
type LogClient struct {
	logger *slog.Logger
	key    string
}

// NewLogClient creates a client logging through logger. key is recorded as
// the instrumentation key of every event.
func NewLogClient(logger *slog.Logger, key string) *LogClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogClient{logger: logger, key: key}
}

// TrackEvent logs e at info level.
func (c *LogClient) TrackEvent(ctx context.Context, e Event) error {
	attrs := make([]any, 0, len(e.Properties)+2)
	attrs = append(attrs, slog.String("event", e.Name))
	if c.key != "" {
		attrs = append(attrs, slog.String("ikey", c.key))
	}
	props := make([]any, 0, len(e.Properties))
	for k, v := range e.Properties {
		props = append(props, slog.String(k, v))
	}
	attrs = append(attrs, slog.Group("properties", props...))
	c.logger.InfoContext(ctx, "telemetry event", attrs...)
	return nil
}

// Multi fans an event out to every client and joins their errors.
type Multi []Client

// TrackEvent forwards e to every client.
func (m Multi) TrackEvent(ctx context.Context, e Event) error {
	var errs []error
	for _, c := range m {
		if c == nil {
			continue
		}
		if err := c.TrackEvent(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
