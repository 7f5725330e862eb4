package telemetry

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// LoggerMiddleware tracks every inbound activity and every outbound
// activity sent during the turn. Personal data is left out unless enabled.
type LoggerMiddleware struct {
	client             Client
	logger             *slog.Logger
	logOriginalMessage bool
	logUserName        bool
	now                func() time.Time
}

// MiddlewareOption configures LoggerMiddleware.
type MiddlewareOption func(m *LoggerMiddleware)

// WithOriginalMessage includes the message text in tracked events.
func WithOriginalMessage(enabled bool) MiddlewareOption {
	return func(m *LoggerMiddleware) { m.logOriginalMessage = enabled }
}

// WithUserName includes the sender name in tracked events.
func WithUserName(enabled bool) MiddlewareOption {
	return func(m *LoggerMiddleware) { m.logUserName = enabled }
}

// WithLogger sets the logger used to report sink failures.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *LoggerMiddleware) { m.logger = logger }
}

// NewLoggerMiddleware creates the middleware. A nil client tracks nothing.
func NewLoggerMiddleware(client Client, opts ...MiddlewareOption) *LoggerMiddleware {
	if client == nil {
		client = Noop{}
	}
	m := &LoggerMiddleware{client: client, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// OnTurn implements bot.Middleware.
func (m *LoggerMiddleware) OnTurn(ctx context.Context, tc *bot.TurnContext, next func(ctx context.Context) error) error {
	m.track(ctx, EventMessageReceived, m.receivedProperties(tc.Activity()))

	tc.OnSendActivities(func(ctx context.Context, _ *bot.TurnContext, acts []*activity.Activity) error {
		for _, a := range acts {
			m.track(ctx, EventMessageSend, m.sendProperties(a))
		}
		return nil
	})

	return next(ctx)
}

// track never fails the turn; sink errors are only logged.
func (m *LoggerMiddleware) track(ctx context.Context, name string, props map[string]string) {
	err := m.client.TrackEvent(ctx, Event{Name: name, Properties: props, Timestamp: m.now().UTC()})
	if err != nil {
		m.logger.WarnContext(ctx, "telemetry event dropped", "event", name, "error", err)
	}
}

func (m *LoggerMiddleware) receivedProperties(a *activity.Activity) map[string]string {
	props := map[string]string{
		PropActivityID:       a.ID,
		PropChannelID:        a.ChannelID,
		PropConversationID:   a.Conversation.ID,
		PropConversationName: a.Conversation.Name,
		PropFromID:           a.From.ID,
		PropRecipientID:      a.Recipient.ID,
		PropRecipientName:    a.Recipient.Name,
		PropLocale:           a.Locale,
	}
	if m.logUserName && a.From.Name != "" {
		props[PropFromName] = a.From.Name
	}
	if m.logOriginalMessage && a.Text != "" {
		props[PropText] = a.Text
	}
	return props
}

func (m *LoggerMiddleware) sendProperties(a *activity.Activity) map[string]string {
	props := map[string]string{
		PropActivityID:       a.ID,
		PropChannelID:        a.ChannelID,
		PropConversationID:   a.Conversation.ID,
		PropConversationName: a.Conversation.Name,
		PropReplyToID:        a.ReplyToID,
		PropRecipientID:      a.Recipient.ID,
		PropLocale:           a.Locale,
	}
	if m.logUserName && a.Recipient.Name != "" {
		props[PropRecipientName] = a.Recipient.Name
	}
	if m.logOriginalMessage && a.Text != "" {
		props[PropText] = a.Text
	}
	if n := len(a.Attachments); n > 0 {
		props[PropAttachments] = strconv.Itoa(n)
	}
	return props
}
