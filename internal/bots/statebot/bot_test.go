package statebot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
	"github.com/SaratA8717/Botbuilder-samples/internal/telemetry"
)

type recordingClient struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (c *recordingClient) TrackEvent(_ context.Context, e telemetry.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

type harness struct {
	storage *state.MemoryStorage
	bot     *Bot
	adapter *bot.Adapter
	client  *recordingClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	storage := state.NewMemoryStorage()
	conv, err := state.NewConversationState(storage)
	require.NoError(t, err)
	user, err := state.NewUserState(storage)
	require.NoError(t, err)
	b, err := New(conv, user, nil)
	require.NoError(t, err)
	b.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	client := &recordingClient{}
	adapter := bot.NewAdapter().Use(telemetry.NewLoggerMiddleware(client,
		telemetry.WithOriginalMessage(true), telemetry.WithUserName(true)))
	return &harness{storage: storage, bot: b, adapter: adapter, client: client}
}

func message(conversation, text string) *activity.Activity {
	return &activity.Activity{
		Type:         activity.TypeMessage,
		ID:           "in-" + text,
		ChannelID:    "test",
		Conversation: activity.ConversationAccount{ID: conversation},
		From:         activity.ChannelAccount{ID: "user-1", Name: "Ada"},
		Recipient:    activity.ChannelAccount{ID: "bot"},
		Text:         text,
	}
}

func (h *harness) send(t *testing.T, act *activity.Activity) []string {
	t.Helper()
	sink := &bot.BufferedSink{}
	require.NoError(t, h.adapter.ProcessActivity(context.Background(), act, sink, h.bot.OnTurn))
	var out []string
	for _, a := range sink.Activities() {
		out = append(out, a.Text)
	}
	return out
}

func TestAsksForNameOnceAndRemembersIt(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, []string{AskNameText}, h.send(t, message("conv-1", "hi")))
	require.Equal(t, []string{"Thanks Ada. To see conversation data, type anything."}, h.send(t, message("conv-1", "Ada")))
	require.Equal(t, []string{"Ada sent: hello\nMessage received at: 2024-05-01T12:00:00Z\nMessage received from: test"},
		h.send(t, message("conv-1", "hello")))

	// The name is user scoped, so a new conversation does not ask again.
	out := h.send(t, message("conv-2", "again"))
	require.Len(t, out, 1)
	require.Contains(t, out[0], "Ada sent: again")
}

func TestEmptyNameIsAskedAgain(t *testing.T) {
	h := newHarness(t)
	h.send(t, message("conv-1", "hi"))
	require.Equal(t, []string{emptyNameText}, h.send(t, message("conv-1", "   ")))
}

func TestActivityTimestampIsUsed(t *testing.T) {
	h := newHarness(t)
	h.send(t, message("conv-1", "hi"))
	h.send(t, message("conv-1", "Ada"))

	act := message("conv-1", "stamped")
	act.Timestamp = time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	out := h.send(t, act)
	require.Contains(t, out[0], "Message received at: 2023-01-02T03:04:05Z")
}

func TestWelcome(t *testing.T) {
	h := newHarness(t)
	act := message("conv-1", "")
	act.Type = activity.TypeConversationUpdate
	act.MembersAdded = []activity.ChannelAccount{{ID: "user-1"}, {ID: "bot"}}

	require.Equal(t, []string{WelcomeText}, h.send(t, act))
	require.Zero(t, h.storage.Len())
}

func TestTelemetryTracksBothDirections(t *testing.T) {
	h := newHarness(t)
	h.send(t, message("conv-1", "hi"))

	require.Len(t, h.client.events, 2)
	require.Equal(t, telemetry.EventMessageReceived, h.client.events[0].Name)
	require.Equal(t, "hi", h.client.events[0].Properties[telemetry.PropText])
	require.Equal(t, telemetry.EventMessageSend, h.client.events[1].Name)
	require.Equal(t, AskNameText, h.client.events[1].Properties[telemetry.PropText])
}

func TestNewRequiresState(t *testing.T) {
	_, err := New(nil, nil, nil)
	require.Error(t, err)
}
