package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

var ErrNoReplySink = errors.New("turn context has no reply sink")

// ReplySink delivers outbound activities produced during a turn.
type ReplySink interface {
	Deliver(ctx context.Context, a *activity.Activity) error
}

// SendHook observes outbound activities before delivery. Returning an error
// aborts the send.
type SendHook func(ctx context.Context, tc *TurnContext, activities []*activity.Activity) error

// TurnContext wraps a single inbound activity for the duration of one turn.
// It is owned by the call chain processing that turn and is not safe for use
// after the turn ends.
type TurnContext struct {
	activity  *activity.Activity
	sink      ReplySink
	responded bool
	state     map[string]any
	sendHooks []SendHook
}

// NewTurnContext creates a turn context for act delivering replies to sink.
func NewTurnContext(act *activity.Activity, sink ReplySink) *TurnContext {
	return &TurnContext{
		activity: act,
		sink:     sink,
		state:    make(map[string]any),
	}
}

// Activity returns the inbound activity.
func (tc *TurnContext) Activity() *activity.Activity { return tc.activity }

// Responded reports whether at least one activity was sent this turn.
func (tc *TurnContext) Responded() bool { return tc.responded }

// TurnValue reads a turn-scoped cache entry.
func (tc *TurnContext) TurnValue(key string) (any, bool) {
	v, ok := tc.state[key]
	return v, ok
}

// SetTurnValue stores a turn-scoped cache entry.
func (tc *TurnContext) SetTurnValue(key string, v any) { tc.state[key] = v }

// DeleteTurnValue removes a turn-scoped cache entry.
func (tc *TurnContext) DeleteTurnValue(key string) { delete(tc.state, key) }

// OnSendActivities registers a hook run before every send.
func (tc *TurnContext) OnSendActivities(h SendHook) {
	tc.sendHooks = append(tc.sendHooks, h)
}

// SendText sends a plain text message back to the sender.
func (tc *TurnContext) SendText(ctx context.Context, text string) error {
	return tc.SendActivities(ctx, activity.NewMessage(text))
}

// SendActivity sends one activity and returns the id it was delivered with.
func (tc *TurnContext) SendActivity(ctx context.Context, a *activity.Activity) (string, error) {
	if err := tc.SendActivities(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

// SendActivities addresses and delivers activities in order.
func (tc *TurnContext) SendActivities(ctx context.Context, acts ...*activity.Activity) error {
	if tc.sink == nil {
		return ErrNoReplySink
	}
	if len(acts) == 0 {
		return nil
	}
	for _, a := range acts {
		if a == nil {
			return errors.New("cannot send a nil activity")
		}
		activity.ApplyConversationReference(a, tc.activity)
	}
	for _, h := range tc.sendHooks {
		if err := h(ctx, tc, acts); err != nil {
			return err
		}
	}
	for _, a := range acts {
		if err := tc.sink.Deliver(ctx, a); err != nil {
			return fmt.Errorf("deliver activity %s: %w", a.ID, err)
		}
		if a.Type == activity.TypeMessage {
			tc.responded = true
		}
	}
	return nil
}

// BufferedSink collects replies in memory; the HTTP ingress returns them in
// the response body.
type BufferedSink struct {
	mu         sync.Mutex
	activities []*activity.Activity
}

// Deliver appends a to the buffer.
func (s *BufferedSink) Deliver(_ context.Context, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, a)
	return nil
}

// Activities returns a copy of the buffered replies.
func (s *BufferedSink) Activities() []*activity.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*activity.Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// SinkFunc adapts a function to ReplySink.
type SinkFunc func(ctx context.Context, a *activity.Activity) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, a *activity.Activity) error { return f(ctx, a) }
