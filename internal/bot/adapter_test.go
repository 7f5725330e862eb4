package bot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

func TestProcessActivityRejectsInvalidInput(t *testing.T) {
	a := NewAdapter()
	ctx := context.Background()
	noop := func(context.Context, *TurnContext) error { return nil }

	require.True(t, boterror.Is(a.ProcessActivity(ctx, nil, &BufferedSink{}, noop), boterror.InvalidArgument))
	require.True(t, boterror.Is(a.ProcessActivity(ctx, newActivity(activity.TypeMessage), &BufferedSink{}, nil), boterror.InvalidArgument))

	bad := newActivity(activity.TypeMessage)
	bad.Conversation.ID = ""
	err := a.ProcessActivity(ctx, bad, &BufferedSink{}, noop)
	require.True(t, boterror.Is(err, boterror.InvalidArgument))
	require.ErrorIs(t, err, activity.ErrMissingConversation)
}

func TestMiddlewareRunsAroundLogic(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return MiddlewareFunc(func(ctx context.Context, tc *TurnContext, next func(context.Context) error) error {
			calls = append(calls, name+" before")
			err := next(ctx)
			calls = append(calls, name+" after")
			return err
		})
	}
	a := NewAdapter().Use(mw("outer"), mw("inner"))

	err := a.ProcessActivity(context.Background(), newActivity(activity.TypeMessage), &BufferedSink{}, func(context.Context, *TurnContext) error {
		calls = append(calls, "logic")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"outer before", "inner before", "logic", "inner after", "outer after"}, calls)
}

func TestMiddlewareCanShortCircuit(t *testing.T) {
	called := false
	a := NewAdapter().Use(MiddlewareFunc(func(context.Context, *TurnContext, func(context.Context) error) error {
		return nil
	}))
	require.NoError(t, a.ProcessActivity(context.Background(), newActivity(activity.TypeMessage), &BufferedSink{}, func(context.Context, *TurnContext) error {
		called = true
		return nil
	}))
	require.False(t, called)
}

func TestUnhandledErrorLogsAndApologizes(t *testing.T) {
	var logs bytes.Buffer
	a := NewAdapter(func(o *AdapterOptions) { o.Logger = slog.New(slog.NewTextHandler(&logs, nil)) })
	sink := &BufferedSink{}

	err := a.ProcessActivity(context.Background(), newActivity(activity.TypeMessage), sink, func(context.Context, *TurnContext) error {
		return errors.New("kaboom")
	})
	require.NoError(t, err)
	require.Len(t, sink.Activities(), 1)
	require.Equal(t, ApologyText, sink.Activities()[0].Text)
	require.Contains(t, logs.String(), "[onTurnError]")
	require.Contains(t, logs.String(), "kaboom")
}

func TestPanicIsRecovered(t *testing.T) {
	var got error
	a := NewAdapter(func(o *AdapterOptions) {
		o.OnTurnError = func(_ context.Context, _ *TurnContext, err error) error {
			got = err
			return nil
		}
	})
	err := a.ProcessActivity(context.Background(), newActivity(activity.TypeMessage), &BufferedSink{}, func(context.Context, *TurnContext) error {
		panic("bad step")
	})
	require.NoError(t, err)
	require.True(t, boterror.Is(got, boterror.UnhandledTurnError))
	require.ErrorContains(t, got, "bad step")
}

func TestErrorHandlerFailureIsReturned(t *testing.T) {
	a := NewAdapter(func(o *AdapterOptions) {
		o.OnTurnError = func(context.Context, *TurnContext, error) error { return errors.New("handler down") }
	})
	err := a.ProcessActivity(context.Background(), newActivity(activity.TypeMessage), &BufferedSink{}, func(context.Context, *TurnContext) error {
		return errors.New("boom")
	})
	require.ErrorContains(t, err, "handler down")
}

func TestCredentials(t *testing.T) {
	require.False(t, NewAdapter().HasCredentials())
	a := NewAdapter(func(o *AdapterOptions) { o.AppID = "id"; o.AppPassword = "pw" })
	require.True(t, a.HasCredentials())
	require.Equal(t, "id", a.AppID())
}
