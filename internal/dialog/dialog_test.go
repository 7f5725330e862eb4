package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

type harness struct {
	storage  *state.MemoryStorage
	conv     *state.BotState
	accessor *state.Property[State]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	storage := state.NewMemoryStorage()
	conv, err := state.NewConversationState(storage)
	require.NoError(t, err)
	return &harness{
		storage:  storage,
		conv:     conv,
		accessor: state.NewProperty[State](conv, StatePropertyName),
	}
}

func message(text string) *activity.Activity {
	return &activity.Activity{
		Type:         activity.TypeMessage,
		ID:           "in-1",
		ChannelID:    "test",
		Conversation: activity.ConversationAccount{ID: "conv-1"},
		From:         activity.ChannelAccount{ID: "user-1"},
		Recipient:    activity.ChannelAccount{ID: "bot"},
		Text:         text,
	}
}

// turn runs root for one activity and saves conversation state the way a bot
// does at the end of a turn.
func (h *harness) turn(t *testing.T, root Dialog, act *activity.Activity) (TurnResult, []*activity.Activity) {
	t.Helper()
	ctx := context.Background()
	sink := &bot.BufferedSink{}
	tc := bot.NewTurnContext(act, sink)
	res, err := Run(ctx, tc, root, h.accessor)
	require.NoError(t, err)
	require.NoError(t, h.conv.SaveChanges(ctx, tc, false))
	return res, sink.Activities()
}

func (h *harness) stored(t *testing.T) State {
	t.Helper()
	tc := bot.NewTurnContext(message(""), &bot.BufferedSink{})
	st, err := h.accessor.Get(context.Background(), tc, nil)
	require.NoError(t, err)
	return st
}

func texts(acts []*activity.Activity) []string {
	out := make([]string, 0, len(acts))
	for _, a := range acts {
		out = append(out, a.Text)
	}
	return out
}

func askStep(question string) Step {
	return func(ctx context.Context, sc *StepContext) (TurnResult, error) {
		if err := sc.TurnContext().SendText(ctx, question); err != nil {
			return TurnResult{}, err
		}
		return sc.Wait()
	}
}

func TestWaterfallAdvancesOneStepPerMessage(t *testing.T) {
	h := newHarness(t)
	var final any
	w := NewWaterfall("main",
		askStep("first?"),
		askStep("second?"),
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			final = sc.Result
			return sc.EndDialog(ctx, sc.Result)
		},
	)

	res, out := h.turn(t, w, message("hi"))
	require.Equal(t, StatusWaiting, res.Status)
	require.Equal(t, []string{"first?"}, texts(out))

	res, out = h.turn(t, w, message("a"))
	require.Equal(t, StatusWaiting, res.Status)
	require.Equal(t, []string{"second?"}, texts(out))

	st := h.stored(t)
	require.Len(t, st.DialogStack, 1)
	var ws waterfallState
	require.NoError(t, st.DialogStack[0].Decode(&ws))
	require.Equal(t, 1, ws.StepIndex)

	res, _ = h.turn(t, w, message("42"))
	require.Equal(t, StatusComplete, res.Status)
	require.Equal(t, "42", res.Result)
	require.Equal(t, "42", final)
	require.True(t, h.stored(t).Empty())
}

func TestWaterfallStepReceivesPreviousInput(t *testing.T) {
	h := newHarness(t)
	var seen []any
	record := func(ctx context.Context, sc *StepContext) (TurnResult, error) {
		seen = append(seen, sc.Result)
		return sc.Wait()
	}
	w := NewWaterfall("main", record, record, record, record)

	h.turn(t, w, message("start"))
	h.turn(t, w, message("a"))
	h.turn(t, w, message("42"))

	require.Equal(t, []any{nil, "a", "42"}, seen)
	var ws waterfallState
	require.NoError(t, h.stored(t).DialogStack[0].Decode(&ws))
	require.Equal(t, 2, ws.StepIndex)
}

func TestWaterfallIgnoresNonMessageActivities(t *testing.T) {
	h := newHarness(t)
	w := NewWaterfall("main", askStep("first?"), askStep("second?"))
	h.turn(t, w, message("hi"))

	typing := message("")
	typing.Type = activity.TypeTyping
	res, out := h.turn(t, w, typing)
	require.Equal(t, StatusWaiting, res.Status)
	require.Empty(t, out)

	var ws waterfallState
	require.NoError(t, h.stored(t).DialogStack[0].Decode(&ws))
	require.Equal(t, 0, ws.StepIndex)
}

func TestWaterfallValuesPersistAcrossTurns(t *testing.T) {
	h := newHarness(t)
	var got any
	w := NewWaterfall("main",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			sc.Values["color"] = "blue"
			return sc.Wait()
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			got = sc.Values["color"]
			return sc.EndDialog(ctx, nil)
		},
	)
	h.turn(t, w, message("hi"))
	h.turn(t, w, message("next"))
	require.Equal(t, "blue", got)
}

func TestWaterfallNextRunsFollowingStepInSameTurn(t *testing.T) {
	h := newHarness(t)
	w := NewWaterfall("main",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.Next(ctx, "skipped")
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			require.Equal(t, ReasonNextCalled, sc.Reason)
			return sc.EndDialog(ctx, sc.Result)
		},
	)
	res, _ := h.turn(t, w, message("hi"))
	require.Equal(t, StatusComplete, res.Status)
	require.Equal(t, "skipped", res.Result)
}

func TestStepCannotAdvanceTwice(t *testing.T) {
	h := newHarness(t)
	w := NewWaterfall("main",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			if _, err := sc.Wait(); err != nil {
				return TurnResult{}, err
			}
			return sc.Wait()
		},
	)
	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	_, err := Run(context.Background(), tc, w, h.accessor)
	require.ErrorIs(t, err, ErrStepAlreadyActed)
}

func TestEndAfterPromptIsRejected(t *testing.T) {
	h := newHarness(t)
	var ran []int
	root := NewComponent("root")
	require.NoError(t, root.AddDialog(NewWaterfall("main",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			ran = append(ran, sc.Index)
			if _, err := sc.Prompt(ctx, "ask", PromptOptions{Prompt: "name?"}); err != nil {
				return TurnResult{}, err
			}
			return sc.EndDialog(ctx, "x")
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			ran = append(ran, sc.Index)
			return sc.Wait()
		},
	)))
	require.NoError(t, root.AddDialog(NewTextPrompt("ask", nil)))

	tc := bot.NewTurnContext(message("hello"), &bot.BufferedSink{})
	_, err := Run(context.Background(), tc, root, h.accessor)
	require.ErrorIs(t, err, ErrStepAlreadyActed)
	require.Equal(t, []int{0}, ran)
}

func TestReplaceAfterWaitIsRejected(t *testing.T) {
	h := newHarness(t)
	w := NewWaterfall("main",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			if _, err := sc.Wait(); err != nil {
				return TurnResult{}, err
			}
			return sc.ReplaceDialog(ctx, "main", nil)
		},
	)
	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	_, err := Run(context.Background(), tc, w, h.accessor)
	require.ErrorIs(t, err, ErrStepAlreadyActed)
}

func TestZeroResultStepNeverGrowsStack(t *testing.T) {
	h := newHarness(t)
	var ran []int
	step := func(ctx context.Context, sc *StepContext) (TurnResult, error) {
		ran = append(ran, sc.Index)
		return TurnResult{}, nil
	}
	w := NewWaterfall("w", step, step, step)

	for _, text := range []string{"one", "two"} {
		h.turn(t, w, message(text))
		st := h.stored(t)
		require.Len(t, st.DialogStack, 1)
		require.Equal(t, "w", st.DialogStack[0].ID)
	}
	require.Equal(t, []int{0, 1}, ran)

	var ws waterfallState
	require.NoError(t, h.stored(t).DialogStack[0].Decode(&ws))
	require.Equal(t, 1, ws.StepIndex)
}

func TestZeroResultInsideComponentKeepsWaiting(t *testing.T) {
	h := newHarness(t)
	var ran []int
	step := func(ctx context.Context, sc *StepContext) (TurnResult, error) {
		ran = append(ran, sc.Index)
		return TurnResult{}, nil
	}
	root := NewComponent("root")
	require.NoError(t, root.AddDialog(NewWaterfall("w", step, step, step)))

	res, _ := h.turn(t, root, message("one"))
	require.Equal(t, StatusWaiting, res.Status)
	res, _ = h.turn(t, root, message("two"))
	require.Equal(t, StatusWaiting, res.Status)
	require.Equal(t, []int{0, 1}, ran)

	st := h.stored(t)
	require.Len(t, st.DialogStack, 1)
	var inner State
	require.NoError(t, st.DialogStack[0].Decode(&inner))
	require.Len(t, inner.DialogStack, 1)
}

func TestRunWithNoDialogDoesNotCreateState(t *testing.T) {
	h := newHarness(t)
	done := NewWaterfall("main", func(ctx context.Context, sc *StepContext) (TurnResult, error) {
		return sc.EndDialog(ctx, nil)
	})
	for i := 0; i < 3; i++ {
		res, _ := h.turn(t, done, message("hi"))
		require.Equal(t, StatusComplete, res.Status)
	}
	require.Equal(t, 0, h.storage.Len())
}

func TestRunRootNotRegistered(t *testing.T) {
	h := newHarness(t)
	set := NewSet(h.accessor)
	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	_, err := set.Run(context.Background(), tc, "missing")
	require.True(t, boterror.Is(err, boterror.DialogNotFound))
}

func TestRunActiveDialogNotRegistered(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	require.NoError(t, h.accessor.Set(ctx, tc, State{DialogStack: []Instance{{ID: "ghost"}}}))

	w := NewWaterfall("main", askStep("q"))
	_, err := Run(ctx, tc, w, h.accessor)
	require.True(t, boterror.Is(err, boterror.DialogNotFound))
}

func TestRunNilAccessor(t *testing.T) {
	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	_, err := Run(context.Background(), tc, NewWaterfall("main"), nil)
	require.True(t, boterror.Is(err, boterror.InvalidArgument))
}

func TestSetAddDuplicate(t *testing.T) {
	set := NewSet(nil)
	require.NoError(t, set.Add(NewWaterfall("a")))
	require.ErrorIs(t, set.Add(NewWaterfall("a")), ErrDuplicateDialog)
	require.True(t, boterror.Is(set.Add(nil), boterror.InvalidArgument))
}

func TestChildResultResumesParent(t *testing.T) {
	h := newHarness(t)
	root := NewComponent("root")
	require.NoError(t, root.AddDialog(NewWaterfall("parent",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.BeginDialog(ctx, "child", nil)
		},
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			require.Equal(t, ReasonEndCalled, sc.Reason)
			return sc.EndDialog(ctx, "parent got "+sc.Result.(string))
		},
	)))
	require.NoError(t, root.AddDialog(NewWaterfall("child",
		askStep("child?"),
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.EndDialog(ctx, sc.Result)
		},
	)))

	res, out := h.turn(t, root, message("hi"))
	require.Equal(t, StatusWaiting, res.Status)
	require.Equal(t, []string{"child?"}, texts(out))

	st := h.stored(t)
	require.Len(t, st.DialogStack, 1)
	var inner State
	require.NoError(t, st.DialogStack[0].Decode(&inner))
	require.Len(t, inner.DialogStack, 2)
	require.Equal(t, "child", inner.DialogStack[1].ID)

	res, _ = h.turn(t, root, message("x"))
	require.Equal(t, StatusComplete, res.Status)
	require.Equal(t, "parent got x", res.Result)
	require.True(t, h.stored(t).Empty())
}

func TestComponentInitialDialogMissing(t *testing.T) {
	h := newHarness(t)
	c := NewComponent("root")
	c.SetInitialDialog("nope")
	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	_, err := Run(context.Background(), tc, c, h.accessor)
	require.True(t, boterror.Is(err, boterror.DialogNotFound))
}

func TestReplaceDialogDoesNotResumeParent(t *testing.T) {
	h := newHarness(t)
	root := NewComponent("root")
	require.NoError(t, root.AddDialog(NewWaterfall("first",
		func(ctx context.Context, sc *StepContext) (TurnResult, error) {
			return sc.ReplaceDialog(ctx, "second", nil)
		},
	)))
	require.NoError(t, root.AddDialog(NewWaterfall("second", askStep("second?"))))

	_, out := h.turn(t, root, message("hi"))
	require.Equal(t, []string{"second?"}, texts(out))

	var inner State
	require.NoError(t, h.stored(t).DialogStack[0].Decode(&inner))
	require.Len(t, inner.DialogStack, 1)
	require.Equal(t, "second", inner.DialogStack[0].ID)
}

func TestCancelAllDialogs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	set := NewSet(h.accessor)
	require.NoError(t, set.Add(NewWaterfall("main", askStep("q"))))

	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	dc, err := set.CreateContext(ctx, tc)
	require.NoError(t, err)

	res, err := dc.CancelAllDialogs(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusEmpty, res.Status)

	_, err = dc.BeginDialog(ctx, "main", nil)
	require.NoError(t, err)
	require.Equal(t, 1, dc.StackDepth())

	res, err = dc.CancelAllDialogs(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, res.Status)
	require.Equal(t, 0, dc.StackDepth())
	require.Nil(t, dc.ActiveDialog())
}

func TestStateRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	want := State{DialogStack: []Instance{
		{ID: "root", State: []byte(`{"stepIndex":1}`)},
		{ID: "prompt", State: []byte(`{"attempts":2,"options":{"prompt":"p"}}`)},
	}}

	tc := bot.NewTurnContext(message("hi"), &bot.BufferedSink{})
	require.NoError(t, h.accessor.Set(ctx, tc, want))
	require.NoError(t, h.conv.SaveChanges(ctx, tc, false))

	require.Equal(t, want, h.stored(t))
}
