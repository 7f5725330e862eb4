package dialog

import (
	"context"
	"errors"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

var ErrStepAlreadyActed = errors.New("waterfall step already advanced")

// Step is one stage of a Waterfall. It returns the result of the StepContext
// helper it called last.
type Step func(ctx context.Context, sc *StepContext) (TurnResult, error)

// Waterfall runs its steps in order. Each step usually prompts the user and
// the next step receives the answer in StepContext.Result.
type Waterfall struct {
	id    string
	steps []Step
}

type waterfallState struct {
	StepIndex int            `json:"stepIndex"`
	Options   any            `json:"options,omitempty"`
	Values    map[string]any `json:"values,omitempty"`
}

// NewWaterfall creates a waterfall dialog.
func NewWaterfall(id string, steps ...Step) *Waterfall {
	return &Waterfall{id: id, steps: steps}
}

// AddStep appends a step.
func (w *Waterfall) AddStep(step Step) *Waterfall {
	w.steps = append(w.steps, step)
	return w
}

func (w *Waterfall) ID() string { return w.id }

func (w *Waterfall) BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error) {
	st := waterfallState{Options: options, Values: make(map[string]any)}
	return w.runStep(ctx, dc, &st, 0, ReasonBeginCalled, nil)
}

// ContinueDialog advances only on message activities; anything else keeps
// the current step waiting.
func (w *Waterfall) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	act := dc.tc.Activity()
	if act.Type != activity.TypeMessage {
		return EndOfTurn, nil
	}
	return w.ResumeDialog(ctx, dc, ReasonContinueCalled, act.Text)
}

func (w *Waterfall) ResumeDialog(ctx context.Context, dc *Context, reason Reason, result any) (TurnResult, error) {
	var st waterfallState
	if err := dc.ActiveDialog().Decode(&st); err != nil {
		return TurnResult{}, err
	}
	return w.runStep(ctx, dc, &st, st.StepIndex+1, reason, result)
}

func (w *Waterfall) runStep(ctx context.Context, dc *Context, st *waterfallState, index int, reason Reason, result any) (TurnResult, error) {
	if index >= len(w.steps) {
		return dc.EndDialog(ctx, result)
	}
	if st.Values == nil {
		st.Values = make(map[string]any)
	}
	st.StepIndex = index

	sc := &StepContext{
		Index:   index,
		Options: st.Options,
		Values:  st.Values,
		Reason:  reason,
		Result:  result,
		dc:      dc,
		w:       w,
		st:      st,
	}
	if err := sc.persist(); err != nil {
		return TurnResult{}, err
	}
	res, err := w.steps[index](ctx, sc)
	if err != nil {
		return res, err
	}
	if !sc.acted {
		if err := sc.persist(); err != nil {
			return TurnResult{}, err
		}
	}
	return res, nil
}

// StepContext is handed to a waterfall step.
type StepContext struct {
	// Index is the zero-based position of the running step.
	Index int
	// Options are the options the waterfall was begun with.
	Options any
	// Values survive across the steps of one waterfall instance.
	Values map[string]any
	// Reason tells why the step runs.
	Reason Reason
	// Result is the result of the previous step or of the child dialog it began.
	Result any

	dc    *Context
	w     *Waterfall
	st    *waterfallState
	acted bool
}

// Context returns the dialog context of the turn.
func (sc *StepContext) Context() *Context { return sc.dc }

// TurnContext returns the turn being processed.
func (sc *StepContext) TurnContext() *bot.TurnContext { return sc.dc.tc }

// Next skips to the next step with result.
func (sc *StepContext) Next(ctx context.Context, result any) (TurnResult, error) {
	if err := sc.act(); err != nil {
		return TurnResult{}, err
	}
	return sc.w.runStep(ctx, sc.dc, sc.st, sc.Index+1, ReasonNextCalled, result)
}

// Wait ends the turn; the next message runs the following step with the
// message text as Result.
func (sc *StepContext) Wait() (TurnResult, error) {
	if err := sc.act(); err != nil {
		return TurnResult{}, err
	}
	return EndOfTurn, nil
}

// Prompt begins the prompt dialog id.
func (sc *StepContext) Prompt(ctx context.Context, id string, options PromptOptions) (TurnResult, error) {
	if err := sc.act(); err != nil {
		return TurnResult{}, err
	}
	return sc.dc.Prompt(ctx, id, options)
}

// BeginDialog begins the child dialog id. Its result is passed to the next step.
func (sc *StepContext) BeginDialog(ctx context.Context, id string, options any) (TurnResult, error) {
	if err := sc.act(); err != nil {
		return TurnResult{}, err
	}
	return sc.dc.BeginDialog(ctx, id, options)
}

// EndDialog ends the waterfall with result.
func (sc *StepContext) EndDialog(ctx context.Context, result any) (TurnResult, error) {
	if err := sc.act(); err != nil {
		return TurnResult{}, err
	}
	return sc.dc.EndDialog(ctx, result)
}

// ReplaceDialog ends the waterfall and begins id in its place.
func (sc *StepContext) ReplaceDialog(ctx context.Context, id string, options any) (TurnResult, error) {
	if err := sc.act(); err != nil {
		return TurnResult{}, err
	}
	return sc.dc.ReplaceDialog(ctx, id, options)
}

func (sc *StepContext) act() error {
	if sc.acted {
		return ErrStepAlreadyActed
	}
	if err := sc.persist(); err != nil {
		return err
	}
	sc.acted = true
	return nil
}

// persist writes the waterfall state into its instance while it is on top.
func (sc *StepContext) persist() error {
	active := sc.dc.ActiveDialog()
	if active == nil || active.ID != sc.w.id {
		return nil
	}
	return active.Encode(sc.st)
}
