// Package dialog runs multi-step conversations on top of conversation state.
//
// The dialog stack is stored as the DialogState property of the
// conversation bag. Each turn Run loads the stack, continues the active
// dialog or begins the root one, and writes the stack back to the property;
// the bag itself is flushed when the bot saves state at the end of the turn.
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

// StatePropertyName is the conversation state property holding the stack.
const StatePropertyName = "DialogState"

var ErrDuplicateDialog = errors.New("dialog id already registered")

// Status is the outcome of a dialog turn.
type Status int

const (
	// StatusEmpty means no dialog was active.
	StatusEmpty Status = iota
	// StatusWaiting means the active dialog expects more input.
	StatusWaiting
	// StatusComplete means the last dialog on the stack ended.
	StatusComplete
	// StatusCancelled means the stack was cancelled.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusWaiting:
		return "waiting"
	case StatusComplete:
		return "complete"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// TurnResult is returned by every dialog operation.
type TurnResult struct {
	Status Status
	Result any
}

// EndOfTurn is returned by a dialog waiting for the next activity.
var EndOfTurn = TurnResult{Status: StatusWaiting}

// Reason tells a resumed dialog why control returned to it.
type Reason int

const (
	ReasonBeginCalled Reason = iota
	ReasonContinueCalled
	ReasonEndCalled
	ReasonReplaceCalled
	ReasonCancelCalled
	ReasonNextCalled
)

// Dialog is one step-wise interaction. Implementations keep their per-instance
// data in the active Instance, never in the Dialog value, which is shared by
// all conversations.
type Dialog interface {
	ID() string
	BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error)
	ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error)
	ResumeDialog(ctx context.Context, dc *Context, reason Reason, result any) (TurnResult, error)
}

// Instance is one entry of the dialog stack.
type Instance struct {
	ID    string          `json:"id"`
	State json.RawMessage `json:"state,omitempty"`
}

// Decode unmarshals the instance state into v. Empty state leaves v untouched.
func (i *Instance) Decode(v any) error {
	if len(i.State) == 0 {
		return nil
	}
	if err := json.Unmarshal(i.State, v); err != nil {
		return fmt.Errorf("decode state of dialog %s: %w", i.ID, err)
	}
	return nil
}

// Encode replaces the instance state with v.
func (i *Instance) Encode(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state of dialog %s: %w", i.ID, err)
	}
	i.State = raw
	return nil
}

// State is the persisted dialog stack; the last element is the active dialog.
type State struct {
	DialogStack []Instance `json:"dialogStack,omitempty"`
}

// Empty reports whether no dialog is active.
func (s State) Empty() bool { return len(s.DialogStack) == 0 }

// Set is a registry of dialogs addressable by id.
type Set struct {
	dialogs  map[string]Dialog
	accessor *state.Property[State]
}

// NewSet creates a set persisting its stack through accessor. Sets owned by a
// Component pass a nil accessor.
func NewSet(accessor *state.Property[State]) *Set {
	return &Set{dialogs: make(map[string]Dialog), accessor: accessor}
}

// Add registers d.
func (s *Set) Add(d Dialog) error {
	if d == nil {
		return boterror.New(boterror.InvalidArgument, "dialog_nil", nil)
	}
	if _, ok := s.dialogs[d.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateDialog, d.ID())
	}
	s.dialogs[d.ID()] = d
	return nil
}

// Find returns the dialog registered under id, or nil.
func (s *Set) Find(id string) Dialog { return s.dialogs[id] }

// CreateContext loads the stack for the turn.
func (s *Set) CreateContext(ctx context.Context, tc *bot.TurnContext) (*Context, error) {
	if s.accessor == nil {
		return nil, boterror.New(boterror.InvalidArgument, "dialog_state_accessor_nil", nil)
	}
	st, err := s.accessor.Get(ctx, tc, nil)
	if err != nil {
		return nil, err
	}
	return &Context{dialogs: s, tc: tc, st: &st}, nil
}

// Run executes one turn: it continues the active dialog or, when the stack is
// empty, begins rootID. The updated stack is written to the accessor unless
// the turn failed; an empty stack removes the property.
func (s *Set) Run(ctx context.Context, tc *bot.TurnContext, rootID string) (TurnResult, error) {
	if s.Find(rootID) == nil {
		return TurnResult{}, boterror.New(boterror.DialogNotFound, rootID, nil)
	}
	dc, err := s.CreateContext(ctx, tc)
	if err != nil {
		return TurnResult{}, err
	}

	var res TurnResult
	if dc.ActiveDialog() != nil {
		res, err = dc.ContinueDialog(ctx)
	} else {
		res, err = dc.BeginDialog(ctx, rootID, nil)
	}
	if err != nil {
		return res, err
	}

	st := dc.State()
	if st.Empty() {
		err = s.accessor.Delete(ctx, tc)
	} else {
		err = s.accessor.Set(ctx, tc, st)
	}
	if err != nil {
		return res, err
	}
	return res, nil
}

// Run executes one turn of root against the stack stored by accessor.
func Run(ctx context.Context, tc *bot.TurnContext, root Dialog, accessor *state.Property[State]) (TurnResult, error) {
	if root == nil {
		return TurnResult{}, boterror.New(boterror.InvalidArgument, "dialog_nil", nil)
	}
	set := NewSet(accessor)
	if err := set.Add(root); err != nil {
		return TurnResult{}, err
	}
	return set.Run(ctx, tc, root.ID())
}

// Context operates on the dialog stack of one turn.
type Context struct {
	dialogs *Set
	tc      *bot.TurnContext
	st      *State
}

// TurnContext returns the turn being processed.
func (dc *Context) TurnContext() *bot.TurnContext { return dc.tc }

// State returns a copy of the current stack.
func (dc *Context) State() State {
	if len(dc.st.DialogStack) == 0 {
		return State{}
	}
	stack := make([]Instance, len(dc.st.DialogStack))
	copy(stack, dc.st.DialogStack)
	return State{DialogStack: stack}
}

// StackDepth returns the number of dialogs on the stack.
func (dc *Context) StackDepth() int { return len(dc.st.DialogStack) }

// ActiveDialog returns the top of the stack, or nil.
func (dc *Context) ActiveDialog() *Instance {
	if len(dc.st.DialogStack) == 0 {
		return nil
	}
	return &dc.st.DialogStack[len(dc.st.DialogStack)-1]
}

// BeginDialog pushes dialog id and starts it.
func (dc *Context) BeginDialog(ctx context.Context, id string, options any) (TurnResult, error) {
	d := dc.dialogs.Find(id)
	if d == nil {
		return TurnResult{}, boterror.New(boterror.DialogNotFound, id, nil)
	}
	dc.st.DialogStack = append(dc.st.DialogStack, Instance{ID: id})
	return d.BeginDialog(ctx, dc, options)
}

// Prompt begins a prompt dialog with options.
func (dc *Context) Prompt(ctx context.Context, id string, options PromptOptions) (TurnResult, error) {
	return dc.BeginDialog(ctx, id, options)
}

// ContinueDialog forwards the turn to the active dialog.
func (dc *Context) ContinueDialog(ctx context.Context) (TurnResult, error) {
	active := dc.ActiveDialog()
	if active == nil {
		return TurnResult{Status: StatusEmpty}, nil
	}
	d := dc.dialogs.Find(active.ID)
	if d == nil {
		return TurnResult{}, boterror.New(boterror.DialogNotFound, active.ID, nil)
	}
	return d.ContinueDialog(ctx, dc)
}

// EndDialog pops the active dialog and resumes its parent with result.
func (dc *Context) EndDialog(ctx context.Context, result any) (TurnResult, error) {
	dc.pop()
	active := dc.ActiveDialog()
	if active == nil {
		return TurnResult{Status: StatusComplete, Result: result}, nil
	}
	d := dc.dialogs.Find(active.ID)
	if d == nil {
		return TurnResult{}, boterror.New(boterror.DialogNotFound, active.ID, nil)
	}
	return d.ResumeDialog(ctx, dc, ReasonEndCalled, result)
}

// ReplaceDialog pops the active dialog without resuming its parent and begins id.
func (dc *Context) ReplaceDialog(ctx context.Context, id string, options any) (TurnResult, error) {
	if dc.dialogs.Find(id) == nil {
		return TurnResult{}, boterror.New(boterror.DialogNotFound, id, nil)
	}
	dc.pop()
	return dc.BeginDialog(ctx, id, options)
}

// CancelAllDialogs empties the stack.
func (dc *Context) CancelAllDialogs(context.Context) (TurnResult, error) {
	if len(dc.st.DialogStack) == 0 {
		return TurnResult{Status: StatusEmpty}, nil
	}
	dc.st.DialogStack = nil
	return TurnResult{Status: StatusCancelled}, nil
}

func (dc *Context) pop() {
	if n := len(dc.st.DialogStack); n > 0 {
		dc.st.DialogStack = dc.st.DialogStack[:n-1]
	}
}
