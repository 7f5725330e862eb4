package dialog

import (
	"context"
)

// Component is a dialog composed of inner dialogs. Its inner stack is kept in
// the component's own instance state, so the outer stack only ever sees the
// component itself.
type Component struct {
	id        string
	initialID string
	dialogs   *Set
}

// NewComponent creates an empty component dialog.
func NewComponent(id string) *Component {
	return &Component{id: id, dialogs: NewSet(nil)}
}

func (c *Component) ID() string { return c.id }

// AddDialog registers an inner dialog. The first one added becomes the
// initial dialog unless SetInitialDialog is called.
func (c *Component) AddDialog(d Dialog) error {
	if err := c.dialogs.Add(d); err != nil {
		return err
	}
	if c.initialID == "" {
		c.initialID = d.ID()
	}
	return nil
}

// SetInitialDialog selects the inner dialog begun with the component.
func (c *Component) SetInitialDialog(id string) { c.initialID = id }

// InitialDialog returns the id of the inner dialog begun with the component.
func (c *Component) InitialDialog() string { return c.initialID }

func (c *Component) BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error) {
	var inner State
	idc := &Context{dialogs: c.dialogs, tc: dc.tc, st: &inner}
	res, err := idc.BeginDialog(ctx, c.initialID, options)
	if err != nil {
		return res, err
	}
	return c.settle(ctx, dc, &inner, res)
}

func (c *Component) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	var inner State
	if err := dc.ActiveDialog().Decode(&inner); err != nil {
		return TurnResult{}, err
	}
	if inner.Empty() {
		return dc.EndDialog(ctx, nil)
	}
	idc := &Context{dialogs: c.dialogs, tc: dc.tc, st: &inner}
	res, err := idc.ContinueDialog(ctx)
	if err != nil {
		return res, err
	}
	return c.settle(ctx, dc, &inner, res)
}

// ResumeDialog is called when an outer dialog begun by a step of c ends. The
// inner stack is left as it was and the component keeps waiting.
func (c *Component) ResumeDialog(context.Context, *Context, Reason, any) (TurnResult, error) {
	return EndOfTurn, nil
}

// settle stores the inner stack in the component instance, or ends the
// component once its inner stack is empty.
func (c *Component) settle(ctx context.Context, dc *Context, inner *State, res TurnResult) (TurnResult, error) {
	if inner.Empty() {
		return dc.EndDialog(ctx, res.Result)
	}
	if err := dc.ActiveDialog().Encode(inner); err != nil {
		return TurnResult{}, err
	}
	if res.Status != StatusWaiting {
		return EndOfTurn, nil
	}
	return res, nil
}
