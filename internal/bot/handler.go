package bot

import (
	"context"
	"errors"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// Handler is a callback run for one turn.
type Handler func(ctx context.Context, tc *TurnContext) error

// Kind names a subscription list of the ActivityHandler. Activity types are
// kinds; the remaining constants name sub-events and the post-dispatch list.
type Kind string

const (
	KindMembersAdded     Kind = "membersAdded"
	KindMembersRemoved   Kind = "membersRemoved"
	KindReactionsAdded   Kind = "reactionsAdded"
	KindReactionsRemoved Kind = "reactionsRemoved"
	KindUnrecognized     Kind = "unrecognized"
	KindDialog           Kind = "dialog"
)

// KindOf returns the subscription kind for an activity type.
func KindOf(t activity.Type) Kind { return Kind(t) }

// ActivityHandler dispatches a turn to callbacks registered per activity kind.
// Callbacks of a kind run in registration order; the first error stops that
// kind's chain. Dialog (post-dispatch) callbacks always run afterwards.
//
// Registration is not synchronized; register everything before serving.
type ActivityHandler struct {
	handlers map[Kind][]Handler
}

// NewActivityHandler returns an empty handler.
func NewActivityHandler() *ActivityHandler {
	return &ActivityHandler{handlers: make(map[Kind][]Handler)}
}

func (h *ActivityHandler) on(kind Kind, fn Handler) *ActivityHandler {
	if fn != nil {
		h.handlers[kind] = append(h.handlers[kind], fn)
	}
	return h
}

func (h *ActivityHandler) OnMessage(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeMessage), fn)
}

func (h *ActivityHandler) OnConversationUpdate(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeConversationUpdate), fn)
}

func (h *ActivityHandler) OnMembersAdded(fn Handler) *ActivityHandler {
	return h.on(KindMembersAdded, fn)
}

func (h *ActivityHandler) OnMembersRemoved(fn Handler) *ActivityHandler {
	return h.on(KindMembersRemoved, fn)
}

func (h *ActivityHandler) OnMessageReaction(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeMessageReaction), fn)
}

func (h *ActivityHandler) OnReactionsAdded(fn Handler) *ActivityHandler {
	return h.on(KindReactionsAdded, fn)
}

func (h *ActivityHandler) OnReactionsRemoved(fn Handler) *ActivityHandler {
	return h.on(KindReactionsRemoved, fn)
}

func (h *ActivityHandler) OnEvent(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeEvent), fn)
}

func (h *ActivityHandler) OnTyping(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeTyping), fn)
}

func (h *ActivityHandler) OnEndOfConversation(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeEndOfConversation), fn)
}

func (h *ActivityHandler) OnInstallationUpdate(fn Handler) *ActivityHandler {
	return h.on(KindOf(activity.TypeInstallationUpdate), fn)
}

// OnUnrecognizedActivityType registers a callback for activity types the
// runtime does not know.
func (h *ActivityHandler) OnUnrecognizedActivityType(fn Handler) *ActivityHandler {
	return h.on(KindUnrecognized, fn)
}

// OnDialog registers a post-dispatch callback, typically used to save state.
func (h *ActivityHandler) OnDialog(fn Handler) *ActivityHandler {
	return h.on(KindDialog, fn)
}

// Handlers returns the number of callbacks registered for kind.
func (h *ActivityHandler) Handlers(kind Kind) int { return len(h.handlers[kind]) }

// OnTurn dispatches tc by activity type and then runs the post-dispatch
// callbacks. Errors from both phases are joined.
func (h *ActivityHandler) OnTurn(ctx context.Context, tc *TurnContext) error {
	if tc == nil {
		return boterror.New(boterror.InvalidArgument, "turn_context_nil", nil)
	}
	act := tc.Activity()
	if act == nil {
		return boterror.New(boterror.InvalidArgument, "activity_nil", nil)
	}
	if act.Type == "" {
		return boterror.New(boterror.InvalidArgument, "activity_type_missing", nil)
	}

	dispatchErr := h.dispatch(ctx, tc, act)
	postErr := h.run(ctx, tc, KindDialog)
	return errors.Join(dispatchErr, postErr)
}

func (h *ActivityHandler) dispatch(ctx context.Context, tc *TurnContext, act *activity.Activity) error {
	if !act.Type.Known() {
		return h.run(ctx, tc, KindUnrecognized)
	}
	if err := h.run(ctx, tc, KindOf(act.Type)); err != nil {
		return err
	}

	switch act.Type {
	case activity.TypeConversationUpdate:
		if len(act.MembersAdded) > 0 {
			if err := h.run(ctx, tc, KindMembersAdded); err != nil {
				return err
			}
		}
		if len(act.MembersRemoved) > 0 {
			return h.run(ctx, tc, KindMembersRemoved)
		}
	case activity.TypeMessageReaction:
		if len(act.ReactionsAdded) > 0 {
			if err := h.run(ctx, tc, KindReactionsAdded); err != nil {
				return err
			}
		}
		if len(act.ReactionsRemoved) > 0 {
			return h.run(ctx, tc, KindReactionsRemoved)
		}
	}
	return nil
}

func (h *ActivityHandler) run(ctx context.Context, tc *TurnContext, kind Kind) error {
	for _, fn := range h.handlers[kind] {
		if err := fn(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}
