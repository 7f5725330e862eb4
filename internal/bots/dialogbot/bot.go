// Package dialogbot runs a single root dialog for every message and saves
// conversation and user state once the turn is dispatched.
package dialogbot

import (
	"context"
	"log/slog"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/dialog"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

// DialogBot is an ActivityHandler whose message handler drives dialog.
type DialogBot struct {
	*bot.ActivityHandler

	conversationState *state.BotState
	userState         *state.BotState
	dialog            dialog.Dialog
	dialogState       *state.Property[dialog.State]
	logger            *slog.Logger
}

// New wires the message and post-dispatch handlers. All state and the dialog
// are required.
func New(conversationState, userState *state.BotState, d dialog.Dialog, logger *slog.Logger) (*DialogBot, error) {
	if conversationState == nil {
		return nil, boterror.New(boterror.InvalidArgument, "conversation_state_missing", nil)
	}
	if userState == nil {
		return nil, boterror.New(boterror.InvalidArgument, "user_state_missing", nil)
	}
	if d == nil {
		return nil, boterror.New(boterror.InvalidArgument, "dialog_missing", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &DialogBot{
		ActivityHandler:   bot.NewActivityHandler(),
		conversationState: conversationState,
		userState:         userState,
		dialog:            d,
		dialogState:       state.NewProperty[dialog.State](conversationState, dialog.StatePropertyName),
		logger:            logger,
	}
	b.OnMessage(b.runDialog)
	b.OnDialog(b.saveState)
	return b, nil
}

// DialogState returns the accessor the dialog stack is stored through.
func (b *DialogBot) DialogState() *state.Property[dialog.State] { return b.dialogState }

func (b *DialogBot) runDialog(ctx context.Context, tc *bot.TurnContext) error {
	b.logger.DebugContext(ctx, "running dialog with message activity", "dialog", b.dialog.ID())
	_, err := dialog.Run(ctx, tc, b.dialog, b.dialogState)
	return err
}

// saveState flushes the bags loaded during the turn. Bags that were never
// loaded or did not change are not written.
func (b *DialogBot) saveState(ctx context.Context, tc *bot.TurnContext) error {
	if err := b.conversationState.SaveChanges(ctx, tc, false); err != nil {
		return err
	}
	return b.userState.SaveChanges(ctx, tc, false)
}
