// Package cards is the rich cards sample: a dialog bot that lets the user
// pick a card type and shows it.
package cards

import (
	"context"
	"log/slog"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/bots/dialogbot"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

const WelcomeText = "Welcome to CardBot. This bot will show you different types of Rich Cards. Please type anything to get started."

// Bot is the rich cards bot.
type Bot struct {
	*dialogbot.DialogBot
}

// New builds the bot over the given state bags.
func New(conversationState, userState *state.BotState, logger *slog.Logger) (*Bot, error) {
	main, err := NewMainDialog()
	if err != nil {
		return nil, err
	}
	db, err := dialogbot.New(conversationState, userState, main, logger)
	if err != nil {
		return nil, err
	}
	b := &Bot{DialogBot: db}
	b.OnMembersAdded(b.welcome)
	return b, nil
}

func (b *Bot) welcome(ctx context.Context, tc *bot.TurnContext) error {
	act := tc.Activity()
	for _, m := range act.MembersAdded {
		if m.ID == act.Recipient.ID {
			continue
		}
		if err := tc.SendText(ctx, WelcomeText); err != nil {
			return err
		}
	}
	return nil
}
