// Package adaptivecards greets new members and answers every message with
// one of a set of embedded adaptive cards, picked at random.
package adaptivecards

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// EndpointName is the endpoint service looked up in the .bot file.
const EndpointName = "using-adaptive-cards"

const (
	WelcomeText = "Welcome to Adaptive Cards Bot. This bot will introduce you to Adaptive Cards. Type anything to see an Adaptive Card."
	CardText    = "Here is an Adaptive Card:"
)

// Bot is the adaptive cards sample bot.
type Bot struct {
	*bot.ActivityHandler

	pick   func(n int) int
	logger *slog.Logger
}

// Option configures a Bot.
type Option func(b *Bot)

// WithPicker replaces the random card picker. pick returns an index in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(b *Bot) { b.pick = pick }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) { b.logger = logger }
}

// New creates the bot and checks that the embedded cards load.
func New(opts ...Option) (*Bot, error) {
	if _, err := Names(); err != nil {
		return nil, err
	}
	b := &Bot{ActivityHandler: bot.NewActivityHandler(), pick: rand.Intn, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.OnMembersAdded(b.welcome)
	b.OnMessage(b.sendRandomCard)
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

func (b *Bot) sendRandomCard(ctx context.Context, tc *bot.TurnContext) error {
	names, err := Names()
	if err != nil {
		return err
	}
	name := names[b.pick(len(names))]
	card, err := Card(name)
	if err != nil {
		return err
	}
	b.logger.DebugContext(ctx, "sending adaptive card", "card", name)
	return tc.SendActivities(ctx, activity.NewAttachmentMessage(CardText, card))
}
