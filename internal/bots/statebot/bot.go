// Package statebot remembers the user's name in user state and the last
// message metadata in conversation state.
package statebot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
)

// State property names.
const (
	UserProfileProperty      = "UserProfile"
	ConversationDataProperty = "ConversationData"
)

const (
	WelcomeText   = "Welcome to State Bot Sample. Type anything to get started."
	AskNameText   = "What is your name?"
	emptyNameText = "Sorry, I didn't catch that. What is your name?"
)

// UserProfile is kept per user.
type UserProfile struct {
	Name string `json:"name,omitempty"`
}

// ConversationData is kept per conversation.
type ConversationData struct {
	Timestamp           string `json:"timestamp,omitempty"`
	ChannelID           string `json:"channelId,omitempty"`
	PromptedForUserName bool   `json:"promptedUserForName,omitempty"`
}

// Bot is the state management sample bot.
type Bot struct {
	*bot.ActivityHandler

	conversationState *state.BotState
	userState         *state.BotState
	userProfile       *state.Property[UserProfile]
	conversationData  *state.Property[ConversationData]
	now               func() time.Time
	logger            *slog.Logger
}

// New creates the bot over the given state bags.
func New(conversationState, userState *state.BotState, logger *slog.Logger) (*Bot, error) {
	if conversationState == nil {
		return nil, boterror.New(boterror.InvalidArgument, "conversation_state_missing", nil)
	}
	if userState == nil {
		return nil, boterror.New(boterror.InvalidArgument, "user_state_missing", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{
		ActivityHandler:   bot.NewActivityHandler(),
		conversationState: conversationState,
		userState:         userState,
		userProfile:       state.NewProperty[UserProfile](userState, UserProfileProperty),
		conversationData:  state.NewProperty[ConversationData](conversationState, ConversationDataProperty),
		now:               time.Now,
		logger:            logger,
	}
	b.OnMembersAdded(b.welcome)
	b.OnMessage(b.onMessage)
	b.OnDialog(b.saveState)
	return b, nil
}

func (b *Bot) welcome(ctx context.Context, tc *bot.TurnContext) error {
	act := tc.Activity()
	for _, m := range act.MembersAdded {
		if m.ID != act.Recipient.ID {
			if err := tc.SendText(ctx, WelcomeText); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Bot) onMessage(ctx context.Context, tc *bot.TurnContext) error {
	profile, err := b.userProfile.Get(ctx, tc, func() UserProfile { return UserProfile{} })
	if err != nil {
		return err
	}
	data, err := b.conversationData.Get(ctx, tc, func() ConversationData { return ConversationData{} })
	if err != nil {
		return err
	}

	act := tc.Activity()
	if profile.Name == "" {
		if !data.PromptedForUserName {
			data.PromptedForUserName = true
			if err := b.conversationData.Set(ctx, tc, data); err != nil {
				return err
			}
			return tc.SendText(ctx, AskNameText)
		}

		name := strings.TrimSpace(act.Text)
		if name == "" {
			return tc.SendText(ctx, emptyNameText)
		}
		profile.Name = name
		data.PromptedForUserName = false
		if err := b.userProfile.Set(ctx, tc, profile); err != nil {
			return err
		}
		if err := b.conversationData.Set(ctx, tc, data); err != nil {
			return err
		}
		b.logger.InfoContext(ctx, "user profile created", "user_id", act.From.ID)
		return tc.SendText(ctx, fmt.Sprintf("Thanks %s. To see conversation data, type anything.", name))
	}

	received := act.Timestamp
	if received.IsZero() {
		received = b.now().UTC()
	}
	data.Timestamp = received.Format(time.RFC3339)
	data.ChannelID = act.ChannelID
	if err := b.conversationData.Set(ctx, tc, data); err != nil {
		return err
	}

	return tc.SendText(ctx, fmt.Sprintf("%s sent: %s\nMessage received at: %s\nMessage received from: %s",
		profile.Name, act.Text, data.Timestamp, data.ChannelID))
}

func (b *Bot) saveState(ctx context.Context, tc *bot.TurnContext) error {
	if err := b.conversationState.SaveChanges(ctx, tc, false); err != nil {
		return err
	}
	return b.userState.SaveChanges(ctx, tc, false)
}
