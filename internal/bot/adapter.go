package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// ApologyText is sent to the user when a turn fails with an unhandled error.
const ApologyText = "Oops. Something went wrong!"

// Middleware wraps every turn processed by an Adapter. Implementations must
// call next to continue the pipeline.
type Middleware interface {
	OnTurn(ctx context.Context, tc *TurnContext, next func(ctx context.Context) error) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, tc *TurnContext, next func(ctx context.Context) error) error

// OnTurn calls f.
func (f MiddlewareFunc) OnTurn(ctx context.Context, tc *TurnContext, next func(ctx context.Context) error) error {
	return f(ctx, tc, next)
}

// TurnErrorHandler is the top-level per-turn error boundary.
type TurnErrorHandler func(ctx context.Context, tc *TurnContext, err error) error

// AdapterOptions configures an Adapter.
type AdapterOptions struct {
	// AppID and AppPassword identify the bot. Channel authentication is
	// not performed; they are only carried for outbound addressing.
	AppID       string
	AppPassword string
	Logger      *slog.Logger
	// OnTurnError replaces the default error boundary, which logs the error
	// and sends ApologyText.
	OnTurnError TurnErrorHandler
}

// Adapter turns decoded inbound activities into turns: it builds the turn
// context, runs middleware, invokes the bot logic and applies the error
// boundary. It is safe for concurrent use once configured.
type Adapter struct {
	appID       string
	appPassword string
	logger      *slog.Logger
	onTurnError TurnErrorHandler
	middleware  []Middleware
}

// NewAdapter creates an Adapter with optional overrides.
func NewAdapter(optFns ...func(o *AdapterOptions)) *Adapter {
	opts := AdapterOptions{Logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &Adapter{
		appID:       opts.AppID,
		appPassword: opts.AppPassword,
		logger:      opts.Logger,
		onTurnError: opts.OnTurnError,
	}
	if a.onTurnError == nil {
		a.onTurnError = a.defaultTurnError
	}
	return a
}

// AppID returns the configured application id.
func (a *Adapter) AppID() string { return a.appID }

// HasCredentials reports whether both app id and password are configured.
func (a *Adapter) HasCredentials() bool { return a.appID != "" && a.appPassword != "" }

// Use appends middleware. Call before serving.
func (a *Adapter) Use(mw ...Middleware) *Adapter {
	a.middleware = append(a.middleware, mw...)
	return a
}

// ProcessActivity runs one turn for act. Replies go to sink. An error is
// returned for invalid input, or when the turn failed and the error boundary
// itself failed.
func (a *Adapter) ProcessActivity(ctx context.Context, act *activity.Activity, sink ReplySink, logic Handler) error {
	if act == nil {
		return boterror.New(boterror.InvalidArgument, "activity_nil", nil)
	}
	if logic == nil {
		return boterror.New(boterror.InvalidArgument, "logic_nil", nil)
	}
	if err := act.Validate(); err != nil {
		return boterror.New(boterror.InvalidArgument, "activity_invalid", err)
	}

	tc := NewTurnContext(act, sink)
	err := a.runPipeline(ctx, tc, 0, logic)
	if err == nil {
		return nil
	}

	turnErr := boterror.New(boterror.UnhandledTurnError, string(act.Type), err)
	if hErr := a.onTurnError(ctx, tc, turnErr); hErr != nil {
		return fmt.Errorf("turn error handler: %w", hErr)
	}
	return nil
}

func (a *Adapter) runPipeline(ctx context.Context, tc *TurnContext, i int, logic Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during turn: %v", r)
		}
	}()

	if i < len(a.middleware) {
		return a.middleware[i].OnTurn(ctx, tc, func(ctx context.Context) error {
			return a.runPipeline(ctx, tc, i+1, logic)
		})
	}
	return logic(ctx, tc)
}

func (a *Adapter) defaultTurnError(ctx context.Context, tc *TurnContext, err error) error {
	act := tc.Activity()
	a.logger.Error("[onTurnError] unhandled error",
		"error", err,
		"activity_type", act.Type,
		"conversation_id", act.Conversation.ID,
		"channel_id", act.ChannelID,
	)
	return tc.SendText(ctx, ApologyText)
}
