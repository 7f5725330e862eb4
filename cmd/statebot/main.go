package main

import (
	"context"
	"net/http"

	"github.com/SaratA8717/Botbuilder-samples/internal/bots/statebot"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler"
	"github.com/SaratA8717/Botbuilder-samples/internal/server"
)

func main() {
	server.Main("statebot", build)
}

func build(ctx context.Context, env *server.Env) (http.Handler, error) {
	id, err := server.EnvIdentity(ctx, env)
	if err != nil {
		return nil, err
	}
	// The instrumentation key is mandatory for this sample.
	adapter, err := server.NewAdapter(env, id, true)
	if err != nil {
		return nil, err
	}

	conversationState, userState, err := server.States(ctx, env)
	if err != nil {
		return nil, err
	}
	b, err := statebot.New(conversationState, userState, env.Logger)
	if err != nil {
		return nil, err
	}

	return handler.NewRouter(adapter, b.OnTurn, env.Logger), nil
}
