package main

import (
	"context"
	"net/http"

	"github.com/SaratA8717/Botbuilder-samples/internal/bots/cards"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler"
	"github.com/SaratA8717/Botbuilder-samples/internal/server"
)

func main() {
	server.Main("cardsbot", build)
}

func build(ctx context.Context, env *server.Env) (http.Handler, error) {
	id, err := server.EnvIdentity(ctx, env)
	if err != nil {
		return nil, err
	}
	adapter, err := server.NewAdapter(env, id, false)
	if err != nil {
		return nil, err
	}

	conversationState, userState, err := server.States(ctx, env)
	if err != nil {
		return nil, err
	}
	b, err := cards.New(conversationState, userState, env.Logger)
	if err != nil {
		return nil, err
	}

	return handler.NewRouter(adapter, b.OnTurn, env.Logger), nil
}
