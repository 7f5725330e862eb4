package main

import (
	"context"
	"net/http"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/bots/adaptivecards"
	"github.com/SaratA8717/Botbuilder-samples/internal/config"
	"github.com/SaratA8717/Botbuilder-samples/internal/handler"
	"github.com/SaratA8717/Botbuilder-samples/internal/server"
)

func main() {
	server.Main("adaptivecardsbot", build)
}

func build(ctx context.Context, env *server.Env) (http.Handler, error) {
	id, err := identity(ctx, env)
	if err != nil {
		env.Logger.Error("error reading bot file, ensure botFilePath and botFileSecret are set for your environment", "error", err)
		return nil, err
	}
	adapter, err := server.NewAdapter(env, id, false)
	if err != nil {
		return nil, err
	}

	b, err := adaptivecards.New(adaptivecards.WithLogger(env.Logger))
	if err != nil {
		return nil, err
	}

	return handler.NewRouter(adapter, b.OnTurn, env.Logger), nil
}

// identity reads the endpoint service from the .bot file. Values missing
// there fall back to the environment.
func identity(ctx context.Context, env *server.Env) (server.Identity, error) {
	botCfg := env.Config.Bot
	if err := botCfg.RequireBotFile(); err != nil {
		return server.Identity{}, err
	}
	botFile, err := config.LoadBotFile(botCfg.BotFilePath, botCfg.BotFileSecret)
	if err != nil {
		return server.Identity{}, err
	}
	endpoint, err := botFile.Endpoint(adaptivecards.EndpointName)
	if err != nil {
		return server.Identity{}, boterror.New(boterror.ConfigurationError, "bot_file_endpoint", err)
	}

	fallback, err := server.EnvIdentity(ctx, env)
	if err != nil {
		return server.Identity{}, err
	}
	id := server.Identity{AppID: endpoint.AppID, AppPassword: endpoint.AppPassword}
	if id.AppID == "" {
		id.AppID = fallback.AppID
	}
	if id.AppPassword == "" {
		id.AppPassword = fallback.AppPassword
	}
	env.Logger.Info("bot file loaded", "name", botFile.Name, "endpoint", endpoint.Endpoint)
	return id, nil
}
