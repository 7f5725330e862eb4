package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/bots/cards"
	"github.com/SaratA8717/Botbuilder-samples/internal/config"
	lambdahandler "github.com/SaratA8717/Botbuilder-samples/internal/handler/lambda"
	"github.com/SaratA8717/Botbuilder-samples/internal/server"
)

func main() {
	ctx := context.Background()

	h, err := build(ctx)
	if err != nil {
		slog.Error("failed to start lambda bot", "err", err)
		fmt.Fprintf(os.Stderr, "lambdabot: %v\n", err)
		os.Exit(server.ExitCode(err))
	}

	lambda.Start(h.Handle)
}

// build wires the cards dialog bot over DynamoDB state. The app password is
// read from SSM Parameter Store when MicrosoftAppPasswordParam is set.
func build(ctx context.Context) (*lambdahandler.Handler, error) {
	env, err := server.Bootstrap()
	if err != nil {
		return nil, err
	}
	if env.Config.Storage.Backend != config.StorageDynamoDB {
		return nil, boterror.New(boterror.ConfigurationError, "storage_backend",
			fmt.Errorf("STORAGE_BACKEND must be %s, got %q", config.StorageDynamoDB, env.Config.Storage.Backend))
	}

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

	return lambdahandler.NewHandler(adapter, b.OnTurn, env.Logger)
}
