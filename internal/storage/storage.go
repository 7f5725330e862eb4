// Package storage selects the state.Storage backend named by configuration.
package storage

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/config"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
	"github.com/SaratA8717/Botbuilder-samples/internal/storage/boltstore"
	"github.com/SaratA8717/Botbuilder-samples/internal/storage/dynamostore"
)

// Open returns the configured storage and a function releasing it.
func Open(ctx context.Context, cfg config.StorageConfig) (state.Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", config.StorageMemory:
		return state.NewMemoryStorage(), noop, nil

	case config.StorageBolt:
		s, err := boltstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, boterror.New(boterror.StorageUnavailable, "open_bolt", err)
		}
		return s, s.Close, nil

	case config.StorageDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, boterror.New(boterror.ConfigurationError, "aws_config", err)
		}
		s, err := dynamostore.New(awsdynamodb.NewFromConfig(awsCfg), cfg.Table)
		if err != nil {
			return nil, nil, boterror.New(boterror.ConfigurationError, "dynamodb", err)
		}
		return s, noop, nil

	default:
		return nil, nil, boterror.New(boterror.ConfigurationError, "storage_backend", fmt.Errorf("unknown backend %q", cfg.Backend))
	}
}
