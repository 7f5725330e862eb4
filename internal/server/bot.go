package server

import (
	"context"

	"github.com/SaratA8717/Botbuilder-samples/internal/bot"
	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/state"
	"github.com/SaratA8717/Botbuilder-samples/internal/storage"
	"github.com/SaratA8717/Botbuilder-samples/internal/telemetry"
)

// Identity 是机器人运行时使用的应用 ID 与密码。
type Identity struct {
	AppID       string
	AppPassword string
}

// NewAdapter 为 id 创建适配器。配置了遥测密钥时挂载遥测中间件；
// requireTelemetry 为 true 时密钥必填。
func NewAdapter(env *Env, id Identity, requireTelemetry bool) (*bot.Adapter, error) {
	tcfg := env.Config.Telemetry
	if requireTelemetry {
		if err := tcfg.RequireInstrumentationKey(); err != nil {
			return nil, err
		}
	}

	adapter := bot.NewAdapter(func(o *bot.AdapterOptions) {
		o.AppID = id.AppID
		o.AppPassword = id.AppPassword
		o.Logger = env.Logger
	})
	if adapter.HasCredentials() {
		env.Logger.Info("app credentials configured; inbound requests are not authenticated", "app_id", id.AppID)
	}

	if tcfg.InstrumentationKey == "" {
		return adapter, nil
	}
	mw, closeFn, err := telemetry.NewMiddlewareFromConfig(tcfg, env.Logger)
	if err != nil {
		return nil, boterror.New(boterror.ConfigurationError, "telemetry", err)
	}
	env.OnClose(func() error { closeFn(); return nil })
	adapter.Use(mw)
	return adapter, nil
}

// EnvIdentity 从环境变量配置解析机器人身份。
func EnvIdentity(ctx context.Context, env *Env) (Identity, error) {
	password, err := AppPassword(ctx, env.Config.Bot)
	if err != nil {
		return Identity{}, err
	}
	return Identity{AppID: env.Config.Bot.AppID, AppPassword: password}, nil
}

// States 打开配置的存储并基于它创建会话状态与用户状态。存储随 env 一起关闭。
func States(ctx context.Context, env *Env) (conversation, user *state.BotState, err error) {
	store, closeFn, err := storage.Open(ctx, env.Config.Storage)
	if err != nil {
		return nil, nil, err
	}
	env.OnClose(closeFn)
	env.Logger.Info("state storage ready", "backend", env.Config.Storage.Backend)

	if conversation, err = state.NewConversationState(store); err != nil {
		return nil, nil, err
	}
	if user, err = state.NewUserState(store); err != nil {
		return nil, nil, err
	}
	return conversation, user, nil
}
