// Package server 负责启动示例机器人：加载配置、构建机器人并通过 HTTP 提供服务，直到进程收到停止信号。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
	"github.com/SaratA8717/Botbuilder-samples/internal/config"
	"github.com/SaratA8717/Botbuilder-samples/internal/config/paramstore"
	"github.com/SaratA8717/Botbuilder-samples/internal/logging"
)

// 进程退出码。
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

const shutdownTimeout = 10 * time.Second

// Env 是示例构建机器人所需的运行环境。
type Env struct {
	Config *config.Config
	Logger *slog.Logger

	closers []func() error
}

// OnClose 注册服务停止后执行的清理函数，按注册的逆序执行。
func (e *Env) OnClose(fn func() error) {
	if fn != nil {
		e.closers = append(e.closers, fn)
	}
}

func (e *Env) close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildFunc 构建示例的 HTTP 处理器。
type BuildFunc func(ctx context.Context, env *Env) (http.Handler, error)

// Main 运行示例并退出进程。配置错误会在提供服务之前以 ExitConfigError 退出。
func Main(name string, build BuildFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := Start(ctx, name, build)
	stop()

	code := ExitCode(err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
	}
	os.Exit(code)
}

// Start 加载 .env 与配置，构建示例并持续提供服务直到 ctx 结束。
func Start(ctx context.Context, name string, build BuildFunc) error {
	env, err := Bootstrap()
	if err != nil {
		return err
	}

	handler, err := build(ctx, env)
	if err != nil {
		return errors.Join(err, env.close())
	}

	env.Logger.Info("bot listening", "name", name, "addr", env.Config.Server.Addr, "endpoint", "/api/messages")
	runErr := Run(ctx, env.Config.Server, handler)
	return errors.Join(runErr, env.close())
}

// Bootstrap 加载 .env（如存在）、配置与日志器。
func Bootstrap() (*Env, error) {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, boterror.New(boterror.ConfigurationError, "log", err)
	}
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", "error", envErr)
	}
	return &Env{Config: cfg, Logger: logger}, nil
}

// AppPassword 返回应用密码；只配置了参数名时从 SSM Parameter Store 读取。
func AppPassword(ctx context.Context, cfg config.BotConfig) (string, error) {
	if cfg.AppPassword != "" || cfg.AppPasswordParam == "" {
		return cfg.AppPassword, nil
	}
	client, err := paramstore.NewFromDefaultConfig(ctx)
	if err != nil {
		return "", boterror.New(boterror.ConfigurationError, "app_password_param", err)
	}
	secret, err := paramstore.ResolveSecret(ctx, client, cfg.AppPassword, cfg.AppPasswordParam)
	if err != nil {
		return "", boterror.New(boterror.ConfigurationError, "app_password_param", err)
	}
	return secret, nil
}

// ExitCode 把 Start 返回的错误映射为进程退出码。
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case boterror.Is(err, boterror.ConfigurationError):
		return ExitConfigError
	default:
		return ExitFailure
	}
}

// Run 在 cfg.Addr 上提供服务，直到 ctx 结束后优雅关闭。
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
