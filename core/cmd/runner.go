package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/m3rciful/maxbot/core/bootstrap"
	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/middleware"
	coreconfig "github.com/m3rciful/maxbot/core/config"
	"github.com/m3rciful/maxbot/core/logger"
)

// DefaultConfigEnvVar names the environment variable holding the config path.
const DefaultConfigEnvVar = "CONFIG_PATH"

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	// Bot selects the module to run.
	Bot     string
	Modules bootstrap.Modules

	LoadConfig func(path string) (*coreconfig.Config, error)
	Bootstrap  func(ctx context.Context, opts bootstrap.Options) (*bootstrap.Result, error)

	ShutdownLogger func() error
	RunBot         func(ctx context.Context, opts bot.RunOptions) error
}

// ResolveConfigPath picks the config path from an explicit value, the
// environment, or the default, in that order.
func ResolveConfigPath(explicit, envVar, def string) string {
	if explicit != "" {
		return explicit
	}
	if envVar == "" {
		envVar = DefaultConfigEnvVar
	}
	if p := os.Getenv(envVar); p != "" {
		return p
	}
	return def
}

// Run loads configuration, bootstraps the selected bot, and starts the runtime
// until SIGINT or SIGTERM.
func Run(opts Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return RunContext(ctx, opts)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, opts Options) error {
	setup, err := opts.Modules.Lookup(opts.Bot)
	if err != nil {
		return fmt.Errorf("cmd: %w", err)
	}

	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = coreconfig.Load
	}
	cfgPath := ResolveConfigPath(opts.ConfigPath, opts.ConfigEnvVar, opts.DefaultConfigPath)
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via flag, %s or DefaultConfigPath", DefaultConfigEnvVar)
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	startedAt := time.Now()
	boot := opts.Bootstrap
	if boot == nil {
		boot = bootstrap.Run
	}
	app, err := boot(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("backend close error: %v", err)
		}
	}()

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	runOpts := bot.RunOptions{
		Config:          cfg,
		Client:          app.Client,
		Bot:             app.Bot,
		Handler:         setup(app.Bot),
		Middlewares:     middleware.Defaults(cfg, nil),
		Sweeper:         app.Sweeper,
		PublishCommands: true,
		OnStart: func(ctx context.Context, _ bot.Runtime) error {
			logger.Info(ctx, "app", "ready",
				slog.String("bot", opts.Bot),
				slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
			)
			return nil
		},
		OnStop: func(ctx context.Context, _ bot.Runtime) error {
			logger.Info(ctx, "app", "shutdown", slog.String("bot", opts.Bot))
			return nil
		},
	}

	run := opts.RunBot
	if run == nil {
		run = bot.Run
	}
	return run(ctx, runOpts)
}
