package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/sender"
	"github.com/m3rciful/maxbot/core/buildinfo"
	coreconfig "github.com/m3rciful/maxbot/core/config"
	coredatabase "github.com/m3rciful/maxbot/core/database"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/metrics"
	"github.com/m3rciful/maxbot/core/session"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
	Redis      func(ctx context.Context, addr, password string, db int) (*redis.Client, error)
	// API replaces the MAX client used by handlers, e.g. in tests.
	API bot.API
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Client  *maxapi.Client
	Bot     *bot.Bot
	Sweeper *session.Sweeper

	closers []func() error
}

// Close releases the session backend.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run initializes the logger, the MAX client, the session backend selected by
// session.store and the optional outbound dispatcher.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	metrics.SetBuildInfo(buildinfo.Version, buildinfo.Commit)

	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: client init failed: %w", err)
	}

	res := &Result{Client: client}
	backend, err := openBackend(ctx, cfg, opts, res)
	if err != nil {
		_ = res.Close()
		return nil, err
	}

	var api bot.API = client
	if opts.API != nil {
		api = opts.API
	}
	b := bot.New(api)
	b.Sessions = backend
	b.Callbacks = backend
	b.AdminID = cfg.Bot.AdminID
	if cfg.Sender.Workers > 0 {
		b.Dispatcher = sender.NewDispatcher(sender.Options{
			Workers:      cfg.Sender.Workers,
			QueueSize:    cfg.Sender.QueueSize,
			MaxRetries:   cfg.Sender.MaxRetries,
			RetryBackoff: cfg.Sender.Backoff,
			MaxDuration:  cfg.Sender.MaxDuration,
		})
	}
	res.Bot = b
	res.Sweeper = &session.Sweeper{
		Sessions:    backend,
		Callbacks:   backend,
		Interval:    cfg.Session.SweepInterval,
		SessionTTL:  cfg.Session.SessionTTL,
		CallbackTTL: cfg.Session.CallbackTTL,
	}

	logger.Info(ctx, logger.CompWire, "bootstrap",
		slog.String("store", cfg.Session.Store),
		slog.Int("sender_workers", cfg.Sender.Workers),
		slog.String("run_mode", cfg.Bot.RunMode),
	)
	return res, nil
}

// NewClient builds the MAX client from the bot section.
func NewClient(cfg *coreconfig.Config) (*maxapi.Client, error) {
	return maxapi.NewClient(cfg.Bot.Token,
		maxapi.WithBaseURL(cfg.Bot.BaseURL),
		maxapi.WithTimeout(cfg.Bot.RequestTimeout()),
	)
}

func openBackend(ctx context.Context, cfg *coreconfig.Config, opts Options, res *Result) (session.Backend, error) {
	switch cfg.Session.Store {
	case coreconfig.StorePostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.closers = append(res.closers, db.Close)

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return session.NewPostgresStore(db), nil

	case coreconfig.StoreRedis:
		dial := opts.Redis
		if dial == nil {
			dial = session.NewRedisClient
		}
		rdb, err := dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.closers = append(res.closers, rdb.Close)
		return session.NewRedisStore(rdb, cfg.Redis.Prefix), nil

	default:
		return session.NewMemoryStore(), nil
	}
}
