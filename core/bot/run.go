package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/m3rciful/maxbot/core/config"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/metrics"
	"github.com/m3rciful/maxbot/core/session"
)

// RunOptions controls the behaviour of Run.
type RunOptions struct {
	Config *config.Config
	Client *maxapi.Client
	Bot    *Bot

	// Handler is the root handler, usually built by the router package.
	Handler     HandlerFunc
	Middlewares []Middleware

	// Sweeper, when set, runs alongside the update loop.
	Sweeper *session.Sweeper

	// OnError receives handler failures and failed fetches. Defaults to logging.
	OnError maxapi.ErrorHandler

	// PublishCommands pushes the registry's visible commands to the bot profile.
	PublishCommands bool
	// DisableWebhookCleanup keeps existing webhook subscriptions in long-poll mode.
	DisableWebhookCleanup bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot    *Bot
	Client *maxapi.Client
}

// UpdateHandler adapts h into a maxapi.UpdateHandler: every update gets a
// fresh Context and passes through mws.
func (b *Bot) UpdateHandler(h HandlerFunc, mws ...Middleware) maxapi.UpdateHandler {
	chained := Chain(h, mws...)
	return func(ctx context.Context, u maxapi.Update) error {
		return chained(NewContext(ctx, b, u))
	}
}

// Run composes and runs the bot until ctx is done or polling gives up.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return errors.New("bot: nil config provided")
	}
	if opts.Client == nil {
		return errors.New("bot: nil client provided")
	}
	if opts.Handler == nil {
		return errors.New("bot: nil handler provided")
	}
	cfg := opts.Config
	b := opts.Bot
	if b == nil {
		b = New(opts.Client)
	}
	onError := opts.OnError
	if onError == nil {
		onError = LogError
	}
	rt := Runtime{Bot: b, Client: opts.Client}

	if opts.PublishCommands {
		publishCommands(ctx, opts.Client, b.Registry)
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			closeDispatcher(b)
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if opts.Sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opts.Sweeper.Run(runCtx)
		}()
	}
	webhookMode := cfg.Bot.RunMode == config.RunModeWebhook
	metricsAddr := strings.TrimSpace(cfg.Metrics.Listen)
	if metricsAddr != "" && !(webhookMode && metricsAddr == cfg.Webhook.Listen) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := chi.NewRouter()
			r.Method("GET", "/metrics", metrics.Handler())
			if err := serveHTTP(runCtx, logger.CompWire, metricsAddr, r); err != nil {
				logger.Error(runCtx, logger.CompWire, "metrics.serve", slog.String("err", err.Error()))
			}
		}()
	}

	handle := b.UpdateHandler(opts.Handler, opts.Middlewares...)
	var runErr error
	if webhookMode {
		runErr = runWebhook(runCtx, cfg, opts.Client, handle, onError, metricsAddr != "")
	} else {
		runErr = runLongPoll(runCtx, cfg, opts.Client, handle, onError, !opts.DisableWebhookCleanup)
	}
	cancel()
	wg.Wait()

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	closeDispatcher(b)

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func runLongPoll(ctx context.Context, cfg *config.Config, client *maxapi.Client, handle maxapi.UpdateHandler, onError maxapi.ErrorHandler, cleanup bool) error {
	logger.Info(ctx, logger.CompWire, "mode",
		slog.String("mode", config.RunModeLongpoll),
		slog.Int("timeout_seconds", cfg.Bot.PollTimeoutSeconds),
		slog.Int("limit", cfg.Bot.Limit),
	)
	if cleanup {
		removeSubscriptions(ctx, client)
	}
	return client.RunPolling(ctx, handle, onError, maxapi.PollOptions{
		Limit:          cfg.Bot.Limit,
		TimeoutSeconds: cfg.Bot.PollTimeoutSeconds,
		MaxRetries:     cfg.Bot.MaxRetries,
		Types:          updateTypes(cfg.Bot.Types),
	})
}

func runWebhook(ctx context.Context, cfg *config.Config, client *maxapi.Client, handle maxapi.UpdateHandler, onError maxapi.ErrorHandler, withMetrics bool) error {
	start := time.Now()
	if _, err := client.Subscribe(ctx, maxapi.SubscribeParams{
		URL:         cfg.Webhook.URL,
		UpdateTypes: updateTypes(cfg.Bot.Types),
		Secret:      cfg.Webhook.Secret,
	}); err != nil {
		return fmt.Errorf("bot: webhook subscribe: %w", err)
	}
	logger.Info(ctx, logger.CompWire, "mode",
		slog.String("mode", config.RunModeWebhook),
		slog.String("listen", cfg.Webhook.Listen),
		slog.String("public_url", cfg.Webhook.URL),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	r := NewWebhookRouter(WebhookOptions{
		Path:    cfg.Webhook.Path,
		Secret:  cfg.Webhook.Secret,
		Metrics: withMetrics && cfg.Metrics.Listen == cfg.Webhook.Listen,
	}, handle, onError)
	return serveHTTP(ctx, logger.CompWebhook, cfg.Webhook.Listen, r)
}

// removeSubscriptions drops every webhook so GET /updates delivers again.
func removeSubscriptions(ctx context.Context, client *maxapi.Client) {
	subs, err := client.GetSubscriptions(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompWire, "webhook.list", slog.String("err", err.Error()))
		return
	}
	for _, s := range subs {
		if _, err := client.Unsubscribe(ctx, s.URL); err != nil {
			logger.Warn(ctx, logger.CompWire, "webhook.delete",
				slog.String("url", s.URL),
				slog.String("err", err.Error()),
			)
			continue
		}
		logger.Info(ctx, logger.CompWire, "webhook.delete", slog.String("url", s.URL))
	}
}

func publishCommands(ctx context.Context, client *maxapi.Client, reg *Registry) {
	if reg == nil {
		return
	}
	cmds := reg.ListCommands(true)
	if len(cmds) == 0 {
		return
	}
	for i := range cmds {
		cmds[i].Name = strings.TrimPrefix(cmds[i].Name, "/")
	}
	if _, err := client.SetMyCommands(ctx, cmds); err != nil {
		logger.Warn(ctx, logger.CompWire, "commands.publish", slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, logger.CompWire, "commands.publish", slog.Int("commands", len(cmds)))
}

func closeDispatcher(b *Bot) {
	if b != nil && b.Dispatcher != nil {
		b.Dispatcher.Close()
	}
}

func updateTypes(in []string) []maxapi.UpdateType {
	if len(in) == 0 {
		return nil
	}
	out := make([]maxapi.UpdateType, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, maxapi.UpdateType(t))
		}
	}
	return out
}

// LogError is the default error callback: it logs and moves on.
func LogError(ctx context.Context, err error, u *maxapi.Update) {
	if err == nil {
		return
	}
	attrs := []slog.Attr{slog.String("err", logger.SanitizeLimit(err.Error(), 512))}
	if u == nil {
		logger.Warn(ctx, logger.CompPoll, "fetch.error", attrs...)
		return
	}
	attrs = append(attrs,
		slog.String("update_type", string(u.UpdateType)),
		slog.Int64("user_id", u.SenderID()),
		slog.Int64("chat_id", u.ChatIDHint()),
	)
	logger.Error(ctx, logger.CompBot, "update.error", attrs...)
}
