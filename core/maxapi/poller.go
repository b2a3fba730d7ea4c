package maxapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/metrics"
)

// ErrAlreadyRunning is returned by Run when another Run on the same Poller is active.
var ErrAlreadyRunning = errors.New("maxapi: polling already running")

// Poll defaults.
const (
	DefaultPollLimit      = 100
	DefaultPollTimeout    = 30
	DefaultPollMaxRetries = 5
	DefaultMaxBackoff     = 5 * time.Minute
)

// UpdateFetcher is the single API call the Poller depends on.
type UpdateFetcher interface {
	GetUpdates(ctx context.Context, p GetUpdatesParams) (*UpdateBatch, error)
}

// UpdateHandler processes one update. Errors are reported, never fatal.
type UpdateHandler func(ctx context.Context, u Update) error

// ErrorHandler receives handler failures (with the update) and fetch
// failures (with a nil update).
type ErrorHandler func(ctx context.Context, err error, u *Update)

// PollOptions tunes Run. Zero values select the defaults.
type PollOptions struct {
	Limit          int
	TimeoutSeconds int
	MaxRetries     int
	Types          []UpdateType
	// MaxBackoff caps the exponential delay between failed fetches.
	MaxBackoff time.Duration
	// Marker resumes from a known cursor instead of the poller's current one.
	Marker *int64
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultPollLimit
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = DefaultPollTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultPollMaxRetries
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = DefaultMaxBackoff
	}
	return o
}

// Poller drives the long-poll loop: fetch a batch, dispatch it in order,
// advance the cursor, repeat. At most one Run is active per Poller.
//
// Delivery is at least once: the cursor advances past a batch even when some
// of its handlers failed, and a crash mid-batch replays the whole batch.
type Poller struct {
	fetcher UpdateFetcher
	sleep   func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	marker  *int64
}

// NewPoller creates a Poller over f.
func NewPoller(f UpdateFetcher) *Poller {
	return &Poller{fetcher: f, sleep: sleepCtx}
}

// advance moves the cursor to m. The cursor never moves backwards.
func (p *Poller) advance(ctx context.Context, m int64) {
	p.mu.Lock()
	cur := p.marker
	if cur == nil || m >= *cur {
		p.marker = &m
	}
	p.mu.Unlock()
	if cur != nil && m < *cur {
		logger.Warn(ctx, logger.CompPoll, "poll.marker_regress",
			slog.Int64("marker", *cur),
			slog.Int64("returned", m),
		)
	}
}

// Marker returns the cursor the next fetch will use.
func (p *Poller) Marker() (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.marker == nil {
		return 0, false
	}
	return *p.marker, true
}

// Running reports whether Run is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stop cancels the active Run. It is safe to call at any time, any number of times.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Run polls until ctx is cancelled, Stop is called, or MaxRetries consecutive
// fetches fail. Cancellation returns nil; exhausting retries returns the last
// fetch error. A failed fetch is retried with the same cursor after 2^n
// seconds, where n counts consecutive failures.
func (p *Poller) Run(ctx context.Context, handler UpdateHandler, onError ErrorHandler, opts PollOptions) error {
	if handler == nil {
		return errors.New("maxapi: nil update handler")
	}
	opts = opts.withDefaults()

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	if opts.Marker != nil {
		m := *opts.Marker
		p.marker = &m
	}
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
		metrics.SetPollBackoff(0)
	}()

	logger.Info(ctx, logger.CompPoll, "poll.start",
		slog.Int("limit", opts.Limit),
		slog.Int("timeout", opts.TimeoutSeconds),
		slog.Int("max_retries", opts.MaxRetries),
	)

	retries := 0
	for {
		if ctx.Err() != nil {
			logger.Info(ctx, logger.CompPoll, "poll.stop", slog.String("status", "cancelled"))
			return nil
		}

		params := GetUpdatesParams{
			Limit:   opts.Limit,
			Timeout: opts.TimeoutSeconds,
			Types:   opts.Types,
		}
		if m, ok := p.Marker(); ok {
			params.Marker = &m
		}

		batch, err := p.fetcher.GetUpdates(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, logger.CompPoll, "poll.stop", slog.String("status", "cancelled"))
				return nil
			}
			retries++
			metrics.IncPollFetch(false)
			report(ctx, onError, err, nil)
			if retries >= opts.MaxRetries {
				logger.Error(ctx, logger.CompPoll, "poll.giveup",
					slog.Int("attempts", retries),
					slog.String("err", err.Error()),
				)
				return fmt.Errorf("maxapi: polling gave up after %d attempts: %w", retries, err)
			}
			delay := backoff(retries, opts.MaxBackoff)
			logger.Warn(ctx, logger.CompPoll, "poll.retry",
				slog.String("status", "retry"),
				slog.Int("attempt", retries),
				slog.Duration("backoff", delay),
				slog.String("err", err.Error()),
			)
			metrics.SetPollBackoff(delay)
			if err := p.sleep(ctx, delay); err != nil {
				logger.Info(ctx, logger.CompPoll, "poll.stop", slog.String("status", "cancelled"))
				return nil
			}
			continue
		}

		retries = 0
		metrics.IncPollFetch(true)
		metrics.SetPollBackoff(0)
		if batch == nil {
			continue
		}
		for i := range batch.Updates {
			p.dispatch(ctx, handler, onError, batch.Updates[i])
		}
		if batch.Marker != nil {
			p.advance(ctx, *batch.Marker)
		}
		if len(batch.Updates) > 0 {
			logger.Debug(ctx, logger.CompPoll, "poll.batch",
				slog.Int("batch", len(batch.Updates)),
				slog.Int64("marker", derefMarker(batch.Marker)),
			)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, handler UpdateHandler, onError ErrorHandler, u Update) {
	metrics.IncPollUpdate(string(u.UpdateType))
	if err := safeHandle(ctx, handler, u); err != nil {
		metrics.IncPollHandlerError(string(u.UpdateType))
		logger.Warn(ctx, logger.CompPoll, "poll.handler_failed",
			slog.String("update_type", string(u.UpdateType)),
			slog.String("err", err.Error()),
		)
		report(ctx, onError, err, &u)
	}
}

func safeHandle(ctx context.Context, handler UpdateHandler, u Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("maxapi: update handler panic: %v", r)
		}
	}()
	return handler(ctx, u)
}

func report(ctx context.Context, onError ErrorHandler, err error, u *Update) {
	if onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, logger.CompPoll, "poll.error_handler_panic", slog.Any("cause", r))
		}
	}()
	onError(ctx, err, u)
}

func backoff(attempt int, ceiling time.Duration) time.Duration {
	if attempt >= 30 {
		return ceiling
	}
	d := time.Duration(1<<attempt) * time.Second
	if d > ceiling {
		return ceiling
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func derefMarker(m *int64) int64 {
	if m == nil {
		return 0
	}
	return *m
}
