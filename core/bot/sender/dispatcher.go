package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/maxapi/netutil"
	"github.com/m3rciful/maxbot/core/metrics"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("sender: queue full")

	secretRe = regexp.MustCompile(`(?i)(access_token|token|secret)=[^&\s"]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

// RunFunc performs one attempt of an outbound call.
type RunFunc func(ctx context.Context) error

type job struct {
	id     string
	ctx    context.Context
	action string
	run    RunFunc
}

// Dispatcher executes outbound API calls asynchronously with retries.
type Dispatcher struct {
	opts Options
	jobs chan job

	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts a dispatcher, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run for asynchronous execution. run must be idempotent
// when retries are enabled. The job outlives the caller's cancellation but
// keeps its log fields.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run RunFunc) error {
	if run == nil {
		return errors.New("sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	j := job{id: uuid.NewString(), ctx: context.WithoutCancel(ctx), action: action, run: run}
	select {
	case d.jobs <- j:
		metrics.SetSenderQueueDepth(len(d.jobs))
		return nil
	default:
		metrics.IncSenderJob(action, "rejected")
		return ErrQueueFull
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
		metrics.SetSenderQueueDepth(0)
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		metrics.SetSenderQueueDepth(len(d.jobs))
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	deadlineCtx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	logger.Debug(ctx, logger.CompSender, "send.start", sendLogAttrs(ctx, j)...)

	var lastErr error
	attempts := d.opts.MaxRetries + 1

attemptLoop:
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := deadlineCtx.Err(); err != nil {
			lastErr = err
			break
		}
		err := j.run(deadlineCtx)
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, logger.CompSender, "send.retry.success",
					append(sendLogAttrs(ctx, j),
						slog.Int("attempt", attempt),
						slog.Duration("elapsed", time.Since(start)),
					)...,
				)
			}
			metrics.IncSenderJob(j.action, "ok")
			logger.Debug(ctx, logger.CompSender, "send.success",
				append(sendLogAttrs(ctx, j), slog.Duration("elapsed", time.Since(start)))...)
			return
		}
		lastErr = err
		if !ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := d.opts.RetryBackoff * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
			lastErr = errors.Join(err, deadlineCtx.Err())
			break attemptLoop
		case <-timer.C:
			logger.Debug(ctx, logger.CompSender, "send.retry.backoff",
				append(sendLogAttrs(ctx, j),
					slog.Int("attempt", attempt),
					slog.Duration("delay", delay),
				)...,
			)
		}
	}

	d.errs.Add(1)
	metrics.IncSenderJob(j.action, "fail")
	logSendFailure(ctx, j, lastErr, attempts, time.Since(start))
}

// ShouldRetry reports whether an outbound call failure is worth repeating:
// throttling, server errors and transient network failures.
func ShouldRetry(err error) bool {
	var apiErr *maxapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return netutil.ShouldRetry(err)
}

func sendLogAttrs(ctx context.Context, j job) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.String("job_id", j.id),
	}
	if rid := logger.RIDFrom(ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	if userID := logger.UserIDFrom(ctx); userID != 0 {
		attrs = append(attrs, slog.Int64("user_id", userID))
	}
	return attrs
}

func logSendFailure(ctx context.Context, j job, err error, attempts int, elapsed time.Duration) {
	attrs := append(sendLogAttrs(ctx, j),
		slog.String("status", "fail"),
		slog.String("err", SanitizeError(err)),
		slog.String("err_kind", ClassifyError(err)),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", elapsed),
	)
	logger.Error(ctx, logger.CompSender, "send.fail", attrs...)
}

// ClassifyError buckets an outbound failure for logs.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var apiErr *maxapi.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limited"
		case apiErr.StatusCode >= 500:
			return "http_5xx"
		case apiErr.StatusCode >= 400:
			return "http_4xx"
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return "timeout"
		}
		if opErr.Op == "dial" {
			return "dial"
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}
	return "unknown"
}

// SanitizeError renders err with credentials in query strings redacted.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := secretRe.ReplaceAllString(err.Error(), "$1=<redacted>")
	return logger.SanitizeLimit(msg, 512)
}
