package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/metrics"
)

// Sweeper defaults.
const (
	DefaultSweepInterval = time.Hour
	DefaultSessionTTL    = 24 * time.Hour
	DefaultCallbackTTL   = time.Hour
)

// Sweeper periodically expires idle sessions and stale callback correlations.
// The two retention windows are independent.
type Sweeper struct {
	Sessions    Store
	Callbacks   CallbackStore
	Interval    time.Duration
	SessionTTL  time.Duration
	CallbackTTL time.Duration
}

// SweepResult reports what one pass removed.
type SweepResult struct {
	Sessions  int
	Callbacks int
}

// Run sweeps every Interval until ctx is done. Failures are logged and the
// next tick proceeds normally.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	logger.Info(ctx, logger.CompSession, "sweep.start", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, logger.CompSession, "sweep.stop")
			return
		case now := <-t.C:
			_, _ = s.SweepOnce(ctx, now)
		}
	}
}

// SweepOnce removes sessions idle longer than SessionTTL and callbacks older
// than CallbackTTL, measured from now. Both stores are swept even if the
// first fails; the first error is returned.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (SweepResult, error) {
	var (
		res      SweepResult
		firstErr error
	)
	if s.Sessions != nil {
		n, err := s.Sessions.DeleteIdle(ctx, now.Add(-ttlOr(s.SessionTTL, DefaultSessionTTL)))
		res.Sessions = n
		if err != nil {
			firstErr = err
			logger.Error(ctx, logger.CompSession, "sweep.sessions",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	if s.Callbacks != nil {
		n, err := s.Callbacks.DeleteCallbacksBefore(ctx, now.Add(-ttlOr(s.CallbackTTL, DefaultCallbackTTL)))
		res.Callbacks = n
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logger.Error(ctx, logger.CompSession, "sweep.callbacks",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	metrics.ObserveSweep(res.Sessions, res.Callbacks, firstErr)
	logger.Info(ctx, logger.CompSession, "sweep.done",
		slog.String("status", logger.Status(firstErr)),
		slog.Int("sessions", res.Sessions),
		slog.Int("callbacks", res.Callbacks),
	)
	return res, firstErr
}

func ttlOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
