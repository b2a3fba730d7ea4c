package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/config"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/metrics"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited bot.HandlerFunc
	// Now is used by tests; defaults to time.Now.
	Now func() time.Time
}

// RateLimit enforces a minimum interval between updates from the same user.
// Limited updates are dropped after OnLimited runs.
func RateLimit(opts RateLimitOptions) bot.MiddlewareFunc {
	var (
		lastSeen = make(map[int64]time.Time)
		mu       sync.Mutex
	)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(c *bot.Context) error {
			userID := c.UserID()
			if userID == 0 || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Type())]; skip {
				return next(c)
			}

			ts := now()
			mu.Lock()
			if last, ok := lastSeen[userID]; ok && ts.Sub(last) < opts.Interval {
				mu.Unlock()
				metrics.IncRateLimited()
				logger.Warn(c.Context(), logger.CompBot, "rate_limit",
					slog.Int64("chat_id", c.ChatID()),
					slog.Int64("user_id", userID),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen[userID] = ts
			mu.Unlock()
			return next(c)
		}
	}
}

func updateKind(t maxapi.UpdateType) string {
	switch t {
	case maxapi.UpdateMessageCallback:
		return config.UpdateCallback
	case maxapi.UpdateMessageCreated:
		return config.UpdateMessage
	}
	return "other"
}
