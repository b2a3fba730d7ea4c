package middleware

import (
	"strings"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/config"
)

// Defaults builds the shared middleware chain for bots.
func Defaults(cfg *config.Config, onLimited bot.HandlerFunc) []bot.Middleware {
	mws := []bot.Middleware{
		{Name: "recover", Use: Recover},
		{Name: "logger", Use: Logger},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, bot.Middleware{
				Name: "rate_limit",
				Use:  RateLimit(RateLimitOptions{Interval: interval, Exclude: ex, OnLimited: onLimited}),
			})
		}
	}

	mws = append(mws,
		bot.Middleware{Name: "metrics", Use: Metrics},
		bot.Middleware{Name: "session", Use: Touch},
	)
	return mws
}
