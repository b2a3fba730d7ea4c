package middleware

import (
	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/metrics"
)

// Metrics counts handled updates by type and outcome and the replies they produced.
func Metrics(next bot.HandlerFunc) bot.HandlerFunc {
	return func(c *bot.Context) error {
		err := next(c)
		kind := string(c.Type())
		outcome := "ok"
		if err != nil {
			outcome = "fail"
		}
		metrics.IncHandled(kind, outcome)
		n, kb := c.Replies()
		if kb {
			metrics.AddReplies("keyboard", 1)
			n--
		}
		metrics.AddReplies("text", n)
		return err
	}
}
