package middleware

import (
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/session"
)

// Touch refreshes the sender's session activity before the handler runs.
// Users without a session are left alone; handlers create one on demand.
func Touch(next bot.HandlerFunc) bot.HandlerFunc {
	return func(c *bot.Context) error {
		st := c.Bot().Sessions
		if st != nil && c.UserID() != 0 {
			if _, err := session.Touch(c.Context(), st, c.UserID(), time.Now()); err != nil && !errors.Is(err, session.ErrNotFound) {
				logger.Warn(c.Context(), logger.CompSession, "touch",
					slog.Int64("user_id", c.UserID()),
					slog.String("err", err.Error()),
				)
			}
		}
		return next(c)
	}
}
