package middleware

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/maxapi"
)

// Logger attaches the correlation id and update metadata to the request
// context and logs one receipt line per update.
func Logger(next bot.HandlerFunc) bot.HandlerFunc {
	return func(c *bot.Context) error {
		upd := c.Update()
		userID, chatID := c.UserID(), c.ChatID()

		rid := logger.BuildRID(upd.Timestamp, chatID, userID)
		ctx := logger.WithRID(c.Context(), rid)
		ctx = logger.WithUpdateMeta(ctx, string(upd.UpdateType), userID, chatID)
		ctx = logger.WithTrace(ctx, uuid.NewString(), "")
		c.SetContext(ctx)

		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("rid", rid),
				slog.String("update_type", string(upd.UpdateType)),
			}
			if chatID != 0 {
				attrs = append(attrs, slog.Int64("chat_id", chatID))
			}
			if userID != 0 {
				attrs = append(attrs, slog.Int64("user_id", userID))
				if u := c.Sender(); u != nil && u.Username != "" {
					attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
				}
			}
			if upd.UserLocale != "" {
				attrs = append(attrs, slog.String("lang", upd.UserLocale))
			}

			switch upd.UpdateType {
			case maxapi.UpdateMessageCallback:
				key, payload := bot.SplitPayload(c.Data())
				if key != "" {
					attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
				}
				if payload != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
				}
			case maxapi.UpdateMessageCreated:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
				if m := c.Message(); m != nil && len(m.Body.Attachments) > 0 {
					attrs = append(attrs, slog.Int("attachments", len(m.Body.Attachments)))
				}
			}
			logger.Debug(ctx, logger.CompBot, "update.received", attrs...)
		}

		return next(c)
	}
}
