package router

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/logger"
	"github.com/m3rciful/maxbot/core/session"
)

// Notifications sent when a callback cannot be attributed.
const (
	NoUserText = "Error: cannot identify user"
	NoChatText = "Error: cannot identify chat"
)

// ErrNoUser is reported for callbacks without a user.
var ErrNoUser = errors.New("router: callback without user")

func routeCallback(c *bot.Context, reg *bot.Registry, opts Options) error {
	start := time.Now()
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	key, _ := bot.SplitPayload(cb.Payload)
	name := "callback." + normalizeHandlerName(key)
	extras := []slog.Attr{slog.String("cb_key", key)}

	if c.UserID() == 0 {
		answerQuietly(c, NoUserText)
		logHandlerSummary(c, name, start, "fail", ErrNoUser, extras...)
		return ErrNoUser
	}

	chatID, source := resolveChat(c)
	if chatID == 0 {
		answerQuietly(c, NoChatText)
		err := fmt.Errorf("callback %s from user %d: %w", cb.CallbackID, c.UserID(), bot.ErrNoChat)
		logHandlerSummary(c, name, start, "fail", err, extras...)
		return err
	}
	c.SetChatID(chatID)
	extras = append(extras, slog.String("chat_source", source))
	remember(c, chatID)

	h, route, ok := reg.GetCallback(cb.Payload)
	if !ok || h == nil {
		extras = append(extras, slog.String("reason", "not_found"))
		fallback := reg.CallbackNotFound()
		return handleWithSummary(c, name, start, func() error {
			if fallback != nil {
				return fallback(c)
			}
			return nil
		}, extras...)
	}

	if opts.AckText != "" {
		answerQuietly(c, opts.AckText)
	}
	return handleWithSummary(c, "callback."+normalizeHandlerName(route), start, func() error {
		return h(c)
	}, extras...)
}

// resolveChat finds the chat of a callback: the callback itself, the
// update envelope, the callback correlation store, then the user's session.
func resolveChat(c *bot.Context) (int64, string) {
	cb := c.Callback()
	if cb.ChatID != 0 {
		return cb.ChatID, "callback"
	}
	if id := c.Update().ChatID; id != 0 {
		return id, "update"
	}
	ctx := c.Context()
	b := c.Bot()
	if b.Callbacks != nil && cb.CallbackID != "" {
		ref, ok, err := b.Callbacks.LookupCallback(ctx, cb.CallbackID)
		if err != nil {
			logger.Warn(ctx, logger.CompRouter, "callback.lookup", slog.String("err", err.Error()))
		} else if ok && ref.ChatID != 0 {
			return ref.ChatID, "callback_store"
		}
	}
	if b.Sessions != nil {
		s, ok, err := b.Sessions.Get(ctx, c.UserID())
		if err != nil {
			logger.Warn(ctx, logger.CompRouter, "session.lookup", slog.String("err", err.Error()))
		} else if ok && s.ChatID != 0 {
			return s.ChatID, "session"
		}
	}
	return 0, ""
}

func remember(c *bot.Context, chatID int64) {
	b := c.Bot()
	if b.Callbacks == nil || c.Callback().CallbackID == "" {
		return
	}
	ref := session.CallbackRef{
		CallbackID: c.Callback().CallbackID,
		UserID:     c.UserID(),
		ChatID:     chatID,
		CreatedAt:  time.Now(),
	}
	if err := b.Callbacks.PutCallback(c.Context(), ref); err != nil {
		logger.Warn(c.Context(), logger.CompRouter, "callback.store", slog.String("err", err.Error()))
	}
}

func answerQuietly(c *bot.Context, text string) {
	if err := c.Answer(text); err != nil {
		logger.Warn(c.Context(), logger.CompRouter, "callback.answer", slog.String("err", err.Error()))
	}
}
