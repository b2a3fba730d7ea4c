package router

import (
	"time"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/middleware"
)

// routeMessage tries, in order: a registered command, the FSM, the
// attachment handler, the unknown command handler and the text fallback.
func routeMessage(c *bot.Context, reg *bot.Registry, opts Options) error {
	start := time.Now()
	text := c.Text()

	if bot.IsCommand(text) {
		if key, cmd, ok := reg.LookupCommand(bot.CommandName(text)); ok {
			h := middleware.WithAdminCheck(opts.Admin, cmd)
			return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
				return h(c)
			})
		}
	}

	if opts.FSM != nil && opts.FSM.InProgress(c) {
		return handleWithSummary(c, "fsm", start, func() error {
			return opts.FSM.Handle(c)
		})
	}

	if m := c.Message(); m != nil && len(m.Body.Attachments) > 0 {
		if h := reg.AttachmentHandler(); h != nil {
			return handleWithSummary(c, "attachments", start, func() error {
				return h(c)
			})
		}
	}

	if bot.IsCommand(text) {
		if h := reg.UnknownCommand(); h != nil {
			return handleWithSummary(c, "unknown_command", start, func() error {
				return h(c)
			})
		}
	}

	if fb := reg.TextFallback(); fb != nil {
		return handleWithSummary(c, "fallback", start, func() error {
			return fb(c)
		})
	}

	logHandlerSummary(c, "unknown_text", start, statusSkip, nil)
	return nil
}

// routeOther handles update types registered with Registry.On.
func routeOther(c *bot.Context, reg *bot.Registry) error {
	start := time.Now()
	name := normalizeHandlerName(string(c.Type()))
	h, ok := reg.UpdateHandler(c.Type())
	if !ok {
		logHandlerSummary(c, name, start, statusSkip, nil)
		return nil
	}
	return handleWithSummary(c, name, start, func() error {
		return h(c)
	})
}
