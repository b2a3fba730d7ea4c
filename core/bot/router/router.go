// Package router turns a bot.Registry into the root handler: it dispatches
// each update by type and logs one summary line per handled update.
package router

import (
	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/bot/middleware"
	"github.com/m3rciful/maxbot/core/maxapi"
)

// FSM is a conversation that claims messages while the user is inside it.
type FSM interface {
	InProgress(c *bot.Context) bool
	Handle(c *bot.Context) error
}

// Options customises routing.
type Options struct {
	// FSM receives non-command messages while InProgress reports true.
	FSM FSM
	// Admin guards commands registered with AdminOnly.
	Admin middleware.AdminOptions
	// AckText, when set, is sent as the callback notification before a
	// registered callback handler runs.
	AckText string
}

// New returns the root handler for reg.
func New(reg *bot.Registry, opts Options) bot.HandlerFunc {
	if reg == nil {
		reg = bot.NewRegistry()
	}
	return func(c *bot.Context) error {
		switch c.Type() {
		case maxapi.UpdateMessageCreated:
			return routeMessage(c, reg, opts)
		case maxapi.UpdateMessageCallback:
			return routeCallback(c, reg, opts)
		default:
			return routeOther(c, reg)
		}
	}
}
