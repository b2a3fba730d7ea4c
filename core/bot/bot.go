// Package bot is the update runtime on top of the MAX client: a per-update
// Context, a Registry of commands and callbacks, middleware, and Run, which
// drives either long polling or a webhook server.
package bot

import (
	"context"

	"github.com/m3rciful/maxbot/core/bot/sender"
	"github.com/m3rciful/maxbot/core/maxapi"
	"github.com/m3rciful/maxbot/core/session"
)

// API is the part of the MAX client handlers talk to.
type API interface {
	SendMessage(ctx context.Context, p maxapi.SendMessageParams) (*maxapi.Message, error)
	AnswerCallback(ctx context.Context, callbackID string, a maxapi.CallbackAnswer) (*maxapi.SimpleResult, error)
	EditMessage(ctx context.Context, p maxapi.EditMessageParams) (*maxapi.SimpleResult, error)
	SendAction(ctx context.Context, chatID int64, action maxapi.SenderAction) (*maxapi.SimpleResult, error)
}

// HandlerFunc handles one update.
type HandlerFunc func(c *Context) error

// MiddlewareFunc wraps a handler.
type MiddlewareFunc func(next HandlerFunc) HandlerFunc

// Middleware is a named MiddlewareFunc, applied in declaration order.
type Middleware struct {
	Name string
	Use  MiddlewareFunc
}

// Chain wraps h so that mws[0] runs first.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i].Use != nil {
			h = mws[i].Use(h)
		}
	}
	return h
}

// Bot bundles the dependencies handlers reach through Context.
type Bot struct {
	API      API
	Registry *Registry
	// Dispatcher, when set, makes outbound sends asynchronous.
	Dispatcher *sender.Dispatcher
	Sessions   session.Store
	Callbacks  session.CallbackStore
	AdminID    int64
}

// New returns a Bot with an empty registry and in-memory stores.
func New(api API) *Bot {
	mem := session.NewMemoryStore()
	return &Bot{
		API:       api,
		Registry:  NewRegistry(),
		Sessions:  mem,
		Callbacks: mem,
	}
}
