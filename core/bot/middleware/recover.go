package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/maxbot/core/bot"
	"github.com/m3rciful/maxbot/core/logger"
)

// PanicError is returned by Recover when a handler panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// Code implements the error code convention used in handler logs.
func (e *PanicError) Code() string { return "PANIC" }

// Recover turns handler panics into *PanicError so they reach the error callback.
func Recover(next bot.HandlerFunc) bot.HandlerFunc {
	return func(c *bot.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Context(), logger.CompBot, "panic",
					slog.Any("cause", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = &PanicError{Value: r}
			}
		}()
		return next(c)
	}
}
